// Package cache replays stored HTTP responses for configured routes.
//
// Each Route carries an optional Spec that decides how requests are keyed:
//
//   - Always shares one response between every caller.
//   - PerRequestURL keys by the raw request path and query.
//   - PerAuthToken keys by the first auth token found in a well-known cookie
//     or header. Tokens are not validated.
//   - PerCustomCookie keys by the value of a named cookie.
//
// Keys have the form cache:<method>:<suffix>. A request that cannot be keyed
// is served normally and not cached.
//
// Engine.Middleware looks the key up in a Store. A hit is written back with
// an X-Cache: HIT header and the handler is skipped. On a miss the handler
// runs behind a writer that captures its body, and a 2xx response is stored
// with the route's TTL (60 seconds unless its Spec sets ExpireSeconds).
//
// Handlers write bodies either with http.ResponseWriter.Write or with
// WriteJSON. Both paths are captured; the stored value is replayed through
// the same kind of path it was written with, as decided by the Codec.
//
// Store failures never reach the client. The Engine guards store calls with a
// resilience.Executor and treats an open circuit like a store that is not
// ready.
package cache
