// Package observe provides observability primitives for cached HTTP routes.
//
// It offers a zerolog-backed structured Logger with the normal, debug and
// silent levels, OpenTelemetry tracing and metrics keyed by RouteMeta, and an
// HTTP Middleware that instruments whole requests. It performs no I/O beyond
// exporter setup; the cache engine and the server wire it in.
package observe
