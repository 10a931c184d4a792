// Package secret resolves credentials referenced from configuration values,
// such as the Redis password of the cache store.
//
// A value is first expanded against the environment (see ExpandEnvStrict) and
// then any secret references are replaced by a Provider lookup. References
// look like:
//
//	secretref:env:REDIS_PASSWORD
//	secretref:file:/run/secrets/redis_password
//	redis://:secretref:file:/run/secrets/redis_password@cache:6379/0
//
// The "env" and "file" providers are registered in DefaultRegistry;
// Registry.Resolver builds a Resolver from every registered provider.
package secret
