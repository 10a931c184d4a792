// Package config loads routecached settings from ROUTECACHE_* environment
// variables and route declarations from a YAML file.
//
// String settings that may carry credentials (the Redis URL and password, the
// SQLite path and the routes file) are passed through a secret.Resolver, so
// they can reference ${VAR} or secretref:<provider>:<ref>.
package config
