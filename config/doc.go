// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the application configuration structure
// including server settings, upstream nodes, circuit breaker thresholds, the
// active health prober interval, and the response cache.
package config
