// Package config loads the service configuration: compiled-in defaults,
// an optional YAML file and the CONTRACT_ADDRESS / PHAROS_RPC /
// SESSION_SECRET / PORT / LOG_LEVEL environment overrides. The resulting
// Config is built once at startup and handed to the components that need it.
package config
