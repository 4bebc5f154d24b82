// Package config loads and validates the SDK configuration from YAML files,
// expanding ${VAR} environment references and parsing duration strings.
package config
