// Package tool defines the interface for model-invocable functions and a
// registry that exposes them to providers as tool definitions.
package tool
