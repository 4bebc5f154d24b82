// Package runtime orchestrates one agent turn: deduplicate the inbound
// message, replay session history, call the model provider, execute any
// requested tools, and persist the exchange.
package runtime
