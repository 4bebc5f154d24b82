// Package wire defines the JSON frame shapes exchanged with the local
// gateway process over a duplex socket: requests, their correlated
// responses, and unsolicited server-pushed events.
//
// The package is pure data. Connection state, correlation, and delivery
// live in the gateway package.
package wire
