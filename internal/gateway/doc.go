// Package gateway implements the persistent RPC channel between the SDK and
// the local gateway control process.
//
// # Overview
//
// A Client owns one logical connection at a time: the active socket, the
// table of in-flight requests, and two background loops. The receive loop
// demultiplexes inbound frames: responses resolve pending requests by
// correlation id, events are forwarded to the registered sink in arrival
// order. The watchdog loop declares the connection dead when no frame has
// arrived within the tick interval and hands off to the reconnect loop,
// which retries with exponential backoff until Disconnect.
//
// # Invariants
//
// Every pending request resolves exactly once: either with its matching
// response, or with ErrConnectionLost when the connection is torn down while
// it is outstanding. Requests never queue across reconnects; Send fails fast
// with ErrNotConnected outside the connected state.
//
// Certificate fingerprint pinning, when required, is enforced on every
// connection attempt, explicit and automatic alike, before any loop starts.
// A mismatch is a hard failure and is never retried with the same
// configuration.
package gateway
