// ABOUTME: Duplex socket abstraction the gateway client runs over.
// ABOUTME: One Socket instance per connection attempt, produced by a Factory.

package transport

import "context"

// Socket is a message-oriented duplex connection carrying text frames.
// Implementations are used for exactly one connection attempt and are
// replaced wholesale on reconnect; they are never shared.
type Socket interface {
	// Connect opens the underlying connection to the given URL.
	Connect(ctx context.Context, url string) error

	// Send writes one text frame.
	Send(ctx context.Context, text string) error

	// Receive blocks until the next text frame arrives or the connection
	// fails. A returned error means the socket is dead.
	Receive(ctx context.Context) (string, error)

	// Fingerprint returns the hex SHA-256 fingerprint of the server leaf
	// certificate observed during Connect, or "" when the connection is not
	// over TLS. Used for pinning only.
	Fingerprint() string

	// Close tears the connection down. Best effort; errors are not reported.
	Close()
}

// Factory produces a fresh Socket for each connection attempt. Tests and
// alternate transports plug in here.
type Factory func() Socket
