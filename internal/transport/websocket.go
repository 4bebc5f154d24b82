// ABOUTME: WebSocket implementation of the duplex socket abstraction.
// ABOUTME: Captures the server TLS certificate fingerprint at dial time for pinning.

package transport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/coder/websocket"
)

// WebSocket is the default Socket implementation, speaking text frames over
// a WebSocket connection.
type WebSocket struct {
	mu          sync.Mutex
	conn        *websocket.Conn
	fingerprint string
}

// NewWebSocket returns an unconnected WebSocket transport.
func NewWebSocket() *WebSocket {
	return &WebSocket{}
}

// WebSocketFactory is the default socket factory.
func WebSocketFactory() Socket {
	return NewWebSocket()
}

// Connect dials the WebSocket endpoint. When the handshake runs over TLS the
// server leaf certificate fingerprint is recorded for later pinning checks.
func (w *WebSocket) Connect(ctx context.Context, url string) error {
	conn, resp, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", url, err)
	}

	var fingerprint string
	if resp != nil && resp.TLS != nil && len(resp.TLS.PeerCertificates) > 0 {
		sum := sha256.Sum256(resp.TLS.PeerCertificates[0].Raw)
		fingerprint = hex.EncodeToString(sum[:])
	}

	w.mu.Lock()
	w.conn = conn
	w.fingerprint = fingerprint
	w.mu.Unlock()

	return nil
}

// Send writes one text frame.
func (w *WebSocket) Send(ctx context.Context, text string) error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("websocket not connected")
	}
	if err := conn.Write(ctx, websocket.MessageText, []byte(text)); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

// Receive blocks until the next text frame arrives or the connection fails.
func (w *WebSocket) Receive(ctx context.Context) (string, error) {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()

	if conn == nil {
		return "", fmt.Errorf("websocket not connected")
	}

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return "", fmt.Errorf("websocket read: %w", err)
		}
		// The gateway protocol is text-only; binary frames are skipped.
		if typ != websocket.MessageText {
			continue
		}
		return string(data), nil
	}
}

// Fingerprint returns the fingerprint observed at Connect, or "".
func (w *WebSocket) Fingerprint() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fingerprint
}

// Close tears the connection down.
func (w *WebSocket) Close() {
	w.mu.Lock()
	conn := w.conn
	w.conn = nil
	w.mu.Unlock()

	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}
}
