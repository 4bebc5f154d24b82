// ABOUTME: Tests for the WebSocket transport against a live in-process server.
// ABOUTME: Validates frame round-trips, close behavior, and unconnected-state errors.

package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startEchoServer runs a WebSocket server that echoes every text frame back.
func startEchoServer(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		for {
			typ, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			if err := conn.Write(r.Context(), typ, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocket_RoundTrip(t *testing.T) {
	url := startEchoServer(t)
	ctx := context.Background()

	sock := NewWebSocket()
	require.NoError(t, sock.Connect(ctx, url))
	defer sock.Close()

	require.NoError(t, sock.Send(ctx, `{"type":"req","id":"1","method":"ping"}`))

	got, err := sock.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"req","id":"1","method":"ping"}`, got)
}

func TestWebSocket_NoFingerprintOverPlaintext(t *testing.T) {
	url := startEchoServer(t)

	sock := NewWebSocket()
	require.NoError(t, sock.Connect(context.Background(), url))
	defer sock.Close()

	assert.Empty(t, sock.Fingerprint())
}

func TestWebSocket_ReceiveFailsAfterClose(t *testing.T) {
	url := startEchoServer(t)
	ctx := context.Background()

	sock := NewWebSocket()
	require.NoError(t, sock.Connect(ctx, url))

	sock.Close()

	recvCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_, err := sock.Receive(recvCtx)
	assert.Error(t, err)
}

func TestWebSocket_UnconnectedOperationsFail(t *testing.T) {
	sock := NewWebSocket()

	assert.Error(t, sock.Send(context.Background(), "x"))

	_, err := sock.Receive(context.Background())
	assert.Error(t, err)
}

func TestWebSocket_ConnectBadURL(t *testing.T) {
	sock := NewWebSocket()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := sock.Connect(ctx, "ws://127.0.0.1:1/nope")
	assert.Error(t, err)
}
