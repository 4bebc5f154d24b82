// ABOUTME: Persistent RPC client for the local gateway control process.
// ABOUTME: Multiplexes concurrent requests, watches liveness, and reconnects with backoff.

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/coven-sdk/internal/transport"
	"github.com/2389/coven-sdk/internal/wire"
)

// ErrNotConnected indicates an operation that requires an established
// connection was attempted while the client was not connected. Calls made
// during a reconnect wait fail with this rather than queueing.
var ErrNotConnected = errors.New("not connected to gateway")

// ErrConnectionLost indicates a request was in flight when the connection
// was torn down (watchdog timeout, read failure, or explicit disconnect).
var ErrConnectionLost = errors.New("gateway connection lost")

// ErrFingerprintMismatch indicates the server certificate fingerprint did
// not match the pinned value. This is a configuration/security failure and
// is never retried automatically.
var ErrFingerprintMismatch = errors.New("certificate fingerprint mismatch")

// State describes the connection lifecycle position of a Client.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateReconnectWaiting
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnectWaiting:
		return "reconnect-waiting"
	default:
		return "unknown"
	}
}

// Config holds the connection settings for a gateway Client.
type Config struct {
	// URL is the gateway endpoint, e.g. "ws://127.0.0.1:18789/gateway".
	URL string

	// ExpectedFingerprint is the pinned hex SHA-256 server certificate
	// fingerprint. Checked on every connection attempt, including automatic
	// reconnects, when FingerprintRequired is set.
	ExpectedFingerprint string

	// FingerprintRequired makes a missing or mismatched fingerprint a hard
	// connect failure.
	FingerprintRequired bool

	// TickInterval bounds how long the connection may stay silent before the
	// watchdog declares it dead. The gateway emits protocol-level keepalive
	// frames well inside this window.
	TickInterval time.Duration

	// InitialReconnectBackoff is the first delay before a reconnect attempt.
	// The delay doubles on each failed attempt up to MaxReconnectBackoff and
	// resets once a connection is established.
	InitialReconnectBackoff time.Duration
	MaxReconnectBackoff     time.Duration

	// SocketFactory produces a fresh socket per connection attempt. Defaults
	// to the WebSocket transport.
	SocketFactory transport.Factory

	Logger *slog.Logger
}

// EventSink receives server-pushed events in socket arrival order.
type EventSink func(*wire.Event)

// pendingRequest is one in-flight request awaiting its response. The channel
// is buffered so the receive loop never blocks resolving it; teardown closes
// it instead, so every entry resolves exactly once.
type pendingRequest struct {
	ch      chan *wire.Response
	method  string
	created time.Time
}

// Client is a persistent, auto-reconnecting RPC channel to the local gateway
// process. Many Send calls may be outstanding concurrently; responses are
// correlated by request id and may complete in any order.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu            sync.Mutex
	state         State
	socket        transport.Socket
	pending       map[string]*pendingRequest
	sink          EventSink
	cancelLoops   context.CancelFunc
	stopReconnect chan struct{}
	lastFrame     time.Time
}

// NewClient creates a gateway client. Missing config knobs get defaults; the
// URL is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("gateway url is required")
	}
	if cfg.SocketFactory == nil {
		cfg.SocketFactory = transport.WebSocketFactory
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 30 * time.Second
	}
	if cfg.InitialReconnectBackoff <= 0 {
		cfg.InitialReconnectBackoff = time.Second
	}
	if cfg.MaxReconnectBackoff <= 0 {
		cfg.MaxReconnectBackoff = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:     cfg,
		logger:  logger.With("component", "gateway-client"),
		pending: make(map[string]*pendingRequest),
	}, nil
}

// SetEventSink registers the callback that receives server-pushed events.
// Events arriving while no sink is registered are dropped.
func (c *Client) SetEventSink(sink EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect establishes the gateway connection and starts the receive and
// watchdog loops. Connecting while already connected is a no-op. Socket
// failures and fingerprint mismatches surface synchronously; no reconnect
// loop is started for a failed explicit Connect.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateConnected:
		c.mu.Unlock()
		return nil
	case StateConnecting:
		c.mu.Unlock()
		return fmt.Errorf("connect already in progress")
	case StateReconnectWaiting:
		// An explicit Connect supersedes the pending automatic retry.
		close(c.stopReconnect)
		c.stopReconnect = nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	sock, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		// Disconnect raced the dial; honor it.
		c.mu.Unlock()
		sock.Close()
		return ErrNotConnected
	}
	c.adoptLocked(sock)
	c.mu.Unlock()

	c.logger.Info("gateway connected", "url", c.cfg.URL)
	return nil
}

// removePending drops a pending entry without resolving it, used when the
// caller itself gives up (write failure or context cancellation).
func (c *Client) removePending(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Disconnect tears everything down: background loops, the active socket, and
// every pending request (each fails with ErrConnectionLost). Idempotent and
// safe to call from any state, including mid-reconnect-wait. No further
// reconnect attempts happen until Connect is called again.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.state == StateIdle && c.socket == nil && c.stopReconnect == nil {
		c.mu.Unlock()
		return
	}
	if c.cancelLoops != nil {
		c.cancelLoops()
		c.cancelLoops = nil
	}
	if c.stopReconnect != nil {
		close(c.stopReconnect)
		c.stopReconnect = nil
	}
	sock := c.socket
	c.socket = nil
	c.failPendingLocked()
	c.state = StateIdle
	c.mu.Unlock()

	if sock != nil {
		sock.Close()
	}
	c.logger.Info("gateway disconnected")
}

// Send issues a request and suspends the caller until the matching response
// arrives or the connection is torn down. It fails fast with ErrNotConnected
// outside the connected state. The client imposes no request timeout of its
// own; callers bound the wait through ctx.
func (c *Client) Send(ctx context.Context, method string, params map[string]string) (*wire.Response, error) {
	c.mu.Lock()
	if c.state != StateConnected || c.socket == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	sock := c.socket
	id := uuid.New().String()
	entry := &pendingRequest{
		ch:      make(chan *wire.Response, 1),
		method:  method,
		created: time.Now(),
	}
	c.pending[id] = entry
	c.mu.Unlock()

	data, err := wire.Encode(&wire.Request{ID: id, Method: method, Params: params})
	if err != nil {
		c.removePending(id)
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	if err := sock.Send(ctx, string(data)); err != nil {
		c.removePending(id)
		return nil, fmt.Errorf("writing request: %w", err)
	}

	select {
	case res, ok := <-entry.ch:
		if !ok {
			return nil, ErrConnectionLost
		}
		return res, nil
	case <-ctx.Done():
		c.removePending(id)
		return nil, ctx.Err()
	}
}

// dial runs one connection attempt: fresh socket from the factory, transport
// connect, then the pinning check. The same policy applies to explicit
// connects and automatic reconnects.
func (c *Client) dial(ctx context.Context) (transport.Socket, error) {
	sock := c.cfg.SocketFactory()
	if err := sock.Connect(ctx, c.cfg.URL); err != nil {
		return nil, fmt.Errorf("connecting socket: %w", err)
	}
	if c.cfg.FingerprintRequired {
		observed := sock.Fingerprint()
		if observed == "" || observed != c.cfg.ExpectedFingerprint {
			sock.Close()
			return nil, fmt.Errorf("fingerprint pinning: expected %q, observed %q: %w",
				c.cfg.ExpectedFingerprint, observed, ErrFingerprintMismatch)
		}
	}
	return sock, nil
}

// adoptLocked installs a freshly connected socket and starts its loops.
// Must be called with mu held.
func (c *Client) adoptLocked(sock transport.Socket) {
	loopCtx, cancel := context.WithCancel(context.Background())
	c.socket = sock
	c.cancelLoops = cancel
	c.state = StateConnected
	c.lastFrame = time.Now()
	go c.receiveLoop(loopCtx, sock)
	go c.watchdogLoop(loopCtx, sock)
}

// receiveLoop blocks on the socket, decodes frames, and dispatches them.
// A single malformed frame is dropped, not fatal; a read error ends the loop
// and triggers teardown-and-reconnect.
func (c *Client) receiveLoop(ctx context.Context, sock transport.Socket) {
	for {
		text, err := sock.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return // deliberate teardown
			}
			c.logger.Warn("receive failed", "error", err)
			c.connectionLost(sock)
			return
		}

		c.mu.Lock()
		c.lastFrame = time.Now()
		c.mu.Unlock()

		frame, err := wire.Decode([]byte(text))
		if err != nil {
			c.logger.Warn("dropping malformed frame", "error", err)
			continue
		}

		switch f := frame.(type) {
		case *wire.Response:
			c.resolvePending(f)
		case *wire.Event:
			c.dispatchEvent(f)
		case *wire.Request:
			c.logger.Warn("dropping unexpected request frame from server", "method", f.Method)
		}
	}
}

// resolvePending routes a response to its pending entry. A response with no
// matching entry is stale or duplicated and is dropped silently.
func (c *Client) resolvePending(res *wire.Response) {
	c.mu.Lock()
	entry, ok := c.pending[res.ID]
	if ok {
		delete(c.pending, res.ID)
	}
	c.mu.Unlock()

	if !ok {
		c.logger.Debug("dropping response with no pending request", "id", res.ID)
		return
	}
	entry.ch <- res
}

// dispatchEvent forwards an event to the registered sink. Called from the
// receive loop only, so sink delivery preserves socket arrival order.
func (c *Client) dispatchEvent(evt *wire.Event) {
	c.mu.Lock()
	sink := c.sink
	c.mu.Unlock()

	if sink == nil {
		return
	}
	sink(evt)
}

// watchdogLoop fires every tick interval and declares the connection dead
// when no inbound frame has been seen within one interval.
func (c *Client) watchdogLoop(ctx context.Context, sock transport.Socket) {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			silent := time.Since(c.lastFrame) > c.cfg.TickInterval
			c.mu.Unlock()

			if silent {
				c.logger.Warn("watchdog: connection silent past tick interval",
					"tick_interval", c.cfg.TickInterval)
				c.connectionLost(sock)
				return
			}
		}
	}
}

// connectionLost tears down an established connection and schedules the
// reconnect loop. The socket argument guards against stale loops from a
// previous connection racing a newer one.
func (c *Client) connectionLost(sock transport.Socket) {
	c.mu.Lock()
	if c.state != StateConnected || c.socket != sock {
		c.mu.Unlock()
		return
	}
	c.cancelLoops()
	c.cancelLoops = nil
	c.socket = nil
	c.failPendingLocked()
	c.state = StateReconnectWaiting
	stop := make(chan struct{})
	c.stopReconnect = stop
	c.mu.Unlock()

	sock.Close()
	go c.reconnectLoop(stop)
}

// failPendingLocked fails every outstanding request by closing its channel.
// Must be called with mu held. Entries already resolved by the receive loop
// are no longer in the table, so nothing resolves twice.
func (c *Client) failPendingLocked() {
	if len(c.pending) == 0 {
		return
	}
	c.logger.Warn("failing pending requests", "count", len(c.pending))
	for id, entry := range c.pending {
		close(entry.ch)
		delete(c.pending, id)
	}
}

// reconnectLoop retries the last known endpoint with exponential backoff
// until it succeeds, the pinning check fails, or Disconnect stops it. It is
// deliberately unbounded: the gateway is a long-lived local process that may
// restart at any time.
func (c *Client) reconnectLoop(stop chan struct{}) {
	backoff := c.cfg.InitialReconnectBackoff

	for attempt := 1; ; attempt++ {
		timer := time.NewTimer(backoff)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		c.logger.Info("reconnecting to gateway", "attempt", attempt, "backoff", backoff)
		sock, err := c.dial(context.Background())
		if err != nil {
			if errors.Is(err, ErrFingerprintMismatch) {
				// Retrying with the same pin cannot succeed; surface loudly
				// and stop instead of looping on a security failure.
				c.logger.Error("reconnect aborted", "error", err)
				c.mu.Lock()
				if c.state == StateReconnectWaiting && c.stopReconnect == stop {
					c.state = StateIdle
					c.stopReconnect = nil
				}
				c.mu.Unlock()
				return
			}
			c.logger.Warn("reconnect attempt failed", "attempt", attempt, "error", err)
			backoff = min(backoff*2, c.cfg.MaxReconnectBackoff)
			continue
		}

		c.mu.Lock()
		if c.state != StateReconnectWaiting || c.stopReconnect != stop {
			// Disconnect (or an explicit Connect) won the race.
			c.mu.Unlock()
			sock.Close()
			return
		}
		c.stopReconnect = nil
		c.adoptLocked(sock)
		c.mu.Unlock()

		c.logger.Info("gateway reconnected", "attempts", attempt)
		return
	}
}
