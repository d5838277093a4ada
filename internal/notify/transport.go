package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/storefront-labs/orderpulse/internal/metrics"
	"github.com/storefront-labs/orderpulse/internal/session"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	// Ping a little before the peer's read deadline would expire.
	pingPeriod = (pongWait * 9) / 10

	// eventTopic is the inbound topic carrying one new notification.
	eventTopic = "order:notification"
	// ackTopic is the structured handshake acknowledgment. Diagnostic only.
	ackTopic = "connected"

	backoffFloor = time.Second
	backoffCap   = 30 * time.Second
)

// frame is one message on the push channel.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// EventHandler receives one normalized notification per inbound push event,
// in arrival order.
type EventHandler func(Notification)

// StatusHandler observes connection-state transitions.
type StatusHandler func(ConnectionState)

// Transport owns the single persistent WebSocket connection to the backend's
// push channel for the lifetime of an authenticated session. It reconnects on
// failure with a rate-limited backoff and never surfaces transport errors to
// callers; they observe the status handler instead.
type Transport struct {
	url     string
	sess    *session.Session
	logger  *slog.Logger
	alerter Alerter
	metrics *metrics.Metrics
	dialer  *websocket.Dialer

	handlers  []EventHandler
	statusFns []StatusHandler

	mu      sync.Mutex
	conn    *websocket.Conn
	state   ConnectionState
	started bool

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithAlerter sets the best-effort local alerter invoked per inbound event.
func WithAlerter(a Alerter) TransportOption {
	return func(t *Transport) { t.alerter = a }
}

// WithTransportMetrics sets the metrics sink.
func WithTransportMetrics(m *metrics.Metrics) TransportOption {
	return func(t *Transport) { t.metrics = m }
}

// NewTransport creates a Transport for the given push endpoint and session.
func NewTransport(pushURL string, sess *session.Session, logger *slog.Logger, opts ...TransportOption) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Transport{
		url:    pushURL,
		sess:   sess,
		logger: logger,
		dialer: websocket.DefaultDialer,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnEvent registers a handler invoked once per distinct inbound notification
// event. Register before Start; later registrations are ignored.
func (t *Transport) OnEvent(h EventHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		t.logger.Warn("OnEvent called after Start, handler ignored")
		return
	}
	t.handlers = append(t.handlers, h)
}

// OnStatus registers a connection-state observer. Register before Start.
func (t *Transport) OnStatus(h StatusHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		t.logger.Warn("OnStatus called after Start, handler ignored")
		return
	}
	t.statusFns = append(t.statusFns, h)
}

// Start launches the connection supervisor. It returns immediately; dial and
// auth failures are not errors here; the transport settles in the
// disconnected state and keeps retrying while ctx is alive.
func (t *Transport) Start(ctx context.Context) {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.started = true
	ctx, t.cancel = context.WithCancel(ctx)
	t.mu.Unlock()

	go t.supervise(ctx)
}

// supervise runs connect/read/reconnect until ctx is canceled.
func (t *Transport) supervise(ctx context.Context) {
	defer close(t.done)
	defer t.setState(StateDisconnected)

	backoff := backoffFloor
	for {
		t.setState(StateConnecting)
		conn, err := t.dial(ctx)
		if err != nil {
			t.setState(StateDisconnected)
			t.logger.Debug("push channel dial failed",
				slog.String("url", t.url), slog.String("error", err.Error()))
			if !t.sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, backoffCap)
			t.metrics.Reconnect()
			continue
		}

		backoff = backoffFloor
		t.setConn(conn)
		t.setState(StateConnected)

		t.readLoop(ctx, conn)

		t.setConn(nil)
		t.setState(StateDisconnected)
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}
		// Floor of one attempt per second on sustained failure.
		if !t.sleep(ctx, backoffFloor) {
			return
		}
		t.metrics.Reconnect()
	}
}

func (t *Transport) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+t.sess.Token)

	conn, resp, err := t.dialer.DialContext(ctx, t.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// readLoop pumps inbound frames until the connection breaks or ctx ends.
func (t *Transport) readLoop(ctx context.Context, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	pingDone := make(chan struct{})
	defer close(pingDone)
	go t.pingLoop(conn, pingDone)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-pingDone:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				t.logger.Debug("push channel read ended", slog.String("error", err.Error()))
			}
			return
		}
		t.handleFrame(msg)
	}
}

func (t *Transport) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// handleFrame decodes one inbound frame and fans notification events out to
// the registered handlers, in arrival order.
func (t *Transport) handleFrame(msg []byte) {
	var f frame
	if err := json.Unmarshal(msg, &f); err != nil {
		t.logger.Warn("malformed push frame", slog.String("error", err.Error()))
		return
	}

	switch f.Event {
	case ackTopic:
		// Handshake ack carries no business meaning.
		t.logger.Debug("push channel handshake acknowledged", slog.String("data", string(f.Data)))
	case eventTopic:
		n, err := ParseNotification(f.Data)
		if err != nil {
			t.logger.Warn("malformed push notification", slog.String("error", err.Error()))
			return
		}
		t.metrics.EventReceived()
		// Local desktop/sound alerts are best-effort and must not affect
		// delivery to handlers.
		if t.alerter != nil {
			t.alerter.Alert(n)
		}
		for _, h := range t.handlers {
			h(n)
		}
	default:
		t.logger.Debug("ignoring push frame", slog.String("event", f.Event))
	}
}

// setState records a transition and notifies status observers.
func (t *Transport) setState(s ConnectionState) {
	t.mu.Lock()
	if t.state == s {
		t.mu.Unlock()
		return
	}
	t.state = s
	fns := t.statusFns
	t.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// State returns the current connection state.
func (t *Transport) State() ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transport) setConn(c *websocket.Conn) {
	t.mu.Lock()
	t.conn = c
	t.mu.Unlock()
}

// sleep waits for d or until ctx is canceled; it reports whether to continue.
func (t *Transport) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// Close tears the connection down on every exit path. Idempotent.
func (t *Transport) Close() {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		cancel := t.cancel
		conn := t.conn
		started := t.started
		t.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if conn != nil {
			_ = conn.Close()
		}
		if started {
			<-t.done
		}
	})
}
