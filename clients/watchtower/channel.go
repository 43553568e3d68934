// Package watchtower maintains the tenant-scoped push channel that streams
// agent and execution status events into the dashboard.
package watchtower

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"controlroom/pkg/api/watchtower"
	"controlroom/pkg/clients"
	"controlroom/pkg/logging"
	"controlroom/pkg/monitoring"
	"controlroom/pkg/projection"
	"controlroom/pkg/validation"
)

// CredentialSource yields the auth material for a dial. The credential
// store satisfies this. Both values are read fresh at every (re)dial so a
// rotated token is picked up on the next attempt without restarting the
// channel.
type CredentialSource interface {
	Token() string
	MachineKey() string
}

// Config represents the configuration for a push channel
type Config struct {
	// BaseURL of the Watchtower endpoint, http(s) or ws(s) scheme.
	BaseURL     string
	Credentials CredentialSource
	Projection  *projection.Projection
	Logger      logging.Logger
	Metrics     *monitoring.Metrics

	// KeepAliveInterval is the ping probe period. Default: 15s.
	KeepAliveInterval time.Duration
	// ServerTimeout is how long silence is tolerated before the connection
	// counts as dead. Default: 60s. Keep this well above the probe interval
	// so an idle-but-healthy channel is never mistaken for a dead one.
	ServerTimeout time.Duration
	// ReconnectBaseDelay and ReconnectMaxDelay bound the backoff between
	// attempts: min(base * 2^attempt, max). Defaults: 1s, 30s.
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
	// HandshakeTimeout bounds the websocket negotiation. Default: 30s.
	HandshakeTimeout time.Duration
	// MaxStartAttempts is the number of consecutive failed dials before the
	// channel gives up and parks in Failed. Default: 10.
	MaxStartAttempts int
}

func (c Config) withDefaults() Config {
	if c.KeepAliveInterval == 0 {
		c.KeepAliveInterval = 15 * time.Second
	}
	if c.ServerTimeout == 0 {
		c.ServerTimeout = 60 * time.Second
	}
	if c.ReconnectBaseDelay == 0 {
		c.ReconnectBaseDelay = time.Second
	}
	if c.ReconnectMaxDelay == 0 {
		c.ReconnectMaxDelay = 30 * time.Second
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 30 * time.Second
	}
	if c.MaxStartAttempts == 0 {
		c.MaxStartAttempts = 10
	}
	return c
}

// dialFunc is the seam tests use to stand in for the websocket dialer.
type dialFunc func(ctx context.Context, wsURL string, header http.Header) (*websocket.Conn, *http.Response, error)

// Channel is one live push channel bound to one tenant. It owns its
// reconnect loop; consumers only Close it.
type Channel struct {
	cfg    Config
	tenant string
	logger logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	dial dialFunc
	now  func() time.Time

	// writeMu serializes data-frame writers on the connection; gorilla
	// supports only one at a time.
	writeMu sync.Mutex

	mu        sync.RWMutex
	phase     Phase
	attempt   int
	lastError ErrorClass
	conn      *websocket.Conn
}

// newChannel builds a channel and starts its connect loop. Construction
// goes through the Manager so that at most one channel is live per session.
func newChannel(parent context.Context, tenant string, cfg Config) *Channel {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(parent)
	ch := &Channel{
		cfg:    cfg,
		tenant: tenant,
		logger: cfg.Logger,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		now:    time.Now,
		phase:  Disconnected,
	}
	ch.dial = ch.dialWebsocket
	go ch.run()
	return ch
}

// Tenant returns the tenant this channel is bound to.
func (c *Channel) Tenant() string {
	return c.tenant
}

// State returns a snapshot of the channel lifecycle.
func (c *Channel) State() ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ConnectionState{
		Tenant:    c.tenant,
		Phase:     c.phase,
		Attempt:   c.attempt,
		LastError: c.lastError,
	}
}

// Close requests a graceful shutdown and waits for the loop to finish.
// Close errors are logged at debug level; teardown never fails upward.
func (c *Channel) Close() {
	c.cancel()

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		unsubscribe := watchtower.SubscriptionMessage{
			Action:   watchtower.ActionUnsubscribe,
			TenantID: c.tenant,
		}
		if err := c.writeJSON(conn, unsubscribe); err != nil {
			logging.WithTenant(c.logger, c.tenant).WithError(err).Debug("Unsubscribe not delivered")
		}
		deadline := time.Now().Add(time.Second)
		if err := conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline); err != nil {
			logging.WithTenant(c.logger, c.tenant).WithError(err).Debug("Close frame not delivered")
		}
		if err := conn.Close(); err != nil {
			logging.WithTenant(c.logger, c.tenant).WithError(err).Debug("Channel close error")
		}
	}

	<-c.done
}

// run is the connect/reconnect loop: Connecting -> Connected, transport
// loss -> Reconnecting with capped exponential backoff, Failed once the
// consecutive-failure limit is reached.
func (c *Channel) run() {
	defer close(c.done)
	defer func() {
		if c.State().Phase != Failed {
			c.setPhase(Disconnected)
		}
		if c.cfg.Metrics != nil {
			c.cfg.Metrics.ActiveChannels.Dec()
		}
	}()
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.ActiveChannels.Inc()
	}

	for {
		if c.ctx.Err() != nil {
			return
		}

		attempt := c.startAttempt()
		conn, err := c.dialOnce()
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			class := classifyStartError(err)
			c.noteFailure(class)
			entry := logging.WithTenant(c.logger, c.tenant).WithError(err).WithFields(logging.Fields{
				"attempt": attempt,
				"class":   class.String(),
			})
			if class == ErrorExpected {
				entry.Debug("Push channel start failed; retrying")
			} else {
				entry.Error("Push channel start failed")
			}

			if attempt+1 >= c.cfg.MaxStartAttempts {
				c.setPhase(Failed)
				logging.WithTenant(c.logger, c.tenant).Error("Push channel gave up after repeated failures")
				return
			}
			if c.cfg.Metrics != nil {
				c.cfg.Metrics.Reconnects.Inc()
			}
			if !c.sleep(clients.Backoff(attempt, c.cfg.ReconnectBaseDelay, c.cfg.ReconnectMaxDelay)) {
				return
			}
			continue
		}

		c.setConnected(conn)
		logging.WithTenant(c.logger, c.tenant).Info("Push channel connected")

		if err := c.subscribe(conn); err != nil {
			logging.WithTenant(c.logger, c.tenant).WithError(err).Debug("Subscribe failed; reconnecting")
			_ = conn.Close()
			c.noteFailure(classifyStartError(err))
			if c.cfg.Metrics != nil {
				c.cfg.Metrics.Reconnects.Inc()
			}
			if !c.sleep(clients.Backoff(attempt, c.cfg.ReconnectBaseDelay, c.cfg.ReconnectMaxDelay)) {
				return
			}
			continue
		}

		stopPing := make(chan struct{})
		go c.writePump(conn, stopPing)
		c.readPump(conn)
		close(stopPing)
		_ = conn.Close()

		if c.ctx.Err() != nil {
			return
		}
		if c.cfg.Metrics != nil {
			c.cfg.Metrics.Reconnects.Inc()
		}
		logging.WithTenant(c.logger, c.tenant).Debug("Push channel transport lost; reconnecting")
	}
}

// startAttempt flips the phase for the upcoming dial and returns the
// 0-based attempt number.
func (c *Channel) startAttempt() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == Disconnected {
		c.phase = Connecting
	} else {
		c.phase = Reconnecting
	}
	return c.attempt
}

func (c *Channel) noteFailure(class ErrorClass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempt++
	c.lastError = class
	c.phase = Reconnecting
}

func (c *Channel) setConnected(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	c.phase = Connected
	c.attempt = 0
	c.lastError = ErrorNone
}

func (c *Channel) setPhase(p Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = p
}

func (c *Channel) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-c.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// dialOnce negotiates one websocket connection with fresh credentials. A
// machine key, when present, takes precedence over the bearer token.
func (c *Channel) dialOnce() (*websocket.Conn, error) {
	header := make(http.Header)
	if key := c.cfg.Credentials.MachineKey(); key != "" {
		header.Set("X-Machine-Key", key)
	} else if token := c.cfg.Credentials.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := c.dial(c.ctx, c.channelURL(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("push channel dial failed (status: %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("push channel dial failed: %w", err)
	}
	return conn, nil
}

func (c *Channel) dialWebsocket(ctx context.Context, wsURL string, header http.Header) (*websocket.Conn, *http.Response, error) {
	dialer := &websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	return dialer.DialContext(ctx, wsURL, header)
}

// channelURL constructs the tenant-scoped hub URL.
func (c *Channel) channelURL() string {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return fmt.Sprintf("ws://%s/hubs/status?organizationunit=%s", c.cfg.BaseURL, url.QueryEscape(c.tenant))
	}
	scheme := "ws"
	if u.Scheme == "https" || u.Scheme == "wss" {
		scheme = "wss"
	}
	hub := &url.URL{
		Scheme:   scheme,
		Host:     u.Host,
		Path:     "/hubs/status",
		RawQuery: "organizationunit=" + url.QueryEscape(c.tenant),
	}
	return hub.String()
}

func (c *Channel) subscribe(conn *websocket.Conn) error {
	connectionID := uuid.NewString()
	logging.WithTenant(c.logger, c.tenant).WithField("connection_id", connectionID).Debug("Subscribing to status stream")

	return c.writeJSON(conn, watchtower.SubscriptionMessage{
		Action:       watchtower.ActionSubscribe,
		TenantID:     c.tenant,
		ConnectionID: connectionID,
	})
}

func (c *Channel) writeJSON(conn *websocket.Conn, v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(v)
}

// readPump reads frames until the transport drops, normalizing each one
// into the projection. Returns on error; the run loop decides what next.
func (c *Channel) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(512 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ServerTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.ServerTimeout))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil &&
				websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logging.WithTenant(c.logger, c.tenant).WithError(err).Debug("Push channel read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ServerTimeout))
		c.ingest(raw)
	}
}

// ingest normalizes one frame and folds it into the projection. Frames
// arriving after teardown are dropped so a stale channel can never touch
// the next tenant's state.
func (c *Channel) ingest(raw []byte) {
	if c.ctx.Err() != nil {
		return
	}
	ev, err := validation.NormalizeStatusEvent(raw, c.now)
	if err != nil {
		logging.WithTenant(c.logger, c.tenant).WithError(err).Debug("Dropped unusable frame")
		return
	}
	c.cfg.Projection.Apply(ev)
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.Events.WithLabelValues(string(ev.Kind)).Inc()
	}
}

// writePump sends keep-alive pings until the connection or channel stops.
func (c *Channel) writePump(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				logging.WithTenant(c.logger, c.tenant).WithError(err).Debug("Keep-alive probe failed")
				return
			}
		}
	}
}
