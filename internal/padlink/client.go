package padlink

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/justinabrahms/padchess/internal/chess"
	"github.com/justinabrahms/padchess/internal/table"
	"github.com/rs/zerolog"
)

const (
	// Default controller bridge endpoint
	DefaultURL = "ws://localhost:9090/pads"

	// Reconnection parameters
	initialReconnectDelay  = 1 * time.Second
	maxReconnectDelay      = 5 * time.Minute
	reconnectBackoffFactor = 2

	// WebSocket parameters
	pingInterval = 30 * time.Second
	pongTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second

	requestTimeout = 5 * time.Second
)

// Table is the part of the table actor the controller drives
type Table interface {
	Input(ctx context.Context, in chess.Input) (table.Update, error)
	Promote(ctx context.Context, kind chess.Kind) (table.Update, error)
	Undo(ctx context.Context) (table.Update, error)
	NewGame(ctx context.Context) (table.Update, error)
}

// Client connects to the controller bridge and forwards its frames to a table
type Client struct {
	url            string
	conn           *websocket.Conn
	table          Table
	logger         zerolog.Logger
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	reconnectDelay time.Duration
	mu             sync.RWMutex
	connected      bool
	started        bool

	dialer *websocket.Dialer
}

// Option configures the client
type Option func(*Client)

// WithURL sets the bridge URL
func WithURL(url string) Option {
	return func(c *Client) {
		c.url = url
	}
}

// WithLogger sets a custom logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDialer replaces the websocket dialer
func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Client) {
		c.dialer = dialer
	}
}

// WithInitialReconnectDelay sets the initial reconnect delay
func WithInitialReconnectDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.reconnectDelay = delay
	}
}

// NewClient creates a controller client feeding target
func NewClient(target Table, opts ...Option) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	client := &Client{
		url:            DefaultURL,
		table:          target,
		logger:         zerolog.Nop(),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		reconnectDelay: initialReconnectDelay,
		dialer:         websocket.DefaultDialer,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Start begins listening to the bridge
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("padlink client already started")
	}
	c.started = true

	go c.run()
	return nil
}

// Stop closes the connection and waits for the client to finish
func (c *Client) Stop() error {
	c.cancel()

	c.mu.Lock()
	started := c.started
	var err error
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	c.mu.Unlock()

	if started {
		<-c.done
	}
	return err
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) run() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		conn, err := c.connect()
		if err != nil {
			if c.ctx.Err() == nil {
				c.logger.Error().Err(err).Msg("Failed to connect to controller bridge")
			}
			c.handleReconnect()
			continue
		}

		if err := c.listen(conn); err != nil && c.ctx.Err() == nil {
			c.logger.Error().Err(err).Msg("Error listening to controller bridge")
		}
		c.handleReconnect()
	}
}

func (c *Client) connect() (*websocket.Conn, error) {
	c.logger.Info().Str("url", c.url).Msg("Connecting to controller bridge")

	headers := http.Header{}
	headers.Set("User-Agent", "padchess/1.0")

	ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
	defer cancel()

	conn, _, err := c.dialer.DialContext(ctx, c.url, headers)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		conn.Close()
		return nil, c.ctx.Err()
	}
	c.conn = conn
	c.connected = true
	c.reconnectDelay = initialReconnectDelay
	c.mu.Unlock()

	c.logger.Info().Msg("Connected to controller bridge")

	conn.SetReadDeadline(time.Now().Add(pingInterval + pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pingInterval + pongTimeout))
		return nil
	})

	return conn, nil
}

func (c *Client) listen(conn *websocket.Conn) error {
	stopPing := make(chan struct{})
	defer close(stopPing)
	go c.pingLoop(conn, stopPing)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return fmt.Errorf("websocket read error: %w", err)
			}
			return err
		}
		conn.SetReadDeadline(time.Now().Add(pingInterval + pongTimeout))

		if messageType != websocket.TextMessage {
			continue
		}

		frame, err := ParseFrame(data)
		if err != nil {
			c.logger.Warn().Err(err).Int("len", len(data)).Msg("Skipping controller frame")
			continue
		}

		if err := c.dispatch(frame); err != nil {
			c.logger.Error().Err(err).Str("frame", string(frame.Type)).Msg("Table rejected controller frame")
		}
	}
}

func (c *Client) dispatch(frame Frame) error {
	ctx, cancel := context.WithTimeout(c.ctx, requestTimeout)
	defer cancel()

	var (
		update table.Update
		err    error
	)
	switch frame.Type {
	case FramePad:
		update, err = c.table.Input(ctx, frame.Input())
	case FramePromote:
		kind, _ := chess.ParseKind(frame.Choice)
		update, err = c.table.Promote(ctx, kind)
	case FrameUndo:
		update, err = c.table.Undo(ctx)
	case FrameNewGame:
		update, err = c.table.NewGame(ctx)
	}
	if err != nil {
		return fmt.Errorf("%s request failed: %w", frame.Type, err)
	}

	c.logger.Debug().
		Str("frame", string(frame.Type)).
		Str("update", update.ID).
		Int("events", len(update.Events)).
		Msg("Controller frame applied")
	return nil
}

func (c *Client) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeTimeout)); err != nil {
				c.logger.Error().Err(err).Msg("Ping failed")
				return
			}
		}
	}
}

func (c *Client) handleReconnect() {
	c.mu.Lock()
	c.connected = false
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	// Get current delay before updating
	delay := c.reconnectDelay

	// Exponential backoff
	c.reconnectDelay = time.Duration(float64(c.reconnectDelay) * reconnectBackoffFactor)
	if c.reconnectDelay > maxReconnectDelay {
		c.reconnectDelay = maxReconnectDelay
	}
	c.mu.Unlock()

	if c.ctx.Err() != nil {
		return
	}
	c.logger.Info().Str("delay", delay.String()).Msg("Waiting before reconnect")

	select {
	case <-time.After(delay):
	case <-c.ctx.Done():
	}
}
