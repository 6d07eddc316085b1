package ws

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type OverflowPolicy string

const (
	// DropOldest discards the oldest queued event to make room for the new one.
	DropOldest OverflowPolicy = "drop_oldest"
	// Disconnect closes a connection that cannot keep up.
	Disconnect OverflowPolicy = "disconnect"
)

type Options struct {
	QueueSize      int
	Overflow       OverflowPolicy
	MaxMessageSize int64
	RateLimit      float64
	RateBurst      int
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
}

func DefaultOptions() Options {
	return Options{
		QueueSize:      256,
		Overflow:       DropOldest,
		MaxMessageSize: 64 * 1024,
		RateLimit:      10,
		RateBurst:      20,
		PingPeriod:     54 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
	}
}

// withDefaults fills every unset option.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.QueueSize <= 0 {
		o.QueueSize = d.QueueSize
	}
	if o.Overflow == "" {
		o.Overflow = d.Overflow
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = d.MaxMessageSize
	}
	if o.RateBurst <= 0 {
		o.RateBurst = d.RateBurst
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = d.PingPeriod
	}
	if o.PongWait <= 0 {
		o.PongWait = d.PongWait
	}
	if o.WriteWait <= 0 {
		o.WriteWait = d.WriteWait
	}
	return o
}

// Connection is the transport side of one admitted session.
// It implements contract.EventSink: Consume never blocks and fails once closed.
type Connection struct {
	conn     *websocket.Conn
	log      *slog.Logger
	recorder event.Recorder
	opts     Options
	limiter  *rate.Limiter

	mu     sync.Mutex
	queue  chan []byte
	closed bool
	done   chan struct{}
}

func NewConnection(conn *websocket.Conn, log *slog.Logger, recorder event.Recorder, opts Options) *Connection {
	opts = opts.withDefaults()
	// A zero rate disables limiting.
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	return &Connection{
		conn:     conn,
		log:      log,
		recorder: recorder,
		opts:     opts,
		limiter:  rate.NewLimiter(limit, opts.RateBurst),
		queue:    make(chan []byte, opts.QueueSize),
		done:     make(chan struct{}),
	}
}

func (c *Connection) Consume(_ context.Context, e event.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.ErrConnectionClosed
	}
	select {
	case c.queue <- data:
		return nil
	default:
	}

	if c.recorder != nil {
		c.recorder.OutboundDropped()
	}
	if c.opts.Overflow == Disconnect {
		c.closeLocked()
		return errors.ErrQueueFull
	}
	// Only producers holding the lock push, so one pop always frees a slot.
	select {
	case <-c.queue:
	default:
	}
	c.queue <- data
	return nil
}

// Close stops the write pump, which sends a close frame and closes the socket.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Connection) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// Serve admits the connection, pumps events in both directions and releases it on exit.
// Inbound events are dispatched sequentially in the read loop.
func (c *Connection) Serve(ctx context.Context, session contract.ISession, userID domain.UserID) {
	connID := session.Admit(ctx, userID, c)
	log := c.log.With("conn_id", connID, "user_id", userID)

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		c.writePump(log)
	}()

	c.readPump(ctx, log, session, connID)
	session.Release(ctx, connID)
	c.Close()
	<-writeDone
	log.Debug("Connection closed")
}

func (c *Connection) readPump(ctx context.Context, log *slog.Logger, session contract.ISession, connID domain.ConnectionID) {
	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait)); err != nil {
		log.Debug("Error setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(log, err)
			return
		}
		if ctx.Err() != nil {
			return
		}

		if !c.limiter.Allow() {
			log.Debug("Rate limit exceeded, discarding event")
			c.nack(ctx, "", errors.ErrRateLimited)
			continue
		}

		var in event.Inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			c.nack(ctx, "", fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err))
			continue
		}
		session.Dispatch(ctx, connID, in)
	}
}

func (c *Connection) nack(ctx context.Context, ref string, err error) {
	_ = c.Consume(ctx, event.New(event.MessageRejectedType, event.MessageRejected{
		Ref:    ref,
		Code:   errors.ToCode(err),
		Reason: err.Error(),
	}))
}

func (c *Connection) logReadError(log *slog.Logger, err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Info("Inbound message exceeded maximum size", "limit", c.opts.MaxMessageSize)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		log.Debug("Client disconnected", "error", err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		log.Debug("Connection closed", "error", err)
	default:
		log.Debug("Websocket read error", "error", err)
	}
}

func (c *Connection) writePump(log *slog.Logger) {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.queue:
			if !c.write(log, websocket.TextMessage, message) {
				return
			}
		case <-ticker.C:
			if !c.write(log, websocket.PingMessage, nil) {
				return
			}
		case <-c.done:
			c.flush(log)
			c.write(log, websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes what is still queued when the connection is closed on purpose.
func (c *Connection) flush(log *slog.Logger) {
	for {
		select {
		case message := <-c.queue:
			if !c.write(log, websocket.TextMessage, message) {
				return
			}
		default:
			return
		}
	}
}

func (c *Connection) write(log *slog.Logger, messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
		log.Debug("Error setting write deadline", "error", err)
		return false
	}
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		log.Debug("Error writing message", "error", err)
		return false
	}
	return true
}
