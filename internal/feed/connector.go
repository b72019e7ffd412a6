// Package feed owns the websocket connection to the external message source.
// Validated messages are published on the bus for the ingestion pipeline;
// connection loss is recovered with bounded linear-backoff reconnection.
package feed

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/feedsink/feedsink/internal/bus"
	"github.com/feedsink/feedsink/internal/status"
)

// Options configures the connector.
type Options struct {
	URL string
	// MaxAttempts caps consecutive reconnection attempts. The counter
	// resets to zero on every successful open.
	MaxAttempts int
	// Interval is the base backoff: attempt n waits Interval × n.
	Interval time.Duration
}

// Connector maintains one logical connection to the external feed.
type Connector struct {
	opts    Options
	bus     *bus.Bus
	machine *status.Machine
	logger  *zap.Logger
	dialer  *websocket.Dialer
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewConnector creates a connector; Start opens the connection.
func NewConnector(opts Options, b *bus.Bus, machine *status.Machine, logger *zap.Logger) *Connector {
	return &Connector{
		opts:    opts,
		bus:     b,
		machine: machine,
		logger:  logger,
		dialer:  websocket.DefaultDialer,
		done:    make(chan struct{}),
	}
}

// Start launches the connect/reconnect loop.
func (c *Connector) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx)
}

// Stop terminates the loop and waits for it to exit.
func (c *Connector) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	<-c.done
}

// State returns the current connection state.
func (c *Connector) State() status.State {
	return c.machine.Current()
}

func (c *Connector) run(ctx context.Context) {
	defer close(c.done)

	attempts := 0
	for {
		if ctx.Err() != nil {
			return
		}
		_ = c.machine.Transition(status.Connecting)

		conn, resp, err := c.dialer.DialContext(ctx, c.opts.URL, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err == nil {
			attempts = 0
			_ = c.machine.Transition(status.Connected)
			connID := uuid.New().String()
			c.logger.Info("connected to feed",
				zap.String("url", c.opts.URL),
				zap.String("conn_id", connID))

			c.readLoop(ctx, conn, connID)
			_ = conn.Close()
		} else {
			c.logger.Warn("feed dial failed", zap.String("url", c.opts.URL), zap.Error(err))
		}

		if ctx.Err() != nil {
			return
		}
		_ = c.machine.Transition(status.Reconnecting)

		if attempts >= c.opts.MaxAttempts {
			c.logger.Error("max reconnection attempts reached, giving up",
				zap.Int("attempts", attempts))
			_ = c.machine.Transition(status.GivenUp)
			return
		}
		attempts++
		delay := c.opts.Interval * time.Duration(attempts)
		c.logger.Info("reconnecting to feed",
			zap.Int("attempt", attempts),
			zap.Duration("delay", delay))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}
}

func (c *Connector) readLoop(ctx context.Context, conn *websocket.Conn, connID string) {
	// Unblock ReadMessage on shutdown.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.logger.Warn("feed connection closed",
				zap.String("conn_id", connID),
				zap.Error(err))
			return
		}
		c.handleFrame(data)
	}
}

// handleFrame parses one inbound frame. Malformed frames and invalid
// payloads are dropped with a warning; they never affect the connection.
func (c *Connector) handleFrame(data []byte) {
	env, err := ParseEnvelope(data)
	if err != nil {
		c.logger.Warn("malformed feed frame", zap.Error(err))
		return
	}
	if env.Type != EnvelopeNewMessage {
		return
	}

	msg, err := ParseMessage(env.Payload)
	if err != nil {
		c.logger.Warn("invalid message payload", zap.Error(err))
		return
	}

	c.bus.Publish(bus.Event{
		Kind:      bus.KindFeedMessage,
		Timestamp: time.Now(),
		Payload:   msg,
	})
}
