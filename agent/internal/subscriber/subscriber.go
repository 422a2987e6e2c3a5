package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/consolerelay/consolerelay/agent/internal/config"
	"github.com/consolerelay/consolerelay/pkg/types"
)

const (
	dialTimeout  = 10 * time.Second
	closeTimeout = time.Second
)

// Sink receives decoded events in arrival order.
type Sink interface {
	Handle(ev types.Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev types.Event)

func (f SinkFunc) Handle(ev types.Event) { f(ev) }

// dialFunc opens a WebSocket connection to url.
type dialFunc func(ctx context.Context, url string) (*websocket.Conn, error)

// Subscriber keeps a connection to one relay and forwards its events.
type Subscriber struct {
	cfg  config.AgentConfig
	sink Sink
	dial dialFunc // injectable for tests
}

// New creates a Subscriber for cfg.RelayURL delivering to sink.
func New(cfg config.AgentConfig, sink Sink) *Subscriber {
	return &Subscriber{cfg: cfg, sink: sink, dial: defaultDial}
}

// Run connects and consumes events, reconnecting with backoff when the
// connection fails. Run blocks until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) {
	bo := newBackoff(s.cfg.ReconnectInitial, s.cfg.ReconnectMax)

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := s.dial(ctx, s.cfg.RelayURL)
		if err != nil {
			wait := bo.next()
			slog.Warn("subscriber: dial failed, will retry",
				"url", s.cfg.RelayURL,
				"err", err,
				"retry_in", wait)
			if !sleep(ctx, wait) {
				return
			}
			continue
		}

		slog.Info("subscriber: connected", "url", s.cfg.RelayURL)
		bo.reset()

		err = s.consume(ctx, conn)
		conn.Close()

		if ctx.Err() != nil {
			return
		}

		wait := bo.next()
		slog.Warn("subscriber: connection lost, will reconnect",
			"url", s.cfg.RelayURL,
			"err", err,
			"retry_in", wait)
		if !sleep(ctx, wait) {
			return
		}
	}
}

// consume reads events until the connection fails or ctx is cancelled.
func (s *Subscriber) consume(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("relay closed the connection: %w", err)
			}
			return fmt.Errorf("read: %w", err)
		}

		ev, err := decode(data)
		if err != nil {
			slog.Warn("subscriber: skipping message", "err", err)
			continue
		}
		s.sink.Handle(ev)
	}
}

// decode parses one relay message. A missing or null data field decodes as
// an empty list.
func decode(data []byte) (types.Event, error) {
	var ev types.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return types.Event{}, fmt.Errorf("decode: %w", err)
	}
	if !ev.Type.Valid() {
		return types.Event{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.Data == nil {
		ev.Data = []string{}
	}
	return ev, nil
}

func defaultDial(ctx context.Context, url string) (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	return conn, err
}

// sleep waits for d and reports false if ctx was cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
