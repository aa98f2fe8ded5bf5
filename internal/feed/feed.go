// Package feed exposes session state and lifecycle events over HTTP and a
// websocket for external widgets.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	fiberWS "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rbright/ghostkeys/internal/events"
	"github.com/rbright/ghostkeys/internal/fsm"
)

const subscriberBuffer = 64

// StateSource is the read side of the session controller.
type StateSource interface {
	Status() fsm.State
	Progress() events.Progress
	FileName() string
}

// Subscriber hands out event streams.
type Subscriber interface {
	Subscribe(buffer int) (<-chan events.Event, func())
}

// State is the body of GET /api/v1/state.
type State struct {
	Status   fsm.State       `json:"status"`
	Progress events.Progress `json:"progress"`
	File     string          `json:"file,omitempty"`
}

// Server serves the event feed.
type Server struct {
	app    *fiber.App
	source StateSource
	broker Subscriber
	logger *slog.Logger

	done     chan struct{}
	doneOnce sync.Once
}

// New wires the feed routes.
func New(source StateSource, broker Subscriber, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		source: source,
		broker: broker,
		logger: logger,
		done:   make(chan struct{}),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "ghostkeys",
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	v1 := s.app.Group("/api/v1")
	v1.Get("/state", s.state)

	ws := v1.Group("/ws")
	ws.Use(upgradeWall)
	ws.Get("/events", fiberWS.New(s.stream))
	return s
}

// ListenAndServe binds addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen feed %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("event feed listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(ln)
	}()

	select {
	case <-ctx.Done():
		s.doneOnce.Do(func() { close(s.done) })
		if err := s.app.ShutdownWithTimeout(2 * time.Second); err != nil {
			return fmt.Errorf("shutdown feed: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, net.ErrClosed) {
			return nil
		}
		return fmt.Errorf("serve feed: %w", err)
	}
}

func (s *Server) snapshot() State {
	return State{
		Status:   s.source.Status(),
		Progress: s.source.Progress(),
		File:     s.source.FileName(),
	}
}

func (s *Server) state(c *fiber.Ctx) error {
	return c.JSON(s.snapshot())
}

// stream sends the current state as a status event, then every event until
// the client disconnects or the server stops.
func (s *Server) stream(c *fiberWS.Conn) {
	feed, cancel := s.broker.Subscribe(subscriberBuffer)
	defer cancel()

	// The client never sends anything; reading detects disconnects.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	snap := s.snapshot()
	if err := s.write(c, events.Event{
		Kind:     events.KindStatus,
		Status:   snap.Status,
		Progress: &snap.Progress,
		At:       time.Now(),
	}); err != nil {
		return
	}

	for {
		select {
		case <-s.done:
			return
		case <-closed:
			return
		case ev, ok := <-feed:
			if !ok {
				return
			}
			if err := s.write(c, ev); err != nil {
				return
			}
		}
	}
}

func (s *Server) write(c *fiberWS.Conn, ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("encode feed event", "error", err.Error())
		return err
	}
	if err := c.WriteMessage(fiberWS.TextMessage, data); err != nil {
		s.logger.Debug("feed client write failed", "error", err.Error())
		return err
	}
	return nil
}

func upgradeWall(c *fiber.Ctx) error {
	if fiberWS.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.SendStatus(fiber.StatusUpgradeRequired)
}
