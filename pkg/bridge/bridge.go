// Package bridge exposes the command surface over a local WebSocket so a
// game-side mod (or any client) can forward chat commands and render the
// replies. It also serves Prometheus metrics and a health probe.
//
// Each text frame from the client is a request:
//
//	{"id":"7","player":"Steve","command":"/ask how do I tame a fox?"}
//
// and every reply produced for it is sent back as
//
//	{"id":"7","level":"pending","text":"🤖 Thinking..."}
//
// Ask answers arrive asynchronously, possibly after replies to later
// requests; clients correlate them by id.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ftkevon/mineclanker/pkg/commands"
)

const (
	defaultAddr    = "127.0.0.1:8765"
	defaultPlayer  = "server"
	writeTimeout   = 5 * time.Second
	shutdownPeriod = 5 * time.Second
)

// Handler runs one command line; *commands.Dispatcher implements it.
type Handler interface {
	Handle(player, line string, sink commands.Sink)
}

// Request is an inbound frame.
type Request struct {
	ID      string `json:"id"`
	Player  string `json:"player"`
	Command string `json:"command"`
}

// Response is an outbound frame.
type Response struct {
	ID    string         `json:"id"`
	Level commands.Level `json:"level"`
	Text  string         `json:"text"`
}

// Options configures a Server.
type Options struct {
	Addr string // Listen address (default 127.0.0.1:8765).
	// Registry backs /metrics. Nil disables the endpoint.
	Registry *prometheus.Registry
	// OriginPatterns are extra host patterns allowed to open the socket from
	// a browser. Non-browser clients send no Origin and are always accepted.
	OriginPatterns []string
	Logger         *slog.Logger
}

// Server is the bridge HTTP server.
type Server struct {
	h    Handler
	opts Options
	log  *slog.Logger
	mux  *http.ServeMux
}

// New creates a Server that forwards commands to h.
func New(h Handler, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = defaultAddr
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		h:    h,
		opts: opts,
		log:  opts.Logger.With("component", "bridge"),
		mux:  http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	if opts.Registry != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	return s
}

// Handler returns the HTTP handler serving /ws, /healthz and /metrics.
func (s *Server) Handler() http.Handler { return s.mux }

// Run listens on Options.Addr until ctx is cancelled, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("bridge: listen %q: %w", s.opts.Addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	s.log.Info("bridge listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return fmt.Errorf("bridge: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("bridge: shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("bridge: serve: %w", err)
	}

	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.opts.OriginPatterns,
	})
	if err != nil {
		s.log.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.CloseNow() //nolint:errcheck // best effort after a normal close

	ctx := r.Context()
	log := s.log.With("remote", r.RemoteAddr)
	log.Info("client connected")

	for {
		var req Request
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				log.Info("client disconnected")
			} else {
				log.Warn("client read failed", "error", err)
			}
			return
		}

		player := strings.TrimSpace(req.Player)
		if player == "" {
			player = defaultPlayer
		}

		s.h.Handle(player, req.Command, &connSink{ctx: ctx, conn: conn, id: req.ID, log: log})
	}
}

// connSink writes replies for one request back over its connection. Writes
// after the client has gone fail fast and are only logged.
type connSink struct {
	ctx  context.Context
	conn *websocket.Conn
	id   string
	log  *slog.Logger
}

func (c *connSink) Send(r commands.Reply) {
	ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
	defer cancel()

	if err := wsjson.Write(ctx, c.conn, Response{ID: c.id, Level: r.Level, Text: r.Text}); err != nil {
		c.log.Debug("reply dropped", "id", c.id, "error", err)
	}
}
