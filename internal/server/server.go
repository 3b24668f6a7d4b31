// Package server hosts view surfaces over HTTP.
//
// Each registered view is reachable under /views/{view}/:
//
//	GET  events      Server-Sent Events stream of outbound messages
//	POST commands    one inbound command as JSON
//	POST visibility  {"visible": bool}
//	GET  state       the current panel state
//	GET  render      the rendered view model, for views that render
//
// A browser tab or webview opens the event stream to become the view's
// transport and closes it to go away; the controller itself outlives any
// single connection.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/ralphui/internal/channel"
	"github.com/Iron-Ham/ralphui/internal/errors"
	"github.com/Iron-Ham/ralphui/internal/logging"
	"github.com/Iron-Ham/ralphui/internal/panelstate"
	"github.com/Iron-Ham/ralphui/internal/view"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:7419"

// DefaultEventBuffer is the number of messages a connection may lag behind
// before deliveries to it fail.
const DefaultEventBuffer = 64

const (
	maxCommandBytes   = 1 << 20
	heartbeatInterval = 15 * time.Second
)

// Host is the part of a view controller the server drives.
type Host interface {
	Name() string
	HandleMessage(ctx context.Context, data []byte) error
	Attach(t channel.Transport) view.Result
	Detach(t channel.Transport)
	SetVisible(visible bool) view.Result
	PanelState() panelstate.State
	IsDisposed() bool
}

// Renderable is implemented by hosts that render their model as text.
type Renderable interface {
	Render() string
}

// Options configures a Server.
type Options struct {
	Addr        string
	EventBuffer int
	Logger      *logging.Logger
}

// Server exposes registered views over HTTP.
type Server struct {
	logger *logging.Logger
	buffer int
	server *http.Server

	mu    sync.RWMutex
	views map[string]Host

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Server serving hosts. Hosts are keyed by Name.
func New(opts Options, hosts ...Host) *Server {
	addr := opts.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	buffer := opts.EventBuffer
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		logger: logging.OrNop(opts.Logger).WithComponent("server"),
		buffer: buffer,
		views:  make(map[string]Host),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, h := range hosts {
		s.Register(h)
	}

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}
	return s
}

// Register adds or replaces the host served under its name.
func (s *Server) Register(h Host) {
	if h == nil {
		return
	}
	s.mu.Lock()
	s.views[h.Name()] = h
	s.mu.Unlock()
}

// Views lists the registered view names.
func (s *Server) Views() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.views))
	for name := range s.views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handler returns the HTTP handler for all routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /views", s.handleList)
	mux.HandleFunc("GET /views/{view}/events", s.handleEvents)
	mux.HandleFunc("POST /views/{view}/commands", s.handleCommand)
	mux.HandleFunc("POST /views/{view}/visibility", s.handleVisibility)
	mux.HandleFunc("GET /views/{view}/state", s.handleState)
	mux.HandleFunc("GET /views/{view}/render", s.handleRender)
	return mux
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start begins listening. It returns once the listener is bound; serving
// continues in a background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	s.server.Addr = ln.Addr().String()
	s.logger.Info("view server listening", "addr", s.server.Addr)

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("view server stopped", "error", err)
		}
	}()
	return nil
}

// Stop ends open event streams and shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (Host, bool) {
	name := r.PathValue("view")
	s.mu.RLock()
	h, ok := s.views[name]
	s.mu.RUnlock()
	if !ok {
		http.Error(w, fmt.Sprintf("unknown view %q", name), http.StatusNotFound)
		return nil, false
	}
	if h.IsDisposed() {
		http.Error(w, fmt.Sprintf("view %q is disposed", name), http.StatusGone)
		return nil, false
	}
	return h, true
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"views": s.Views()})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCommandBytes))
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	if err := h.HandleMessage(r.Context(), body); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req struct {
		Visible *bool `json:"visible"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxCommandBytes)).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Visible == nil {
		http.Error(w, `missing "visible"`, http.StatusBadRequest)
		return
	}

	if h.SetVisible(*req.Visible) == view.NoOp {
		http.Error(w, "view is disposed", http.StatusGone)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.PanelState())
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	rv, ok := h.(Renderable)
	if !ok {
		http.Error(w, fmt.Sprintf("view %q does not render", h.Name()), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, rv.Render())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	t := newSSETransport(uuid.NewString(), s.buffer)
	logger := s.logger.With("view", h.Name(), "conn", t.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Ralphui-Connection", t.id)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, ": connected %s\n\n", t.id)
	flusher.Flush()

	if h.Attach(t) == view.NoOp {
		return
	}
	defer h.Detach(t)
	logger.Info("view connected")
	defer logger.Info("view disconnected")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-t.events:
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.typ, ev.data); err != nil {
				logger.Debug("event stream write failed", "error", err)
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// statusFor maps a command handling error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrViewDisposed):
		return http.StatusGone
	case errors.Is(err, errors.ErrUnknownCommand), errors.Is(err, errors.ErrMalformedPayload):
		return http.StatusBadRequest
	case errors.GetSeverity(err) <= errors.SeverityWarning:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
