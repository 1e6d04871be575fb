// Package web serves the live scanner feed to browsers and scripts.
//
// Routes:
//
//	GET /events   Server-Sent Events, one event per emitted segment
//	GET /ws       WebSocket, the same events as JSON messages
//	GET /healthz  liveness probe
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"uwbmonitor/internal/hub"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// clientBuffer is the number of events queued per client before drops start.
const clientBuffer = 256

// Server exposes a hub over HTTP.
type Server struct {
	hub *hub.Hub
	log zerolog.Logger
	mux *http.ServeMux
}

// New creates a Server publishing events from h.
func New(h *hub.Hub, log zerolog.Logger) *Server {
	s := &Server{
		hub: h,
		log: log,
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /events", s.handleEvents)
	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Serve serves on ln until ctx is done, then shuts down gracefully. The
// caller opens ln so that a bad address fails before anything is read.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("web feed listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down web feed: %w", err)
		}
		return nil
	}
}

func (s *Server) subscribe() *hub.Client {
	client := hub.NewClient(uuid.NewString(), clientBuffer)
	s.hub.Register(client)
	return client
}

func (s *Server) unsubscribe(client *hub.Client) {
	s.hub.Unregister(client.ID)
	close(client.Done)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := s.subscribe()
	defer s.unsubscribe(client)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-client.Events:
			data, err := hub.FormatSSE(ev)
			if err != nil {
				s.log.Error().Err(err).Msg("failed to encode SSE event")
				continue
			}
			if _, err := w.Write(data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 8192,
	CheckOrigin: func(r *http.Request) bool {
		// Same-origin pages and non-browser clients only.
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	},
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("origin", r.Header.Get("Origin")).Msg("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	client := s.subscribe()
	defer s.unsubscribe(client)

	// The feed is one-way; reading only detects the peer going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-gone:
			return
		case ev := <-client.Events:
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Debug().Err(err).Str("client", client.ID).Msg("websocket write failed")
				return
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "ok %d\n", s.hub.Len())
}
