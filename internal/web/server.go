package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"mma7660-service/internal/control"
	"mma7660-service/internal/events"
	"mma7660-service/internal/hardware/mma7660"
)

const (
	maxValueSize    = 64
	streamBuffer    = 64
	writeWait       = time.Second
	shutdownTimeout = 2 * time.Second
	consumerPrefix  = "ws:"
)

// Attributes interface for the control surface
type Attributes interface {
	Get(field string) (string, error)
	Set(field, value string) error
}

// Diagnostics interface for the stat dump
type Diagnostics interface {
	Dump() (string, error)
}

// Consumers interface for device reference counting
type Consumers interface {
	Acquire(consumer string)
	Release(consumer string)
}

// Stream provides batches to websocket clients
type Stream interface {
	Subscribe(buffer int) (<-chan events.Batch, func())
}

// Server is the HTTP control and diagnostic surface
type Server struct {
	addr      string
	attrs     Attributes
	diag      Diagnostics
	consumers Consumers
	stream    Stream
	log       *slog.Logger
	upgrader  websocket.Upgrader
}

// NewServer creates a new Server listening on addr
func NewServer(
	addr string,
	attrs Attributes,
	diag Diagnostics,
	consumers Consumers,
	stream Stream,
	log *slog.Logger,
) *Server {
	return &Server{
		addr:      addr,
		attrs:     attrs,
		diag:      diag,
		consumers: consumers,
		stream:    stream,
		log:       log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the request router
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /attributes", s.handleListAttributes)
	mux.HandleFunc("GET /attributes/{name}", s.handleGetAttribute)
	mux.HandleFunc("PUT /attributes/{name}", s.handleSetAttribute)
	mux.HandleFunc("GET /debug/stat", s.handleStat)
	mux.HandleFunc("GET /events", s.handleEvents)
	return mux
}

// Run serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.addr)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleListAttributes(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	for _, field := range control.Fields {
		value, err := s.attrs.Get(field)
		if err != nil {
			s.writeError(w, err)
			return
		}
		fmt.Fprintf(&b, "%s=%s\n", field, value)
	}
	writeText(w, b.String())
}

func (s *Server) handleGetAttribute(w http.ResponseWriter, r *http.Request) {
	value, err := s.attrs.Get(r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeText(w, value+"\n")
}

func (s *Server) handleSetAttribute(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxValueSize+1))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxValueSize {
		http.Error(w, "value too long", http.StatusRequestEntityTooLarge)
		return
	}

	if err := s.attrs.Set(name, string(body)); err != nil {
		s.log.Warn("attribute write rejected", "name", name, "value", string(body), "error", err)
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStat(w http.ResponseWriter, r *http.Request) {
	stat, err := s.diag.Dump()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeText(w, stat)
}

// handleEvents streams batches over a websocket. The connection holds a
// device reference for its whole lifetime.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	consumer := consumerPrefix + r.RemoteAddr
	s.consumers.Acquire(consumer)
	defer s.consumers.Release(consumer)

	batches, cancel := s.stream.Subscribe(streamBuffer)
	defer cancel()

	s.log.Info("event stream opened", "consumer", consumer)
	defer s.log.Info("event stream closed", "consumer", consumer)

	// the read side only detects the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Debug("websocket read error", "consumer", consumer, "error", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case b, ok := <-batches:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(b); err != nil {
				s.log.Debug("websocket write failed", "consumer", consumer, "error", err)
				return
			}
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		s.log.Error("request failed", "status", status, "error", err)
	}
	http.Error(w, err.Error(), status)
}

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, control.ErrUnknownField):
		return http.StatusNotFound
	case errors.Is(err, control.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, mma7660.ErrBus), errors.Is(err, mma7660.ErrDeviceBusyTimeout):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, body)
}
