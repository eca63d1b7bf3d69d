// Package server exposes the mirror service over HTTP: sync triggers, a
// stop endpoint, a status probe, and a websocket feed of progress events.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dbsmedya/accmirror/internal/config"
	"github.com/dbsmedya/accmirror/internal/logger"
	"github.com/dbsmedya/accmirror/internal/mirror"
	"github.com/dbsmedya/accmirror/internal/notify"
)

// Controller is the subset of the mirror service the HTTP layer drives.
type Controller interface {
	StartOrRunSync(ctx context.Context, src config.SourceConfig, dest config.DestinationConfig) (string, error)
	StopScheduler() (string, error)
	Status() mirror.ServiceStatus
}

// Server routes HTTP requests to a mirror controller.
type Server struct {
	controller Controller
	hub        *notify.Hub
	logger     *logger.Logger
	httpServer *http.Server
}

// New creates an HTTP server bound to addr. hub may be nil to disable the
// websocket feed.
func New(addr string, controller Controller, hub *notify.Hub, log *logger.Logger) (*Server, error) {
	if addr == "" {
		return nil, fmt.Errorf("listen address is empty")
	}
	if controller == nil {
		return nil, fmt.Errorf("controller is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	s := &Server{
		controller: controller,
		hub:        hub,
		logger:     log,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Routes builds the request mux. Exposed separately so tests can drive the
// handlers without a listening socket.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sync", s.handleSync)
	mux.HandleFunc("/api/stop", s.handleStop)
	mux.HandleFunc("/api/status", s.handleStatus)
	if s.hub != nil {
		mux.HandleFunc("/ws", s.hub.ServeWS)
	}
	return mux
}

// ListenAndServe blocks serving requests until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Infow("HTTP server listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and closes the websocket hub.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

// syncRequest optionally overrides the configured connection info for this
// trigger. All fields may be omitted.
type syncRequest struct {
	Source      config.SourceConfig      `json:"source"`
	Destination config.DestinationConfig `json:"destination"`
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req syncRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
	}

	msg, err := s.controller.StartOrRunSync(r.Context(), req.Source, req.Destination)
	if err != nil {
		s.logger.Errorw("Sync trigger failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: msg})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	msg, err := s.controller.StopScheduler()
	if err != nil {
		s.logger.Errorw("Stop failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	s.writeJSON(w, http.StatusOK, s.controller.Status())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Errorw("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, apiResponse{Success: false, Message: msg})
}
