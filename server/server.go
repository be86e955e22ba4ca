// Package server exposes the bus over HTTP: a capability listing endpoint, a
// synchronous workflow endpoint and a WebSocket channel for interactive
// workflow execution.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/agentbus/bus"
	"github.com/hupe1980/agentbus/logging"
	"github.com/hupe1980/agentbus/workflow"
)

// Options configure the Server.
type Options struct {
	Logger logging.Logger
	// WorkflowTimeout bounds the wait for collected workflow results.
	WorkflowTimeout time.Duration
}

// Server is the HTTP/WebSocket front-end. It submits workflows to the
// coordinator under the caller ids "web" and "web_client" and collects
// results through correlated responses; the callers themselves are never
// registered as agents.
type Server struct {
	addr        string
	coordinator *bus.Coordinator
	logger      logging.Logger
	timeout     time.Duration
	upgrader    websocket.Upgrader
}

// New constructs a Server bound to the coordinator.
func New(addr string, coordinator *bus.Coordinator, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}, WorkflowTimeout: 60 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Server{
		addr:        addr,
		coordinator: coordinator,
		logger:      opts.Logger,
		timeout:     opts.WorkflowTimeout,
		upgrader:    websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
}

// Handler returns the HTTP routes. Exposed separately for httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/agents", s.handleAgents)
	mux.HandleFunc("/api/workflows", s.handleWorkflow)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start serves until the context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("web server listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

type agentInfo struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	agents := s.coordinator.Agents()
	infos := make([]agentInfo, 0, len(agents))
	for _, a := range agents {
		d := a.Descriptor()
		infos = append(infos, agentInfo{
			Name:         d.Name,
			Description:  d.Description,
			Version:      d.Version,
			Capabilities: d.Capabilities,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"agents": infos})
}

type workflowRequest struct {
	Steps []workflow.StepSpec `json:"steps"`
}

type workflowResponse struct {
	Status  string `json:"status"`
	Results []any  `json:"results,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleWorkflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req workflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	results, err := s.runWorkflow(r.Context(), req.Steps, "web")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, workflowResponse{Status: "error", Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, workflowResponse{Status: "success", Results: results})
}

// handleWebSocket executes one workflow per received frame and answers with
// the collected results, mirroring the POST endpoint for interactive clients.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var req workflowRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended: %v", err)
			}
			return
		}

		results, err := s.runWorkflow(r.Context(), req.Steps, "web_client")
		resp := workflowResponse{Status: "success", Results: results}
		if err != nil {
			resp = workflowResponse{Status: "error", Message: err.Error()}
		}

		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Debug("websocket write failed: %v", err)
			return
		}
	}
}

func (s *Server) runWorkflow(ctx context.Context, steps []workflow.StepSpec, sender string) ([]any, error) {
	spec := workflow.FileSpec{Steps: steps}
	if len(spec.Steps) == 0 {
		return nil, errors.New("workflow has no steps")
	}

	w, err := spec.Build(s.coordinator, sender)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return w.Collect(runCtx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
