// Package server exposes the public generation endpoint and the health
// surface. Purely plumbing around the workflow coordinator.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"autosite/internal/common/config"
	apperrors "autosite/internal/common/errors"
	"autosite/internal/common/logger"
	"autosite/internal/common/validation"
	"autosite/internal/workflow"
)

// generateSchema validates the inbound webhook payload before any secret
// comparison happens.
const generateSchema = `{
	"type": "object",
	"required": ["email", "secret", "task", "brief"],
	"properties": {
		"email": {"type": "string", "pattern": "^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$"},
		"secret": {"type": "string", "minLength": 1},
		"task": {"type": "string", "minLength": 1, "maxLength": 200},
		"brief": {"type": "string", "minLength": 1},
		"round": {"type": "integer"},
		"nonce": {"type": "string"},
		"evaluation_url": {"type": "string"}
	},
	"additionalProperties": true
}`

type Server struct {
	cfg     *config.Config
	coord   *workflow.Coordinator
	queue   *workflow.Queue
	store   workflow.StatusStore
	schema  *validation.Schema
	logger  logger.Logger
	started time.Time
}

func New(cfg *config.Config, coord *workflow.Coordinator, queue *workflow.Queue, store workflow.StatusStore, log logger.Logger) (*Server, error) {
	schema, err := validation.CompileSchema(generateSchema)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:     cfg,
		coord:   coord,
		queue:   queue,
		store:   store,
		schema:  schema,
		logger:  log.With(map[string]interface{}{"component": "server"}),
		started: time.Now(),
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/workflows/", s.handleWorkflowByID)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", s.handleRoot)
	return s.logMiddleware(mux)
}

type generateRequest struct {
	Email         string `json:"email"`
	Secret        string `json:"secret"`
	Task          string `json:"task"`
	Brief         string `json:"brief"`
	Round         int    `json:"round"`
	Nonce         string `json:"nonce"`
	EvaluationURL string `json:"evaluation_url"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if result := s.schema.ValidateBytes(body); !result.Valid {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"status": "error",
			"reason": "invalid payload",
			"errors": result.GetErrorMessages(),
		})
		return
	}

	var req generateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	// The callback target becomes an outbound POST destination, so it must
	// be a well-formed http(s) URL before we accept it.
	if req.EvaluationURL != "" && !validation.ValidateURL(req.EvaluationURL) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"status": "error",
			"reason": "invalid payload",
			"errors": []string{"evaluation_url: must be an http(s) URL"},
		})
		return
	}

	// Config gate: mandatory secrets must be present before any workflow
	// is attempted.
	if s.cfg.Auth.SharedSecret == "" || s.cfg.GitHub.Token == "" {
		writeError(w, http.StatusInternalServerError, "server configuration error")
		return
	}
	if !s.cfg.GenerationReady() {
		writeError(w, http.StatusServiceUnavailable, "llm provider not configured")
		return
	}

	id, err := s.coord.Accept(workflow.Request{
		Email:       req.Email,
		Secret:      req.Secret,
		Task:        req.Task,
		Brief:       req.Brief,
		Round:       req.Round,
		Nonce:       req.Nonce,
		CallbackURL: req.EvaluationURL,
	})
	if err != nil {
		if apperrors.Code(err) == apperrors.ErrCodeAuthFailed {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"status": "error",
				"reason": "invalid secret",
			})
			return
		}
		if errors.Is(err, workflow.ErrQueueFull) || errors.Is(err, workflow.ErrQueueStopped) {
			writeError(w, http.StatusServiceUnavailable, "server busy")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"workflow_id": id,
	})
}

func (s *Server) handleWorkflowByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/workflows/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	status, ok, err := s.coord.Status(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "status store error")
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service":      s.cfg.App.Name,
		"status":       "running",
		"llm_provider": s.cfg.LLM.Provider,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	secrets := s.cfg.Secrets()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"github_token_set": secrets.GitHubTokenSet,
		"secret_key_set":   secrets.SharedSecretSet,
		"llm_provider":     secrets.LLMProvider,
		"llm_api_key_set":  secrets.LLMAPIKeySet,
		"store":            s.cfg.Store.Backend,
		"queue_depth":      s.queue.Depth(),
		"uptime":           time.Since(s.started).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.queue.Running() {
		writeError(w, http.StatusServiceUnavailable, "queue not running")
		return
	}
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "status store unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request handled", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(started).String(),
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]string{"status": "error", "reason": reason})
}
