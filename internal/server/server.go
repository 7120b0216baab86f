// Package server exposes the gateway over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"

	"github.com/triage-ai/querygate/internal/auth"
	"github.com/triage-ai/querygate/internal/database"
	"github.com/triage-ai/querygate/internal/engine"
	"github.com/triage-ai/querygate/internal/mgmtapi"
	"github.com/triage-ai/querygate/internal/safety"
	"github.com/triage-ai/querygate/internal/storage"
	"github.com/triage-ai/querygate/internal/validator"
)

const maxBodyBytes = 1 << 20

// Server routes gateway requests to the query and API managers. Surfaces
// without a configured backend are left nil and report 404.
type Server struct {
	queries *engine.QueryManager
	api     *engine.APIManager
	safety  *safety.Manager
	writer  storage.EventWriter
	auth    auth.Authenticator
	logger  *zap.Logger
}

func New(
	queries *engine.QueryManager,
	api *engine.APIManager,
	safetyMgr *safety.Manager,
	writer storage.EventWriter,
	authenticator auth.Authenticator,
	logger *zap.Logger,
) *Server {
	return &Server{
		queries: queries,
		api:     api,
		safety:  safetyMgr,
		writer:  writer,
		auth:    authenticator,
		logger:  logger,
	}
}

// Handler builds the route table. All /v1 routes pass through the
// authentication middleware; /healthz does not.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.Handle("POST /v1/database/query", s.authenticated(s.handleDatabaseQuery))
	mux.Handle("POST /v1/database/confirm", s.authenticated(s.handleDatabaseConfirm))
	mux.Handle("POST /v1/api/request", s.authenticated(s.handleAPIRequest))
	mux.Handle("POST /v1/api/confirm", s.authenticated(s.handleAPIConfirm))
	mux.Handle("GET /v1/mode", s.authenticated(s.handleGetMode))
	mux.Handle("POST /v1/mode", s.authenticated(s.handleSetMode))
	mux.Handle("GET /v1/safety-rules", s.authenticated(s.handleSafetyRules))

	return mux
}

func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if err := s.auth.Authenticate(token); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		next(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleDatabaseQuery(w http.ResponseWriter, r *http.Request) {
	if s.queries == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "database surface is not configured"})
		return
	}

	var req struct {
		Query         string `json:"query"`
		MigrationName string `json:"migration_name"`
	}
	if !s.readBody(w, r, databaseQueryValidator, &req) {
		return
	}

	result, err := s.queries.HandleQuery(r.Context(), req.Query, false, req.MigrationName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDatabaseConfirm(w http.ResponseWriter, r *http.Request) {
	if s.queries == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "database surface is not configured"})
		return
	}

	var req struct {
		ConfirmationID string `json:"confirmation_id"`
	}
	if !s.readBody(w, r, confirmValidator, &req) {
		return
	}

	result, err := s.queries.HandleConfirmation(r.Context(), req.ConfirmationID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAPIRequest(w http.ResponseWriter, r *http.Request) {
	if s.api == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "api surface is not configured"})
		return
	}

	var req struct {
		Method string            `json:"method"`
		Path   string            `json:"path"`
		Query  map[string]string `json:"query"`
		Body   map[string]any    `json:"body"`
	}
	if !s.readBody(w, r, apiRequestValidator, &req) {
		return
	}

	result, err := s.api.HandleRequest(r.Context(), req.Method, req.Path, req.Query, req.Body, false)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (s *Server) handleAPIConfirm(w http.ResponseWriter, r *http.Request) {
	if s.api == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "api surface is not configured"})
		return
	}

	var req struct {
		ConfirmationID string `json:"confirmation_id"`
	}
	if !s.readBody(w, r, confirmValidator, &req) {
		return
	}

	result, err := s.api.HandleConfirmation(r.Context(), req.ConfirmationID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (s *Server) handleGetMode(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"database": string(s.safety.Mode(safety.SurfaceDatabase)),
		"api":      string(s.safety.Mode(safety.SurfaceAPI)),
	})
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Surface string `json:"surface"`
		Mode    string `json:"mode"`
	}
	if !s.readBody(w, r, modeUpdateValidator, &req) {
		return
	}

	surface := safety.Surface(req.Surface)
	mode := safety.Mode(req.Mode)
	s.safety.SetMode(surface, mode)

	if s.writer != nil {
		s.writer.Write(&storage.DecisionEvent{
			RequestID: uuid.NewString(),
			Timestamp: time.Now().UTC(),
			Surface:   string(surface),
			Kind:      "mode_change",
			Operation: "set mode to " + string(mode),
			Mode:      string(mode),
			Verdict:   "allowed",
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"surface": string(surface),
		"mode":    string(mode),
	})
}

func (s *Server) handleSafetyRules(w http.ResponseWriter, _ *http.Request) {
	resp := make(map[string]any, 2)
	if s.queries != nil {
		resp["database"] = s.queries.SafetyRules()
	}
	if s.api != nil {
		resp["api"] = s.api.SafetyRules()
	}
	writeJSON(w, http.StatusOK, resp)
}

// readBody decodes and schema-validates the request body into dst. On failure
// it writes the 400 response itself and returns false.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request, sch *jsonschema.Schema, dst any) bool {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "failed to read request body"})
		return false
	}
	if err := decodeBody(raw, sch, dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return false
	}
	return true
}

// writeError maps domain errors onto HTTP statuses. Confirmation demands are
// not failures from the caller's point of view, so they carry the id needed
// to complete the operation.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		confirmErr    *safety.ConfirmationRequiredError
		notAllowed    *safety.OperationNotAllowedError
		safetyErr     *safety.Error
		validationErr *validator.ValidationError
		permErr       *database.PermissionError
		dbConnErr     *database.ConnectionError
		queryErr      *database.QueryError
		apiConnErr    *mgmtapi.ConnectionError
		respErr       *mgmtapi.ResponseError
		malformedErr  *mgmtapi.MalformedResponseError
	)

	switch {
	case errors.As(err, &confirmErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":           confirmErr.Error(),
			"confirmation_id": confirmErr.ConfirmationID,
			"risk":            confirmErr.Risk.String(),
		})
	case errors.As(err, &notAllowed):
		writeJSON(w, http.StatusForbidden, map[string]any{"error": notAllowed.Error()})
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": validationErr.Error()})
	case errors.As(err, &safetyErr):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": safetyErr.Error()})
	case errors.As(err, &permErr):
		writeJSON(w, http.StatusForbidden, map[string]any{"error": permErr.Error()})
	case errors.As(err, &dbConnErr), errors.As(err, &apiConnErr):
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
	case errors.As(err, &queryErr), errors.As(err, &malformedErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	case errors.As(err, &respErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":           respErr.Error(),
			"upstream_status": respErr.StatusCode,
			"upstream_body":   respErr.Body,
		})
	default:
		s.logger.Error("unhandled request error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
