package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/cookbook/internal/auth"
	"github.com/Kerhoff/cookbook/internal/events"
	"github.com/Kerhoff/cookbook/internal/repository"
	"github.com/Kerhoff/cookbook/internal/service"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server provides the HTTP API.
type Server struct {
	svc     *service.Service
	authn   *auth.Authenticator
	tokens  *auth.TokenIssuer
	events  events.Publisher
	metrics *Metrics
	db      Pinger
	logger  *logrus.Logger
	mux     *http.ServeMux
}

// Options carries the Server dependencies
type Options struct {
	Service       *service.Service
	Authenticator *auth.Authenticator
	Tokens        *auth.TokenIssuer
	Events        events.Publisher
	// Metrics may be nil, in which case requests are not measured
	Metrics *Metrics
	// DB may be nil when running without a database
	DB     Pinger
	Logger *logrus.Logger
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(opts Options) *Server {
	s := &Server{
		svc:     opts.Service,
		authn:   opts.Authenticator,
		tokens:  opts.Tokens,
		events:  opts.Events,
		metrics: opts.Metrics,
		db:      opts.DB,
		logger:  opts.Logger,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	if s.metrics == nil {
		return s.mux
	}
	return s.metrics.Middleware(s.mux)
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// API – Auth
	s.mux.HandleFunc("POST /api/auth/token", s.handleLogin)
	s.mux.HandleFunc("GET /api/users/self", s.authed(s.handleSelf))

	// API – Shopping lists
	s.mux.HandleFunc("GET /api/groups/shopping/lists", s.authed(s.handleGetListSummaries))
	s.mux.HandleFunc("POST /api/groups/shopping/lists", s.authed(createHandler(s, s.svc.Lists, listEvents)))
	s.mux.HandleFunc("GET /api/groups/shopping/lists/{id}", s.authed(getHandler(s, s.svc.Lists)))
	s.mux.HandleFunc("PUT /api/groups/shopping/lists/{id}", s.authed(updateHandler(s, s.svc.Lists, listEvents)))
	s.mux.HandleFunc("DELETE /api/groups/shopping/lists/{id}", s.authed(deleteHandler(s, s.svc.Lists, listEvents)))
	s.mux.HandleFunc("POST /api/groups/shopping/lists/{id}/recipe/{recipeId}", s.authed(s.handleAddRecipe))
	s.mux.HandleFunc("POST /api/groups/shopping/lists/{id}/recipe/{recipeId}/delete", s.authed(s.handleRemoveRecipe))

	// API – Shopping list items
	s.mux.HandleFunc("POST /api/groups/shopping/items/create-bulk", s.authed(s.handleCreateItems))
	s.mux.HandleFunc("POST /api/groups/shopping/items", s.authed(s.handleCreateItem))
	s.mux.HandleFunc("GET /api/groups/shopping/items/{id}", s.authed(s.handleGetItem))
	s.mux.HandleFunc("PUT /api/groups/shopping/items", s.authed(s.handleUpdateItems))
	s.mux.HandleFunc("PUT /api/groups/shopping/items/{id}", s.authed(s.handleUpdateItem))
	s.mux.HandleFunc("DELETE /api/groups/shopping/items", s.authed(s.handleDeleteItems))
	s.mux.HandleFunc("DELETE /api/groups/shopping/items/{id}", s.authed(s.handleDeleteItem))

	// API – Labels
	s.mux.HandleFunc("GET /api/groups/labels", s.authed(listHandler(s, s.svc.Labels)))
	s.mux.HandleFunc("POST /api/groups/labels", s.authed(createHandler(s, s.svc.Labels, labelEvents)))
	s.mux.HandleFunc("GET /api/groups/labels/{id}", s.authed(getHandler(s, s.svc.Labels)))
	s.mux.HandleFunc("PUT /api/groups/labels/{id}", s.authed(updateHandler(s, s.svc.Labels, labelEvents)))
	s.mux.HandleFunc("DELETE /api/groups/labels/{id}", s.authed(deleteHandler(s, s.svc.Labels, labelEvents)))

	// API – Recipes
	s.mux.HandleFunc("POST /api/recipes", s.authed(s.handleCreateRecipe))
	s.mux.HandleFunc("GET /api/recipes/{id}", s.authed(s.handleGetRecipe))
	s.mux.HandleFunc("POST /api/recipes/{id}/exports", s.authed(s.handleExportRecipe))
	s.mux.HandleFunc("GET /api/utils/download", s.handleDownload)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

type validationResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

// respondServiceError maps service and repository errors to HTTP statuses.
// Unexpected errors are logged and reported without detail.
func (s *Server) respondServiceError(w http.ResponseWriter, err error, action string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		s.respondJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Error:   "validation failed",
			Details: verr.Problems(),
		})
	case errors.Is(err, repository.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.WithError(err).Errorf("failed to %s", action)
		s.respondError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be omitted
func (s *Server) decodeOptionalJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return true, ""
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true, ""
	}
	return false, fmt.Sprintf("invalid JSON: %v", err)
}

// pathUUID extracts a path value and parses it as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing %s in path", name)
	}
	return uuid.Parse(raw)
}

// pagination reads the page and perPage query parameters
func pagination(r *http.Request) (repository.Pagination, error) {
	var p repository.Pagination
	q := r.URL.Query()
	if raw := q.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return p, fmt.Errorf("page must be a positive integer")
		}
		p.Page = v
	}
	if raw := q.Get("perPage"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return p, fmt.Errorf("perPage must be a positive integer")
		}
		p.PerPage = v
	}
	return p, nil
}

// queryUUIDs reads every value of a repeated or comma separated parameter
func queryUUIDs(r *http.Request, name string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, raw := range r.URL.Query()[name] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, fmt.Errorf("invalid id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type pageResponse[T any] struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Items   []T `json:"items"`
}

func newPage[T any](p repository.Pagination, items []T) pageResponse[T] {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return pageResponse[T]{Page: page, PerPage: p.Limit(), Items: items}
}

type messageResponse struct {
	Message string `json:"message"`
	Error   bool   `json:"error"`
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			s.logger.WithError(err).Warn("health check failed")
			s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
