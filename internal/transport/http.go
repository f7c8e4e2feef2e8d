package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/phaseboard/internal/auth"
)

// Dispatcher handles JSON-RPC method dispatch for an authenticated principal.
type Dispatcher interface {
	Handle(ctx context.Context, principal auth.Principal, method string, params json.RawMessage) (any, error)
}

// Options configures the HTTP router.
type Options struct {
	// Auth resolves the principal of /rpc requests. Nil leaves requests
	// unauthenticated and they are rejected.
	Auth func(http.Handler) http.Handler
	// MCP, when set, is mounted at /mcp. It authenticates on its own.
	MCP    http.Handler
	Logger *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler Dispatcher
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(handler Dispatcher, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	srv := &Server{handler: handler, logger: logger}

	r.Get("/health", srv.handleHealth)
	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Post("/rpc", srv.handleRPC)
	})
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		if errors.Is(err, errParse) {
			WriteError(w, nil, ErrParseCode, "parse error", nil)
			return
		}
		WriteError(w, nil, ErrInvalidReq, "invalid request", nil)
		return
	}

	principal, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant", http.StatusUnauthorized)
		return
	}

	result, err := s.handler.Handle(r.Context(), principal, req.Method, req.Params)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if writeDomainError(w, req.ID, err) {
			return
		}
		s.logger.Error("rpc failed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", req.Method,
			"tenant_id", principal.TenantID,
			"error", err,
		)
		WriteError(w, req.ID, ErrInternal, "internal error", nil)
		return
	}

	WriteResult(w, req.ID, result)
}
