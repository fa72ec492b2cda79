// Package httpapi exposes the authentication core over HTTP. It owns the
// request/response mapping and the translation of the error taxonomy into
// status codes; all authentication decisions stay in the core.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	tokenauth "github.com/nvasko/tokenauth"
	"github.com/nvasko/tokenauth/middleware"
	"github.com/nvasko/tokenauth/token"
)

// Server bundles the handlers for the auth endpoints.
type Server struct {
	auth    *tokenauth.AuthService
	log     *zap.Logger
	metrics http.Handler
}

// NewServer wires the HTTP surface. metricsHandler may be nil to disable
// the /metrics endpoint.
func NewServer(auth *tokenauth.AuthService, log *zap.Logger, metricsHandler http.Handler) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: auth, log: log, metrics: metricsHandler}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Bearer(s.auth.Tokens()))
			r.Post("/logout-all", s.handleLogoutAll)
			r.Get("/me", s.handleMe)
		})
	})

	return r
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutAllRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type meResponse struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	IsStaff bool   `json:"is_staff"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	pair, err := s.auth.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeTaxonomyError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	if err := s.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		s.writeTaxonomyError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleLogoutAll bumps the caller's token version. When the request body
// carries the device's refresh token its jti is revoked too, so the
// presented credentials are fully dead rather than refresh-capable until
// natural expiry.
func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	payload, ok := middleware.PayloadFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req logoutAllRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := s.auth.LogoutAllDevices(r.Context(), payload.Subject); err != nil {
		s.writeTaxonomyError(w, r, err)
		return
	}

	if req.RefreshToken != "" {
		if err := s.auth.Logout(r.Context(), req.RefreshToken); err != nil &&
			!errors.Is(err, tokenauth.ErrRevokedToken) {
			s.writeTaxonomyError(w, r, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	payload, ok := middleware.PayloadFromContext(r.Context())
	if !ok || payload.Kind != token.KindAccess {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		Sub:     payload.Subject.String(),
		Email:   payload.Email,
		IsStaff: payload.IsStaff,
	})
}

func (s *Server) writeTaxonomyError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tokenauth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, tokenauth.ErrExpiredToken):
		writeError(w, http.StatusUnauthorized, "token has expired")
	case errors.Is(err, tokenauth.ErrRevokedToken):
		writeError(w, http.StatusUnauthorized, "token has been revoked")
	case errors.Is(err, tokenauth.ErrAuthenticationFailed):
		writeError(w, http.StatusUnauthorized, "authentication failed")
	case errors.Is(err, tokenauth.ErrServiceUnavailable):
		s.log.Error("revocation store unavailable",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		s.log.Error("unhandled auth error",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
