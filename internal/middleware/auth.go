// Package middleware provides the HTTP middleware chain for the platform.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/webatelier/platform/internal/auth"
	"github.com/webatelier/platform/internal/errors"
	"github.com/webatelier/platform/internal/httputil"
	"github.com/webatelier/platform/internal/logging"
)

// TokenRevoker reports whether a token ID has been revoked by logout.
type TokenRevoker interface {
	IsTokenRevoked(ctx context.Context, tokenID string) bool
}

// AuthMiddleware authenticates requests with a bearer JWT.
type AuthMiddleware struct {
	issuer       *auth.TokenIssuer
	revoker      TokenRevoker
	logger       *logging.Logger
	skipPaths    map[string]bool
	skipPrefixes []string
}

// NewAuthMiddleware creates the authentication middleware. Requests to
// skipPaths (exact) and skipPrefixes pass through unauthenticated. revoker
// may be nil when no revocation store is configured.
func NewAuthMiddleware(issuer *auth.TokenIssuer, revoker TokenRevoker, logger *logging.Logger, skipPaths, skipPrefixes []string) *AuthMiddleware {
	if logger == nil {
		logger = logging.NewDefault("auth")
	}
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &AuthMiddleware{
		issuer:       issuer,
		revoker:      revoker,
		logger:       logger,
		skipPaths:    skip,
		skipPrefixes: skipPrefixes,
	}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		for _, prefix := range m.skipPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondError(w, r, errors.Unauthorized("Missing Authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			m.respondError(w, r, errors.Unauthorized("Invalid Authorization header format"))
			return
		}

		claims, err := m.issuer.Validate(parts[1])
		if err != nil {
			m.logger.WithContext(r.Context()).WithError(err).Warn("token validation failed")
			m.respondError(w, r, err)
			return
		}

		if m.revoker != nil && claims.ID != "" && m.revoker.IsTokenRevoked(r.Context(), claims.ID) {
			m.respondError(w, r, errors.InvalidToken(nil).WithDetails("reason", "token revoked"))
			return
		}

		ctx := logging.WithUserID(r.Context(), claims.UserID)
		if claims.Role != "" {
			ctx = logging.WithRole(ctx, claims.Role)
		}
		ctx = logging.WithTokenID(ctx, claims.ID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Internal("Authentication failed", err)
	}

	httputil.WriteErrorResponse(w, r, serviceErr.HTTPStatus, string(serviceErr.Code), serviceErr.Message, serviceErr.Details)

	m.logger.WithContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": serviceErr.HTTPStatus,
	}).Warn("authentication failed")
}

// GetUserID extracts the authenticated user ID from context.
func GetUserID(ctx context.Context) string {
	return logging.GetUserID(ctx)
}

// GetUserRole extracts the authenticated user role from context.
func GetUserRole(ctx context.Context) string {
	return logging.GetRole(ctx)
}

// RequireUserID rejects requests without an authenticated user.
func RequireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == "" {
			httputil.Unauthorized(w, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests whose authenticated role is not in roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUserID(r.Context()) == "" {
				httputil.Unauthorized(w, "")
				return
			}
			if !allowed[GetUserRole(r.Context())] {
				httputil.WriteError(w, r, errors.Forbidden(""))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
