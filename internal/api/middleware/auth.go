package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Togather-Foundation/campus/internal/api/problem"
	"github.com/Togather-Foundation/campus/internal/auth"
	"github.com/Togather-Foundation/campus/internal/domain"
	"github.com/rs/zerolog"
)

// PrincipalResolver loads the current role and eligibility attributes for a
// token subject. users.Service satisfies it.
type PrincipalResolver interface {
	Principal(ctx context.Context, id int64) (*auth.Principal, error)
}

// OptionalAuth attaches a principal when the request carries a bearer token.
// Requests without an Authorization header pass through anonymously; a header
// that is present but malformed or invalid is rejected with 401.
func OptionalAuth(manager *auth.JWTManager, resolver PrincipalResolver, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			if manager == nil || resolver == nil {
				problem.FromError(w, r, domain.Unauthenticated("authentication is not configured"), env)
				return
			}

			token, err := auth.TokenFromHeader(header)
			if err != nil {
				problem.FromError(w, r, domain.Unauthenticated("invalid authorization format"), env)
				return
			}

			claims, err := manager.Validate(token)
			if err != nil {
				message := "invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					message = "token expired"
				}
				problem.FromError(w, r, domain.Unauthenticated(message), env)
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				problem.FromError(w, r, domain.Unauthenticated("invalid token subject"), env)
				return
			}

			principal, err := resolver.Principal(r.Context(), userID)
			if err != nil {
				problem.FromError(w, r, err, env)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), principal)
			logger := zerolog.Ctx(ctx).With().Int64("user_id", principal.ID).Str("role", string(principal.Role)).Logger()
			ctx = logger.WithContext(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.PrincipalFromContext(r.Context()) == nil {
				problem.FromError(w, r, domain.Unauthenticated("authentication required"), env)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
