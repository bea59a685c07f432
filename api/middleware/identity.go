package middleware

import (
	"net/http"
	"strings"

	"github.com/indipaws/petstore-backend/api/responses"
	"github.com/indipaws/petstore-backend/api/validators"
	"github.com/indipaws/petstore-backend/pkg/config"
	pkgerrors "github.com/indipaws/petstore-backend/pkg/errors"
	"github.com/indipaws/petstore-backend/pkg/logger"
)

const sessionIDHeader = "X-Session-Id"

// Identity resolves who is calling: a bearer token wins, otherwise the
// anonymous cart session header is picked up. Requests with neither still
// pass; guards and controllers decide what identity they need.
func Identity(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if raw := strings.TrimSpace(r.Header.Get("Authorization")); raw != "" {
				claims, err := validators.ParseAccessToken(raw, cfg.Secret, cfg.Issuer)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				ctx = WithUser(ctx, claims.UserID, claims.Email)
				if logg != nil {
					ctx = logg.WithUserID(ctx, claims.UserID.String())
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if sessionID := strings.TrimSpace(r.Header.Get(sessionIDHeader)); sessionID != "" {
				ctx = WithSessionID(ctx, sessionID)
				if logg != nil {
					ctx = logg.WithSessionID(ctx, sessionID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests that did not authenticate with a bearer token.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserIDFromContext(r.Context()); !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
