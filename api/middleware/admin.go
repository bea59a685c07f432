package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/indipaws/petstore-backend/api/responses"
	"github.com/indipaws/petstore-backend/pkg/config"
	pkgerrors "github.com/indipaws/petstore-backend/pkg/errors"
	"github.com/indipaws/petstore-backend/pkg/logger"
)

const adminKeyHeader = "X-Admin-Key"

// RequireAdminKey guards back-office routes with the shared admin key. An
// empty configured key means the admin surface is switched off.
func RequireAdminKey(cfg config.AdminConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.APIKey == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access disabled"))
				return
			}
			presented := strings.TrimSpace(r.Header.Get(adminKeyHeader))
			if subtle.ConstantTimeCompare([]byte(presented), []byte(cfg.APIKey)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
