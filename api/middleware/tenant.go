package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockroute-backend/api/responses"
	pkgerrors "github.com/angelmondragon/stockroute-backend/pkg/errors"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
)

const TenantHeader = "X-Tenant-ID"

// TenantContext resolves the X-Tenant-ID header. When the bearer token carried a tenant
// claim the two must agree. Must run after Auth.
func TenantContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(TenantHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Tenant-ID header required"))
				return
			}
			tenantID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "X-Tenant-ID must be a UUID"))
				return
			}

			if claimed := tokenTenantFromContext(r.Context()); claimed != "" && claimed != tenantID.String() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "tenant does not match token"))
				return
			}

			ctx := WithTenantID(r.Context(), tenantID.String())
			if logg != nil {
				ctx = logg.WithTenantID(ctx, tenantID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
