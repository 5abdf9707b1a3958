package tenantcontext

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/stockroute-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/stockroute-backend/pkg/errors"
)

// ResolveTenantID returns the tenant established by middleware.TenantContext.
func ResolveTenantID(r *http.Request) (uuid.UUID, error) {
	tenantID := middleware.TenantIDFromContext(r.Context())
	if tenantID == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant context required")
	}
	id, err := uuid.Parse(tenantID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tenant id")
	}
	return id, nil
}

// PathUUID parses a chi URL parameter as a UUID.
func PathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, param+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}
