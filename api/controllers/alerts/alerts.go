package alerts

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockroute-backend/api/controllers/tenantcontext"
	"github.com/angelmondragon/stockroute-backend/api/middleware"
	"github.com/angelmondragon/stockroute-backend/api/responses"
	"github.com/angelmondragon/stockroute-backend/api/validators"
	internalalerts "github.com/angelmondragon/stockroute-backend/internal/alerts"
	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroute-backend/pkg/errors"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
	"github.com/angelmondragon/stockroute-backend/pkg/pagination"
)

// Service is the alert surface exposed over HTTP; *alerts.Engine satisfies it.
type Service interface {
	Get(ctx context.Context, tenantID, alertID uuid.UUID) (*models.Alert, error)
	List(ctx context.Context, params internalalerts.ListParams) (*internalalerts.ListResult, error)
	Acknowledge(ctx context.Context, tenantID, alertID uuid.UUID, actorID *uuid.UUID) (*models.Alert, error)
}

// List returns alerts filtered by sku_id, type and acknowledged.
func List(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
			return
		}
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skuID, err := validators.ParseQueryUUID(r, "sku_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		alertType, err := validators.ParseQueryEnum(r, "type", enums.ParseAlertType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		acknowledged, err := validators.ParseQueryBool(r, "acknowledged")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), internalalerts.ListParams{
			TenantID:     tenantID,
			SKUID:        skuID,
			Type:         alertType,
			Acknowledged: acknowledged,
			Limit:        limit,
			Cursor:       strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func Get(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		alertID, err := tenantcontext.PathUUID(r, "alertID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		alert, err := svc.Get(r.Context(), tenantID, alertID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, alert)
	}
}

// Acknowledge marks the alert handled by the calling actor. Repeated calls keep the first
// acknowledgement.
func Acknowledge(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		alertID, err := tenantcontext.PathUUID(r, "alertID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		alert, err := svc.Acknowledge(r.Context(), tenantID, alertID, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, alert)
	}
}
