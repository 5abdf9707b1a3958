package inventory

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroute-backend/api/controllers/tenantcontext"
	"github.com/angelmondragon/stockroute-backend/api/middleware"
	"github.com/angelmondragon/stockroute-backend/api/responses"
	"github.com/angelmondragon/stockroute-backend/api/validators"
	internalinventory "github.com/angelmondragon/stockroute-backend/internal/inventory"
	"github.com/angelmondragon/stockroute-backend/pkg/config"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
	"github.com/angelmondragon/stockroute-backend/pkg/pagination"
)

const maxExpiryLookaheadDays = 365

type createBatchRequest struct {
	BatchNumber       string          `json:"batch_number" validate:"required,max=100"`
	Quantity          int             `json:"quantity" validate:"gte=0"`
	RemainingQuantity *int            `json:"remaining_quantity"`
	ReceivedAt        *string         `json:"received_at"`
	ExpiryDate        *string         `json:"expiry_date"`
	CostPrice         decimal.Decimal `json:"cost_price"`
}

type updateBatchRequest struct {
	BatchNumber *string          `json:"batch_number" validate:"omitempty,min=1,max=100"`
	ReceivedAt  *string          `json:"received_at"`
	ExpiryDate  *string          `json:"expiry_date"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
}

// CreateBatch records a received lot for a batch-tracked SKU.
func CreateBatch(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skuID, err := tenantcontext.PathUUID(r, "skuID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		receivedAt, err := validators.ParseDate(payload.ReceivedAt, "received_at")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		expiryDate, err := validators.ParseDate(payload.ExpiryDate, "expiry_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batch, err := svc.CreateBatch(r.Context(), tenantID, middleware.ActorFromContext(r.Context()), internalinventory.CreateBatchInput{
			SKUID:             skuID,
			BatchNumber:       strings.TrimSpace(payload.BatchNumber),
			Quantity:          payload.Quantity,
			RemainingQuantity: payload.RemainingQuantity,
			ReceivedAt:        receivedAt,
			ExpiryDate:        expiryDate,
			CostPrice:         payload.CostPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, batch)
	}
}

// UpdateBatch changes batch metadata; quantities move only through stock adjustments.
func UpdateBatch(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		batchID, err := tenantcontext.PathUUID(r, "batchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		receivedAt, err := validators.ParseDate(payload.ReceivedAt, "received_at")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		expiryDate, err := validators.ParseDate(payload.ExpiryDate, "expiry_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batch, err := svc.UpdateBatch(r.Context(), tenantID, batchID, middleware.ActorFromContext(r.Context()), internalinventory.UpdateBatchInput{
			BatchNumber: trimmed(payload.BatchNumber),
			ReceivedAt:  receivedAt,
			ExpiryDate:  expiryDate,
			CostPrice:   payload.CostPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batch)
	}
}

// ListSKUBatches lists one SKU's batches, optionally only those expiring within
// expiring_within_days.
func ListSKUBatches(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skuID, err := tenantcontext.PathUUID(r, "skuID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		days, err := validators.ParseQueryInt(r, "expiring_within_days", 0, 0, maxExpiryLookaheadDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListBatches(r.Context(), internalinventory.ListBatchesParams{
			TenantID:           tenantID,
			SKUID:              &skuID,
			ExpiringWithinDays: days,
			Limit:              limit,
			Cursor:             strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListExpiringBatches lists the tenant's batches expiring within days (default: the
// configured alert window).
func ListExpiringBatches(svc internalinventory.Service, cfg config.InventoryConfig, logg *logger.Logger) http.HandlerFunc {
	defaultDays := cfg.ExpiryWindowDays
	if defaultDays <= 0 {
		defaultDays = config.DefaultExpiryWindowDays
	}
	return func(w http.ResponseWriter, r *http.Request) {
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
		days, err := validators.ParseQueryInt(r, "days", defaultDays, 1, maxExpiryLookaheadDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListBatches(r.Context(), internalinventory.ListBatchesParams{
			TenantID:           tenantID,
			ExpiringWithinDays: days,
			Limit:              limit,
			Cursor:             strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
