package inventory

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroute-backend/api/controllers/tenantcontext"
	"github.com/angelmondragon/stockroute-backend/api/middleware"
	"github.com/angelmondragon/stockroute-backend/api/responses"
	"github.com/angelmondragon/stockroute-backend/api/validators"
	internalinventory "github.com/angelmondragon/stockroute-backend/internal/inventory"
	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroute-backend/pkg/errors"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
	"github.com/angelmondragon/stockroute-backend/pkg/pagination"
	"github.com/angelmondragon/stockroute-backend/pkg/types"
)

type createSKURequest struct {
	Name             string          `json:"name" validate:"required,max=255"`
	SKUCode          *string         `json:"sku_code" validate:"omitempty,max=100"`
	Category         string          `json:"category" validate:"required,max=100"`
	Attributes       map[string]any  `json:"attributes"`
	Barcode          *string         `json:"barcode" validate:"omitempty,max=100"`
	Price            decimal.Decimal `json:"price"`
	SupplierID       *uuid.UUID      `json:"supplier_id"`
	StockLevel       int             `json:"stock_level"`
	TrackBatches     bool            `json:"track_batches"`
	ReorderThreshold *int            `json:"reorder_threshold" validate:"omitempty,gte=0"`
}

func (r createSKURequest) toInput() internalinventory.CreateSKUInput {
	return internalinventory.CreateSKUInput{
		Name:             strings.TrimSpace(r.Name),
		SKUCode:          trimmed(r.SKUCode),
		Category:         strings.TrimSpace(r.Category),
		Attributes:       r.Attributes,
		Barcode:          trimmed(r.Barcode),
		Price:            r.Price,
		SupplierID:       r.SupplierID,
		StockLevel:       r.StockLevel,
		TrackBatches:     r.TrackBatches,
		ReorderThreshold: r.ReorderThreshold,
	}
}

type updateSKURequest struct {
	Name             *string            `json:"name" validate:"omitempty,min=1,max=255"`
	SKUCode          *string            `json:"sku_code" validate:"omitempty,max=100"`
	Category         *string            `json:"category" validate:"omitempty,min=1,max=100"`
	Attributes       *map[string]any    `json:"attributes"`
	Barcode          *string            `json:"barcode" validate:"omitempty,max=100"`
	Price            *decimal.Decimal   `json:"price"`
	SupplierID       types.NullableUUID `json:"supplier_id"`
	TrackBatches     *bool              `json:"track_batches"`
	ReorderThreshold types.NullableInt  `json:"reorder_threshold"`
}

func (r updateSKURequest) toInput() internalinventory.UpdateSKUInput {
	return internalinventory.UpdateSKUInput{
		Name:             trimmed(r.Name),
		SKUCode:          trimmed(r.SKUCode),
		Category:         trimmed(r.Category),
		Attributes:       r.Attributes,
		Barcode:          trimmed(r.Barcode),
		Price:            r.Price,
		SupplierID:       r.SupplierID,
		TrackBatches:     r.TrackBatches,
		ReorderThreshold: r.ReorderThreshold,
	}
}

type adjustStockRequest struct {
	Quantity  int        `json:"quantity" validate:"ne=0"`
	Reason    string     `json:"reason" validate:"required,oneof=purchase sale return correction transfer"`
	BatchID   *uuid.UUID `json:"batch_id"`
	Reference *string    `json:"reference" validate:"omitempty,max=255"`
	Note      *string    `json:"note" validate:"omitempty,max=1000"`
}

type adjustStockResponse struct {
	SKU        *models.SKU             `json:"sku"`
	Adjustment *models.StockAdjustment `json:"adjustment"`
}

// CreateSKU onboards a SKU for the request tenant.
func CreateSKU(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createSKURequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sku, err := svc.CreateSKU(r.Context(), tenantID, middleware.ActorFromContext(r.Context()), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sku)
	}
}

// UpdateSKU applies descriptive and threshold changes. Stock level is not writable here.
func UpdateSKU(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload updateSKURequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sku, err := svc.UpdateSKU(r.Context(), tenantID, skuID, middleware.ActorFromContext(r.Context()), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sku)
	}
}

func GetSKU(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
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

		sku, err := svc.GetSKU(r.Context(), tenantID, skuID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sku)
	}
}

// ListSKUs supports category, supplier_id and low_stock filters.
func ListSKUs(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
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
		supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lowStock, err := validators.ParseQueryBool(r, "low_stock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := internalinventory.ListSKUsParams{
			TenantID:     tenantID,
			Category:     validators.SanitizeString(r.URL.Query().Get("category"), 100),
			SupplierID:   supplierID,
			LowStockOnly: lowStock != nil && *lowStock,
			Limit:        limit,
			Cursor:       strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		result, err := svc.ListSKUs(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdjustStock applies one signed stock movement and returns the updated SKU with its
// audit row.
func AdjustStock(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason, err := enums.ParseAdjustmentReason(payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reason"))
			return
		}

		input := internalinventory.AdjustStockInput{
			Quantity:  payload.Quantity,
			Reason:    reason,
			BatchID:   payload.BatchID,
			Reference: trimmed(payload.Reference),
			Note:      trimmed(payload.Note),
		}
		sku, adjustment, err := svc.AdjustStock(r.Context(), tenantID, skuID, input, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, adjustStockResponse{SKU: sku, Adjustment: adjustment})
	}
}

// ListAdjustments returns the stock adjustment audit trail, newest first.
func ListAdjustments(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
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
		skuID, err := validators.ParseQueryUUID(r, "sku_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason, err := validators.ParseQueryEnum(r, "reason", enums.ParseAdjustmentReason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListAdjustments(r.Context(), internalinventory.ListAdjustmentsParams{
			TenantID: tenantID,
			SKUID:    skuID,
			Reason:   reason,
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}
