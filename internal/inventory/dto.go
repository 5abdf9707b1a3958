package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	"github.com/angelmondragon/stockroute-backend/pkg/types"
)

// CreateSKUInput holds the validated payload to onboard a SKU.
type CreateSKUInput struct {
	Name             string
	SKUCode          *string
	Category         string
	Attributes       map[string]any
	Barcode          *string
	Price            decimal.Decimal
	SupplierID       *uuid.UUID
	StockLevel       int
	TrackBatches     bool
	ReorderThreshold *int
}

// UpdateSKUInput holds optional SKU changes. Stock level is not updatable here.
type UpdateSKUInput struct {
	Name             *string
	SKUCode          *string
	Category         *string
	Attributes       *map[string]any
	Barcode          *string
	Price            *decimal.Decimal
	SupplierID       types.NullableUUID
	TrackBatches     *bool
	ReorderThreshold types.NullableInt
}

// AdjustStockInput describes one signed stock movement.
type AdjustStockInput struct {
	Quantity  int
	Reason    enums.AdjustmentReason
	BatchID   *uuid.UUID
	Reference *string
	Note      *string
}

// CreateBatchInput records a received lot. RemainingQuantity defaults to Quantity.
type CreateBatchInput struct {
	SKUID             uuid.UUID
	BatchNumber       string
	Quantity          int
	RemainingQuantity *int
	ReceivedAt        *time.Time
	ExpiryDate        *time.Time
	CostPrice         decimal.Decimal
}

// UpdateBatchInput holds the mutable batch fields.
type UpdateBatchInput struct {
	BatchNumber *string
	ReceivedAt  *time.Time
	ExpiryDate  *time.Time
	CostPrice   *decimal.Decimal
}

// ListSKUsParams configures the SKU listing.
type ListSKUsParams struct {
	TenantID     uuid.UUID
	Category     string
	SupplierID   *uuid.UUID
	LowStockOnly bool
	Limit        int
	Cursor       string
}

// ListBatchesParams configures batch listings. ExpiringWithinDays of zero disables the
// expiry filter.
type ListBatchesParams struct {
	TenantID           uuid.UUID
	SKUID              *uuid.UUID
	ExpiringWithinDays int
	Limit              int
	Cursor             string
}

// ListAdjustmentsParams configures the adjustment audit listing.
type ListAdjustmentsParams struct {
	TenantID uuid.UUID
	SKUID    *uuid.UUID
	Reason   *enums.AdjustmentReason
	Limit    int
	Cursor   string
}

// SKUListResult wraps a page of SKUs.
type SKUListResult struct {
	Items  []models.SKU `json:"items"`
	Cursor string       `json:"cursor"`
}

// BatchListResult wraps a page of batches.
type BatchListResult struct {
	Items  []models.Batch `json:"items"`
	Cursor string         `json:"cursor"`
}

// AdjustmentListResult wraps a page of stock adjustments.
type AdjustmentListResult struct {
	Items  []models.StockAdjustment `json:"items"`
	Cursor string                   `json:"cursor"`
}
