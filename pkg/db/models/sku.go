package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroute-backend/pkg/types"
)

// SKU is a stock keeping unit owned by a single tenant.
type SKU struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID         uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;index:idx_skus_tenant_category,priority:1;index:idx_skus_tenant_stock,priority:1" json:"tenant_id"`
	Name             string          `gorm:"column:name;type:text;not null" json:"name"`
	SKUCode          *string         `gorm:"column:sku_code;type:text;index" json:"sku_code"`
	Category         string          `gorm:"column:category;type:text;not null;index:idx_skus_tenant_category,priority:2" json:"category"`
	Attributes       types.JSONMap   `gorm:"column:attributes;type:jsonb;not null" json:"attributes"`
	Barcode          *string         `gorm:"column:barcode;type:text;index" json:"barcode"`
	Price            decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	SupplierID       *uuid.UUID      `gorm:"column:supplier_id;type:uuid" json:"supplier_id"`
	StockLevel       int             `gorm:"column:stock_level;not null;index:idx_skus_tenant_stock,priority:2" json:"stock_level"`
	TrackBatches     bool            `gorm:"column:track_batches;not null" json:"track_batches"`
	ReorderThreshold *int            `gorm:"column:reorder_threshold" json:"reorder_threshold"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (SKU) TableName() string { return "skus" }

func (s *SKU) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	if s.Attributes == nil {
		s.Attributes = types.JSONMap{}
	}
	return nil
}

// IsLowStock reports whether the current level sits at or below the reorder threshold.
func (s SKU) IsLowStock() bool {
	return s.ReorderThreshold != nil && s.StockLevel <= *s.ReorderThreshold
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
