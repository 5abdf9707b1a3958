package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroute-backend/pkg/enums"
)

// StockAdjustment is the append-only audit record of a stock level change.
type StockAdjustment struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID              `gorm:"column:tenant_id;type:uuid;not null;index:idx_stock_adjustments_tenant_sku_created,priority:1" json:"tenant_id"`
	SKUID     uuid.UUID              `gorm:"column:sku_id;type:uuid;not null;index:idx_stock_adjustments_tenant_sku_created,priority:2" json:"sku_id"`
	Quantity  int                    `gorm:"column:quantity;not null" json:"quantity"`
	Reason    enums.AdjustmentReason `gorm:"column:reason;type:text;not null" json:"reason"`
	BatchID   *uuid.UUID             `gorm:"column:batch_id;type:uuid" json:"batch_id"`
	Reference *string                `gorm:"column:reference;type:text" json:"reference"`
	Note      *string                `gorm:"column:note;type:text" json:"note"`
	CreatedBy *uuid.UUID             `gorm:"column:created_by;type:uuid" json:"created_by"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime;index:idx_stock_adjustments_tenant_sku_created,priority:3" json:"created_at"`
}

func (StockAdjustment) TableName() string { return "stock_adjustments" }

func (a *StockAdjustment) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
