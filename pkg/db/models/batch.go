package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Batch is a received lot of a batch-tracked SKU. Quantity is fixed at creation;
// RemainingQuantity moves only through stock adjustments.
type Batch struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID          uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;index:idx_batches_tenant_expiry,priority:1;index:idx_batches_tenant_sku_number,priority:1" json:"tenant_id"`
	SKUID             uuid.UUID       `gorm:"column:sku_id;type:uuid;not null;index:idx_batches_tenant_sku_number,priority:2" json:"sku_id"`
	BatchNumber       string          `gorm:"column:batch_number;type:text;not null;index:idx_batches_tenant_sku_number,priority:3" json:"batch_number"`
	Quantity          int             `gorm:"column:quantity;not null" json:"quantity"`
	RemainingQuantity int             `gorm:"column:remaining_quantity;not null" json:"remaining_quantity"`
	ReceivedAt        *time.Time      `gorm:"column:received_at;type:date" json:"received_at"`
	ExpiryDate        *time.Time      `gorm:"column:expiry_date;type:date;index:idx_batches_tenant_expiry,priority:2" json:"expiry_date"`
	CostPrice         decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2);not null" json:"cost_price"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Batch) TableName() string { return "batches" }

func (b *Batch) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}
