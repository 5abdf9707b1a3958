package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroute-backend/pkg/enums"
)

// Alert is the single inventory alert row for a (tenant, sku, type) key.
type Alert struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID       uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:ux_alerts_tenant_sku_type,priority:1" json:"tenant_id"`
	SKUID          uuid.UUID       `gorm:"column:sku_id;type:uuid;not null;uniqueIndex:ux_alerts_tenant_sku_type,priority:2" json:"sku_id"`
	Type           enums.AlertType `gorm:"column:type;type:text;not null;uniqueIndex:ux_alerts_tenant_sku_type,priority:3" json:"type"`
	SKUName        string          `gorm:"column:sku_name;type:text;not null" json:"sku_name"`
	CurrentStock   int             `gorm:"column:current_stock;not null" json:"current_stock"`
	Threshold      *int            `gorm:"column:threshold" json:"threshold"`
	Acknowledged   bool            `gorm:"column:acknowledged;not null" json:"acknowledged"`
	AcknowledgedBy *uuid.UUID      `gorm:"column:acknowledged_by;type:uuid" json:"acknowledged_by"`
	AcknowledgedAt *time.Time      `gorm:"column:acknowledged_at" json:"acknowledged_at"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Alert) TableName() string { return "alerts" }

func (a *Alert) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
