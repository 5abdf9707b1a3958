package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	"github.com/angelmondragon/stockroute-backend/pkg/types"
)

// DispatchOrder is the delivery leg of an external order.
type DispatchOrder struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID          uuid.UUID              `gorm:"column:tenant_id;type:uuid;not null;index:idx_dispatch_orders_tenant_status,priority:1;index:idx_dispatch_orders_tenant_rider_status,priority:1" json:"tenant_id"`
	OrderID           uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	RiderID           *uuid.UUID             `gorm:"column:rider_id;type:uuid;index:idx_dispatch_orders_tenant_rider_status,priority:2" json:"rider_id"`
	CustomerName      string                 `gorm:"column:customer_name;type:text;not null" json:"customer_name"`
	CustomerPhone     string                 `gorm:"column:customer_phone;type:text;not null" json:"customer_phone"`
	PickupAddress     string                 `gorm:"column:pickup_address;type:text;not null" json:"pickup_address"`
	DeliveryAddress   string                 `gorm:"column:delivery_address;type:text;not null" json:"delivery_address"`
	PickupLocation    *types.GeoPoint        `gorm:"column:pickup_location;type:jsonb" json:"pickup_location"`
	DeliveryLocation  *types.GeoPoint        `gorm:"column:delivery_location;type:jsonb" json:"delivery_location"`
	Status            enums.DispatchStatus   `gorm:"column:status;type:text;not null;index:idx_dispatch_orders_tenant_status,priority:2;index:idx_dispatch_orders_tenant_rider_status,priority:3" json:"status"`
	Priority          enums.DispatchPriority `gorm:"column:priority;type:text;not null" json:"priority"`
	EstimatedDuration *int                   `gorm:"column:estimated_duration" json:"estimated_duration"`
	ActualDuration    *int                   `gorm:"column:actual_duration" json:"actual_duration"`
	Distance          *decimal.Decimal       `gorm:"column:distance;type:numeric(10,2)" json:"distance"`
	Notes             *string                `gorm:"column:notes;type:text" json:"notes"`
	Metadata          types.JSONMap          `gorm:"column:metadata;type:jsonb;not null" json:"metadata"`
	AssignedAt        *time.Time             `gorm:"column:assigned_at" json:"assigned_at"`
	PickedUpAt        *time.Time             `gorm:"column:picked_up_at" json:"picked_up_at"`
	DeliveredAt       *time.Time             `gorm:"column:delivered_at" json:"delivered_at"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (DispatchOrder) TableName() string { return "dispatch_orders" }

func (o *DispatchOrder) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	if o.Status == "" {
		o.Status = enums.DispatchStatusPending
	}
	if o.Priority == "" {
		o.Priority = enums.DispatchPriorityMedium
	}
	if o.Metadata == nil {
		o.Metadata = types.JSONMap{}
	}
	return nil
}
