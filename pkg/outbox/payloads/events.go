package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockroute-backend/pkg/enums"
)

// SKUCreatedEvent announces a newly onboarded SKU.
type SKUCreatedEvent struct {
	SKUID            uuid.UUID `json:"sku_id"`
	Name             string    `json:"name"`
	Category         string    `json:"category"`
	StockLevel       int       `json:"stock_level"`
	ReorderThreshold *int      `json:"reorder_threshold,omitempty"`
	TrackBatches     bool      `json:"track_batches"`
}

// StockAdjustedEvent mirrors one StockAdjustment row plus the resulting levels.
type StockAdjustedEvent struct {
	AdjustmentID   uuid.UUID              `json:"adjustment_id"`
	SKUID          uuid.UUID              `json:"sku_id"`
	BatchID        *uuid.UUID             `json:"batch_id,omitempty"`
	Quantity       int                    `json:"quantity"`
	Reason         enums.AdjustmentReason `json:"reason"`
	Reference      *string                `json:"reference,omitempty"`
	StockLevel     int                    `json:"stock_level"`
	BatchRemaining *int                   `json:"batch_remaining,omitempty"`
	CreatedBy      *uuid.UUID             `json:"created_by,omitempty"`
}

// BatchReceivedEvent is emitted when a batch is recorded against a SKU.
type BatchReceivedEvent struct {
	BatchID     uuid.UUID  `json:"batch_id"`
	SKUID       uuid.UUID  `json:"sku_id"`
	BatchNumber string     `json:"batch_number"`
	Quantity    int        `json:"quantity"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
}

// AlertRaisedEvent is emitted when an alert row is created or re-armed.
type AlertRaisedEvent struct {
	AlertID      uuid.UUID       `json:"alert_id"`
	SKUID        uuid.UUID       `json:"sku_id"`
	Type         enums.AlertType `json:"type"`
	SKUName      string          `json:"sku_name"`
	CurrentStock int             `json:"current_stock"`
	Threshold    *int            `json:"threshold,omitempty"`
	Rearmed      bool            `json:"rearmed"`
}

// AlertAcknowledgedEvent is emitted the first time an alert is acknowledged.
type AlertAcknowledgedEvent struct {
	AlertID        uuid.UUID       `json:"alert_id"`
	SKUID          uuid.UUID       `json:"sku_id"`
	Type           enums.AlertType `json:"type"`
	AcknowledgedBy *uuid.UUID      `json:"acknowledged_by,omitempty"`
	AcknowledgedAt time.Time       `json:"acknowledged_at"`
}

// RiderLocationUpdatedEvent carries one position sample.
type RiderLocationUpdatedEvent struct {
	RiderID    uuid.UUID `json:"rider_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
}

// DispatchOrderCreatedEvent announces a new pending dispatch order.
type DispatchOrderCreatedEvent struct {
	DispatchOrderID   uuid.UUID              `json:"dispatch_order_id"`
	OrderID           uuid.UUID              `json:"order_id"`
	Priority          enums.DispatchPriority `json:"priority"`
	EstimatedDuration *int                   `json:"estimated_duration,omitempty"`
}

// DispatchOrderStateChangedEvent is emitted on every successful lifecycle transition.
type DispatchOrderStateChangedEvent struct {
	DispatchOrderID uuid.UUID              `json:"dispatch_order_id"`
	OrderID         uuid.UUID              `json:"order_id"`
	RiderID         *uuid.UUID             `json:"rider_id,omitempty"`
	FromStatus      enums.DispatchStatus   `json:"from_status"`
	ToStatus        enums.DispatchStatus   `json:"to_status"`
	Priority        enums.DispatchPriority `json:"priority"`
	ActualDuration  *int                   `json:"actual_duration,omitempty"`
	ChangedAt       time.Time              `json:"changed_at"`
}
