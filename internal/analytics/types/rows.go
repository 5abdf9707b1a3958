package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// InventoryEventRow mirrors the inventory_events BigQuery schema.
type InventoryEventRow struct {
	EventID    string             `bigquery:"event_id"`
	EventType  string             `bigquery:"event_type"`
	OccurredAt time.Time          `bigquery:"occurred_at"`
	TenantID   string             `bigquery:"tenant_id"`
	ActorID    *string            `bigquery:"actor_id"`
	SKUID      string             `bigquery:"sku_id"`
	BatchID    *string            `bigquery:"batch_id"`
	AlertID    *string            `bigquery:"alert_id"`
	AlertType  *string            `bigquery:"alert_type"`
	Quantity   *int64             `bigquery:"quantity"`
	Reason     *string            `bigquery:"reason"`
	StockLevel *int64             `bigquery:"stock_level"`
	Threshold  *int64             `bigquery:"threshold"`
	ExpiryDate *time.Time         `bigquery:"expiry_date"`
	Payload    cbigquery.NullJSON `bigquery:"payload"`
}

// DispatchEventRow mirrors the dispatch_events BigQuery schema. Rider location samples
// share the table with lifecycle changes.
type DispatchEventRow struct {
	EventID         string             `bigquery:"event_id"`
	EventType       string             `bigquery:"event_type"`
	OccurredAt      time.Time          `bigquery:"occurred_at"`
	TenantID        string             `bigquery:"tenant_id"`
	ActorID         *string            `bigquery:"actor_id"`
	DispatchOrderID *string            `bigquery:"dispatch_order_id"`
	OrderID         *string            `bigquery:"order_id"`
	RiderID         *string            `bigquery:"rider_id"`
	FromStatus      *string            `bigquery:"from_status"`
	ToStatus        *string            `bigquery:"to_status"`
	Priority        *string            `bigquery:"priority"`
	ActualDuration  *int64             `bigquery:"actual_duration"`
	Latitude        *float64           `bigquery:"latitude"`
	Longitude       *float64           `bigquery:"longitude"`
	Payload         cbigquery.NullJSON `bigquery:"payload"`
}
