package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateSKU           OutboxAggregateType = "sku"
	AggregateBatch         OutboxAggregateType = "batch"
	AggregateAlert         OutboxAggregateType = "alert"
	AggregateRider         OutboxAggregateType = "rider"
	AggregateDispatchOrder OutboxAggregateType = "dispatch_order"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateSKU,
	AggregateBatch,
	AggregateAlert,
	AggregateRider,
	AggregateDispatchOrder,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventSKUCreated                OutboxEventType = "sku_created"
	EventStockAdjusted             OutboxEventType = "stock_adjusted"
	EventBatchReceived             OutboxEventType = "batch_received"
	EventAlertRaised               OutboxEventType = "alert_raised"
	EventAlertAcknowledged         OutboxEventType = "alert_acknowledged"
	EventRiderLocationUpdated      OutboxEventType = "rider_location_updated"
	EventDispatchOrderCreated      OutboxEventType = "dispatch_order_created"
	EventDispatchOrderStateChanged OutboxEventType = "dispatch_order_state_changed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventSKUCreated,
	EventStockAdjusted,
	EventBatchReceived,
	EventAlertRaised,
	EventAlertAcknowledged,
	EventRiderLocationUpdated,
	EventDispatchOrderCreated,
	EventDispatchOrderStateChanged,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
