package types

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/stockroute-backend/pkg/enums"
)

// Envelope is a domain event as received from the Pub/Sub domain topic.
type Envelope struct {
	EventID       string                    `json:"event_id"`
	EventType     enums.OutboxEventType     `json:"event_type"`
	AggregateType enums.OutboxAggregateType `json:"aggregate_type"`
	AggregateID   string                    `json:"aggregate_id"`
	TenantID      string                    `json:"tenant_id"`
	ActorID       *string                   `json:"actor_id,omitempty"`
	Version       int                       `json:"version"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	Payload       json.RawMessage           `json:"payload"`
}
