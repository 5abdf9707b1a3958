package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroute-backend/pkg/enums"
)

// OutboxEvent is a domain event written in the same transaction as the state change
// that produced it, published asynchronously by the outbox publisher.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID      uuid.UUID                 `gorm:"column:tenant_id;type:uuid;not null" json:"tenant_id"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:text;not null" json:"event_type"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:text;not null" json:"aggregate_type"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null" json:"aggregate_id"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime;index:idx_outbox_events_unpublished,priority:2" json:"created_at"`
	PublishedAt   *time.Time                `gorm:"column:published_at;index:idx_outbox_events_unpublished,priority:1" json:"published_at"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null" json:"attempt_count"`
	LastError     *string                   `gorm:"column:last_error;type:text" json:"last_error"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }

func (e *OutboxEvent) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
