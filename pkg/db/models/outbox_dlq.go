package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroute-backend/pkg/enums"
)

// OutboxDLQ keeps outbox events the publisher gave up on.
type OutboxDLQ struct {
	ID            uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventID       uuid.UUID                  `gorm:"column:event_id;type:uuid;not null;uniqueIndex" json:"event_id"`
	TenantID      uuid.UUID                  `gorm:"column:tenant_id;type:uuid;not null" json:"tenant_id"`
	EventType     enums.OutboxEventType      `gorm:"column:event_type;type:text;not null" json:"event_type"`
	AggregateType enums.OutboxAggregateType  `gorm:"column:aggregate_type;type:text;not null" json:"aggregate_type"`
	AggregateID   uuid.UUID                  `gorm:"column:aggregate_id;type:uuid;not null" json:"aggregate_id"`
	Payload       json.RawMessage            `gorm:"column:payload_json;type:jsonb;not null" json:"payload_json"`
	ErrorReason   enums.OutboxDLQErrorReason `gorm:"column:error_reason;type:text;not null" json:"error_reason"`
	ErrorMessage  *string                    `gorm:"column:error_message;type:text" json:"error_message"`
	AttemptCount  int                        `gorm:"column:attempt_count;not null" json:"attempt_count"`
	FailedAt      time.Time                  `gorm:"column:failed_at;not null" json:"failed_at"`
}

func (OutboxDLQ) TableName() string { return "outbox_dlq" }

func (d *OutboxDLQ) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	if d.FailedAt.IsZero() {
		d.FailedAt = time.Now().UTC()
	}
	return nil
}
