package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
)

const currentPayloadVersion = 1

// DomainEvent is what services hand to Emit. Data is marshalled into the envelope.
type DomainEvent struct {
	TenantID      uuid.UUID
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	ActorID       *uuid.UUID
	Data          interface{}
	Version       int
	OccurredAt    time.Time
}

type inserter interface {
	Insert(tx *gorm.DB, event models.OutboxEvent) error
}

// Service writes domain events to the outbox inside the caller's transaction.
type Service struct {
	repo inserter
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Emit queues event on tx. The row commits or rolls back with the state change.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event.TenantID == uuid.Nil {
		return errors.New("tenant id required")
	}
	if !event.EventType.IsValid() {
		return errors.New("unknown event type " + string(event.EventType))
	}
	if !event.AggregateType.IsValid() {
		return errors.New("unknown aggregate type " + string(event.AggregateType))
	}

	payload, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if event.Version == 0 {
		event.Version = currentPayloadVersion
	}
	envelope := PayloadEnvelope{
		Version:    event.Version,
		EventID:    uuid.NewString(),
		OccurredAt: event.OccurredAt,
		Actor:      &ActorRef{TenantID: event.TenantID, ActorID: event.ActorID},
		Data:       payload,
	}
	payloadJSON, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := models.OutboxEvent{
		TenantID:      event.TenantID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       json.RawMessage(payloadJSON),
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return err
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"event_id":       envelope.EventID,
			"event_type":     event.EventType,
			"aggregate_id":   event.AggregateID.String(),
			"aggregate_type": event.AggregateType,
			"tenant_id":      event.TenantID.String(),
		})
		s.logg.Debug(logCtx, "outbox event queued")
	}
	return nil
}
