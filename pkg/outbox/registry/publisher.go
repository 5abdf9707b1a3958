package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockroute-backend/pkg/config"
	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic names. Alert events
// go to the alerts topic so notification consumers can subscribe to them alone.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.DomainTopic == "" {
		return nil, fmt.Errorf("domain topic is required")
	}
	if cfg.AlertsTopic == "" {
		return nil, fmt.Errorf("alerts topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	domainTopic := cfg.DomainTopic
	alertsTopic := cfg.AlertsTopic

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventSKUCreated,
			AggregateType:  enums.AggregateSKU,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.SKUCreatedEvent{} },
		},
		{
			EventType:      enums.EventStockAdjusted,
			AggregateType:  enums.AggregateSKU,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.StockAdjustedEvent{} },
		},
		{
			EventType:      enums.EventBatchReceived,
			AggregateType:  enums.AggregateBatch,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.BatchReceivedEvent{} },
		},
		{
			EventType:      enums.EventRiderLocationUpdated,
			AggregateType:  enums.AggregateRider,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.RiderLocationUpdatedEvent{} },
		},
		{
			EventType:      enums.EventDispatchOrderCreated,
			AggregateType:  enums.AggregateDispatchOrder,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.DispatchOrderCreatedEvent{} },
		},
		{
			EventType:      enums.EventDispatchOrderStateChanged,
			AggregateType:  enums.AggregateDispatchOrder,
			Topic:          domainTopic,
			PayloadFactory: func() interface{} { return &payloads.DispatchOrderStateChangedEvent{} },
		},
	} {
		reg.register(desc)
	}
	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventAlertRaised,
			AggregateType:  enums.AggregateAlert,
			Topic:          alertsTopic,
			PayloadFactory: func() interface{} { return &payloads.AlertRaisedEvent{} },
		},
		{
			EventType:      enums.EventAlertAcknowledged,
			AggregateType:  enums.AggregateAlert,
			Topic:          alertsTopic,
			PayloadFactory: func() interface{} { return &payloads.AlertAcknowledgedEvent{} },
		},
	} {
		reg.register(desc)
	}

	return reg, nil
}

// Topics lists every distinct topic the registry routes to.
func (r *EventRegistry) Topics() []string {
	seen := map[string]struct{}{}
	var topics []string
	for _, desc := range r.entries {
		if _, ok := seen[desc.Topic]; ok {
			continue
		}
		seen[desc.Topic] = struct{}{}
		topics = append(topics, desc.Topic)
	}
	sort.Strings(topics)
	return topics
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if payload == nil {
		return nil, NewNonRetryableError(fmt.Errorf("payload factory not configured for %s", event.EventType))
	}
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
