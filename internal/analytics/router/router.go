package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/stockroute-backend/internal/analytics/types"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox/registry"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer delivers BigQuery rows produced by analytics handlers.
type Writer interface {
	InsertInventory(ctx context.Context, row types.InventoryEventRow) error
	InsertDispatch(ctx context.Context, row types.DispatchEventRow) error
}

// Handler receives an envelope plus a decoded event payload.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope, payload any) error
}

// Router decodes analytics envelopes and dispatches them to the handler per event type.
type Router struct {
	decoders *registry.DecoderRegistry
	handlers map[enums.OutboxEventType]Handler
	logg     *logger.Logger
}

// NewRouter wires the default handlers and allows overrides for specific events.
func NewRouter(writer Writer, logg *logger.Logger, overrides map[enums.OutboxEventType]Handler) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	handlers := map[enums.OutboxEventType]Handler{
		enums.EventSKUCreated:                newInventoryHandler(writer, logg, buildSKUCreatedRow),
		enums.EventStockAdjusted:             newInventoryHandler(writer, logg, buildStockAdjustedRow),
		enums.EventBatchReceived:             newInventoryHandler(writer, logg, buildBatchReceivedRow),
		enums.EventAlertRaised:               newInventoryHandler(writer, logg, buildAlertRaisedRow),
		enums.EventAlertAcknowledged:         newInventoryHandler(writer, logg, buildAlertAcknowledgedRow),
		enums.EventDispatchOrderCreated:      newDispatchHandler(writer, logg, buildDispatchCreatedRow),
		enums.EventDispatchOrderStateChanged: newDispatchHandler(writer, logg, buildDispatchStateChangedRow),
		enums.EventRiderLocationUpdated:      newDispatchHandler(writer, logg, buildRiderLocationRow),
	}

	for event, custom := range overrides {
		if _, ok := handlers[event]; !ok || custom == nil {
			continue
		}
		handlers[event] = custom
	}

	decoders, err := newDecoderRegistry()
	if err != nil {
		return nil, fmt.Errorf("register analytics decoders: %w", err)
	}

	return &Router{
		decoders: decoders,
		handlers: handlers,
		logg:     logg,
	}, nil
}

// Handle decodes the payload for the envelope's version and runs the configured handler.
func (r *Router) Handle(ctx context.Context, envelope types.Envelope) error {
	handler, ok := r.handlers[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	if len(envelope.Payload) == 0 {
		return fmt.Errorf("empty payload for %s", envelope.EventType)
	}
	payload, err := r.decoders.Decode(envelope.EventType, envelope.Version, envelope.Payload)
	if err != nil {
		return fmt.Errorf("decode %s payload: %w", envelope.EventType, err)
	}

	return handler.Handle(ctx, envelope, payload)
}
