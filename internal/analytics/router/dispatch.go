package router

import (
	"context"
	"fmt"

	"github.com/angelmondragon/stockroute-backend/internal/analytics/types"
	analyticswriter "github.com/angelmondragon/stockroute-backend/internal/analytics/writer"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox/payloads"
)

type dispatchRowBuilder func(envelope types.Envelope, payload any) (types.DispatchEventRow, error)

type dispatchHandler struct {
	writer Writer
	logg   *logger.Logger
	build  dispatchRowBuilder
}

func newDispatchHandler(writer Writer, logg *logger.Logger, build dispatchRowBuilder) Handler {
	return &dispatchHandler{writer: writer, logg: logg, build: build}
}

func (h *dispatchHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type": envelope.EventType,
		"tenant_id":  envelope.TenantID,
	})

	row, err := h.build(envelope, payload)
	if err != nil {
		h.logg.Error(logCtx, "failed to build dispatch row", err)
		return err
	}
	if row.Payload, err = analyticswriter.EncodeJSON(envelope.Payload); err != nil {
		return fmt.Errorf("encode payload json: %w", err)
	}

	if err := h.writer.InsertDispatch(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert dispatch row", err)
		return err
	}
	return nil
}

func dispatchBase(envelope types.Envelope) types.DispatchEventRow {
	return types.DispatchEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: envelope.OccurredAt,
		TenantID:   envelope.TenantID,
		ActorID:    envelope.ActorID,
	}
}

func buildDispatchCreatedRow(envelope types.Envelope, payload any) (types.DispatchEventRow, error) {
	event, ok := payload.(*payloads.DispatchOrderCreatedEvent)
	if !ok {
		return types.DispatchEventRow{}, fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	row := dispatchBase(envelope)
	row.DispatchOrderID = stringPtr(event.DispatchOrderID.String())
	row.OrderID = stringPtr(event.OrderID.String())
	row.ToStatus = stringPtr(string(enums.DispatchStatusPending))
	row.Priority = stringPtr(string(event.Priority))
	return row, nil
}

func buildDispatchStateChangedRow(envelope types.Envelope, payload any) (types.DispatchEventRow, error) {
	event, ok := payload.(*payloads.DispatchOrderStateChangedEvent)
	if !ok {
		return types.DispatchEventRow{}, fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	row := dispatchBase(envelope)
	row.DispatchOrderID = stringPtr(event.DispatchOrderID.String())
	row.OrderID = stringPtr(event.OrderID.String())
	row.RiderID = uuidPtrString(event.RiderID)
	row.FromStatus = stringPtr(string(event.FromStatus))
	row.ToStatus = stringPtr(string(event.ToStatus))
	row.Priority = stringPtr(string(event.Priority))
	row.ActualDuration = intToInt64Ptr(event.ActualDuration)
	return row, nil
}

func buildRiderLocationRow(envelope types.Envelope, payload any) (types.DispatchEventRow, error) {
	event, ok := payload.(*payloads.RiderLocationUpdatedEvent)
	if !ok {
		return types.DispatchEventRow{}, fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	row := dispatchBase(envelope)
	row.RiderID = stringPtr(event.RiderID.String())
	row.Latitude = float64Ptr(event.Latitude)
	row.Longitude = float64Ptr(event.Longitude)
	if !event.RecordedAt.IsZero() {
		row.OccurredAt = event.RecordedAt.UTC()
	}
	return row, nil
}
