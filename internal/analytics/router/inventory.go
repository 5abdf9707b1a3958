package router

import (
	"context"
	"fmt"

	"github.com/angelmondragon/stockroute-backend/internal/analytics/types"
	analyticswriter "github.com/angelmondragon/stockroute-backend/internal/analytics/writer"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox/payloads"
)

type inventoryRowBuilder func(envelope types.Envelope, payload any) (types.InventoryEventRow, error)

type inventoryHandler struct {
	writer Writer
	logg   *logger.Logger
	build  inventoryRowBuilder
}

func newInventoryHandler(writer Writer, logg *logger.Logger, build inventoryRowBuilder) Handler {
	return &inventoryHandler{writer: writer, logg: logg, build: build}
}

func (h *inventoryHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type": envelope.EventType,
		"tenant_id":  envelope.TenantID,
	})

	row, err := h.build(envelope, payload)
	if err != nil {
		h.logg.Error(logCtx, "failed to build inventory row", err)
		return err
	}
	if row.Payload, err = analyticswriter.EncodeJSON(envelope.Payload); err != nil {
		return fmt.Errorf("encode payload json: %w", err)
	}

	if err := h.writer.InsertInventory(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert inventory row", err)
		return err
	}
	return nil
}

func inventoryBase(envelope types.Envelope) types.InventoryEventRow {
	return types.InventoryEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: envelope.OccurredAt,
		TenantID:   envelope.TenantID,
		ActorID:    envelope.ActorID,
	}
}

func buildSKUCreatedRow(envelope types.Envelope, payload any) (types.InventoryEventRow, error) {
	event, ok := payload.(*payloads.SKUCreatedEvent)
	if !ok {
		return types.InventoryEventRow{}, fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	row := inventoryBase(envelope)
	row.SKUID = event.SKUID.String()
	row.StockLevel = int64Ptr(int64(event.StockLevel))
	row.Threshold = intToInt64Ptr(event.ReorderThreshold)
	return row, nil
}

func buildStockAdjustedRow(envelope types.Envelope, payload any) (types.InventoryEventRow, error) {
	event, ok := payload.(*payloads.StockAdjustedEvent)
	if !ok {
		return types.InventoryEventRow{}, fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	row := inventoryBase(envelope)
	row.SKUID = event.SKUID.String()
	row.BatchID = uuidPtrString(event.BatchID)
	row.Quantity = int64Ptr(int64(event.Quantity))
	row.Reason = stringPtr(string(event.Reason))
	row.StockLevel = int64Ptr(int64(event.StockLevel))
	return row, nil
}

func buildBatchReceivedRow(envelope types.Envelope, payload any) (types.InventoryEventRow, error) {
	event, ok := payload.(*payloads.BatchReceivedEvent)
	if !ok {
		return types.InventoryEventRow{}, fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	row := inventoryBase(envelope)
	row.SKUID = event.SKUID.String()
	row.BatchID = stringPtr(event.BatchID.String())
	row.Quantity = int64Ptr(int64(event.Quantity))
	row.ExpiryDate = event.ExpiryDate
	return row, nil
}

func buildAlertRaisedRow(envelope types.Envelope, payload any) (types.InventoryEventRow, error) {
	event, ok := payload.(*payloads.AlertRaisedEvent)
	if !ok {
		return types.InventoryEventRow{}, fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	row := inventoryBase(envelope)
	row.SKUID = event.SKUID.String()
	row.AlertID = stringPtr(event.AlertID.String())
	row.AlertType = stringPtr(string(event.Type))
	row.StockLevel = int64Ptr(int64(event.CurrentStock))
	row.Threshold = intToInt64Ptr(event.Threshold)
	return row, nil
}

func buildAlertAcknowledgedRow(envelope types.Envelope, payload any) (types.InventoryEventRow, error) {
	event, ok := payload.(*payloads.AlertAcknowledgedEvent)
	if !ok {
		return types.InventoryEventRow{}, fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	row := inventoryBase(envelope)
	row.SKUID = event.SKUID.String()
	row.AlertID = stringPtr(event.AlertID.String())
	row.AlertType = stringPtr(string(event.Type))
	if event.AcknowledgedBy != nil {
		row.ActorID = stringPtr(event.AcknowledgedBy.String())
	}
	return row, nil
}
