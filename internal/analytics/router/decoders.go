package router

import (
	"go.uber.org/multierr"

	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox/registry"
)

func newDecoderRegistry() (*registry.DecoderRegistry, error) {
	reg := registry.NewDecoderRegistry()
	err := multierr.Combine(
		registry.RegisterJSON[payloads.SKUCreatedEvent](reg, enums.EventSKUCreated, 1),
		registry.RegisterJSON[payloads.StockAdjustedEvent](reg, enums.EventStockAdjusted, 1),
		registry.RegisterJSON[payloads.BatchReceivedEvent](reg, enums.EventBatchReceived, 1),
		registry.RegisterJSON[payloads.AlertRaisedEvent](reg, enums.EventAlertRaised, 1),
		registry.RegisterJSON[payloads.AlertAcknowledgedEvent](reg, enums.EventAlertAcknowledged, 1),
		registry.RegisterJSON[payloads.DispatchOrderCreatedEvent](reg, enums.EventDispatchOrderCreated, 1),
		registry.RegisterJSON[payloads.DispatchOrderStateChangedEvent](reg, enums.EventDispatchOrderStateChanged, 1),
		registry.RegisterJSON[payloads.RiderLocationUpdatedEvent](reg, enums.EventRiderLocationUpdated, 1),
	)
	if err != nil {
		return nil, err
	}
	return reg, nil
}
