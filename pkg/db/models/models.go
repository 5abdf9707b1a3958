package models

// All lists every persisted model, in dependency order, for schema bootstrapping in tests.
func All() []any {
	return []any{
		&SKU{},
		&Batch{},
		&StockAdjustment{},
		&Alert{},
		&Rider{},
		&DispatchOrder{},
		&RiderLocationHistory{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
