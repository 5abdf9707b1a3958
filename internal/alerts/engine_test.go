package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroute-backend/pkg/db"
	"github.com/angelmondragon/stockroute-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroute-backend/pkg/errors"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox/payloads"
)

type recordingOutbox struct {
	events []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(_ context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if tx == nil {
		panic("emit without transaction")
	}
	r.events = append(r.events, event)
	return nil
}

var fixedNow = time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *db.Client, *recordingOutbox) {
	t.Helper()
	client := dbtest.Open(t)
	events := &recordingOutbox{}
	engine, err := NewEngine(EngineParams{
		Repo:   NewRepository(client.DB()),
		Tx:     client,
		Outbox: events,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	engine.now = func() time.Time { return fixedNow }
	return engine, client, events
}

func intPtr(v int) *int { return &v }

func lowSKU(tenantID uuid.UUID, level, threshold int) models.SKU {
	return models.SKU{
		ID:               uuid.New(),
		TenantID:         tenantID,
		Name:             "Oat milk 1L",
		StockLevel:       level,
		ReorderThreshold: intPtr(threshold),
	}
}

func raiseLow(t *testing.T, client *db.Client, engine *Engine, sku models.SKU, opts RaiseOptions) RaiseResult {
	t.Helper()
	var result RaiseResult
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		result, err = engine.RaiseLowStock(context.Background(), tx, sku, opts)
		return err
	})
	if err != nil {
		t.Fatalf("raise low stock: %v", err)
	}
	return result
}

func TestNewEngineRequiresDependencies(t *testing.T) {
	if _, err := NewEngine(EngineParams{}); !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestRaiseLowStockCreatesSingleAlertPerKey(t *testing.T) {
	engine, client, events := newTestEngine(t)
	sku := lowSKU(uuid.New(), 3, 5)

	first := raiseLow(t, client, engine, sku, RaiseOptions{})
	if !first.Created || first.Alert == nil {
		t.Fatalf("expected created alert, got %+v", first)
	}
	if first.Alert.CurrentStock != 3 || first.Alert.Threshold == nil || *first.Alert.Threshold != 5 {
		t.Fatalf("unexpected snapshot %+v", first.Alert)
	}

	sku.StockLevel = 1
	second := raiseLow(t, client, engine, sku, RaiseOptions{Rearm: true})
	if second.Raised() {
		t.Fatalf("open alert must not be raised again: %+v", second)
	}
	if second.Alert.ID != first.Alert.ID || second.Alert.CurrentStock != 3 {
		t.Fatalf("open alert should be untouched, got %+v", second.Alert)
	}

	var count int64
	if err := client.DB().Model(&models.Alert{}).Count(&count).Error; err != nil {
		t.Fatalf("count alerts: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 alert row, got %d", count)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.events))
	}
}

func TestRaiseLowStockSkipsHealthySKU(t *testing.T) {
	engine, client, events := newTestEngine(t)
	result := raiseLow(t, client, engine, lowSKU(uuid.New(), 20, 5), RaiseOptions{})
	if result.Alert != nil || result.Raised() {
		t.Fatalf("expected no alert, got %+v", result)
	}

	noThreshold := models.SKU{ID: uuid.New(), TenantID: uuid.New(), Name: "Bread", StockLevel: -4}
	result = raiseLow(t, client, engine, noThreshold, RaiseOptions{})
	if result.Alert != nil {
		t.Fatalf("sku without threshold must not alert")
	}
	if len(events.events) != 0 {
		t.Fatalf("expected no events, got %d", len(events.events))
	}
}

func TestRearmReopensAcknowledgedAlert(t *testing.T) {
	engine, client, events := newTestEngine(t)
	tenantID := uuid.New()
	actorID := uuid.New()
	sku := lowSKU(tenantID, 4, 5)

	created := raiseLow(t, client, engine, sku, RaiseOptions{})
	acked, err := engine.Acknowledge(context.Background(), tenantID, created.Alert.ID, &actorID)
	require.NoError(t, err)
	require.True(t, acked.Acknowledged)

	// without the rearm flag the acknowledged alert stays closed
	sku.StockLevel = 2
	result := raiseLow(t, client, engine, sku, RaiseOptions{})
	require.False(t, result.Raised())
	require.True(t, result.Alert.Acknowledged)

	result = raiseLow(t, client, engine, sku, RaiseOptions{Rearm: true})
	require.True(t, result.Rearmed)
	require.Equal(t, created.Alert.ID, result.Alert.ID)
	require.False(t, result.Alert.Acknowledged)
	require.Nil(t, result.Alert.AcknowledgedBy)
	require.Nil(t, result.Alert.AcknowledgedAt)
	require.Equal(t, 2, result.Alert.CurrentStock)

	require.Len(t, events.events, 3)
	last := events.events[2]
	require.Equal(t, enums.EventAlertRaised, last.EventType)
	payload, ok := last.Data.(payloads.AlertRaisedEvent)
	require.True(t, ok)
	require.True(t, payload.Rearmed)
}

func TestRaiseBatchExpiryWindowIsInclusive(t *testing.T) {
	engine, client, _ := newTestEngine(t)
	tenantID := uuid.New()
	sku := models.SKU{ID: uuid.New(), TenantID: tenantID, Name: "Yoghurt", StockLevel: 40, TrackBatches: true}

	edge := DateOf(fixedNow).AddDate(0, 0, 30)
	beyond := DateOf(fixedNow).AddDate(0, 0, 31)

	cases := []struct {
		name   string
		expiry *time.Time
		want   bool
	}{
		{name: "no expiry", expiry: nil, want: false},
		{name: "beyond window", expiry: &beyond, want: false},
		{name: "last day of window", expiry: &edge, want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batch := models.Batch{ID: uuid.New(), TenantID: tenantID, SKUID: sku.ID, BatchNumber: "B-1", Quantity: 12, RemainingQuantity: 9, ExpiryDate: tc.expiry}
			var result RaiseResult
			err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
				var err error
				result, err = engine.RaiseBatchExpiry(context.Background(), tx, sku, batch, RaiseOptions{})
				return err
			})
			require.NoError(t, err)
			require.Equal(t, tc.want, result.Alert != nil)
			if tc.want {
				require.Equal(t, enums.AlertTypeBatchExpiry, result.Alert.Type)
				require.Equal(t, 9, result.Alert.CurrentStock)
				require.Nil(t, result.Alert.Threshold)
			}
		})
	}
}

func TestRaiseBatchExpiryRejectsForeignBatch(t *testing.T) {
	engine, client, _ := newTestEngine(t)
	sku := models.SKU{ID: uuid.New(), TenantID: uuid.New(), Name: "Cheese"}
	batch := models.Batch{ID: uuid.New(), TenantID: uuid.New(), SKUID: sku.ID}

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		_, err := engine.RaiseBatchExpiry(context.Background(), tx, sku, batch, RaiseOptions{})
		return err
	})
	if !pkgerrors.Is(err, pkgerrors.CodeInvalidOperation) {
		t.Fatalf("expected invalid operation, got %v", err)
	}
}

func TestAcknowledgeIsIdempotent(t *testing.T) {
	engine, client, events := newTestEngine(t)
	tenantID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	created := raiseLow(t, client, engine, lowSKU(tenantID, 0, 2), RaiseOptions{})

	acked, err := engine.Acknowledge(context.Background(), tenantID, created.Alert.ID, &first)
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if acked.AcknowledgedBy == nil || *acked.AcknowledgedBy != first || acked.AcknowledgedAt == nil {
		t.Fatalf("unexpected acknowledgement %+v", acked)
	}

	again, err := engine.Acknowledge(context.Background(), tenantID, created.Alert.ID, &second)
	if err != nil {
		t.Fatalf("second acknowledge: %v", err)
	}
	if *again.AcknowledgedBy != first {
		t.Fatalf("second acknowledge overwrote actor")
	}
	if len(events.events) != 2 {
		t.Fatalf("expected raised + acknowledged events, got %d", len(events.events))
	}
}

func TestAcknowledgeForeignTenantIsNotFound(t *testing.T) {
	engine, client, _ := newTestEngine(t)
	created := raiseLow(t, client, engine, lowSKU(uuid.New(), 1, 2), RaiseOptions{})

	_, err := engine.Acknowledge(context.Background(), uuid.New(), created.Alert.ID, nil)
	if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := engine.Get(context.Background(), uuid.New(), created.Alert.ID); !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found from get, got %v", err)
	}
}

func TestListFiltersAndPaginates(t *testing.T) {
	engine, client, _ := newTestEngine(t)
	tenantID := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		result := raiseLow(t, client, engine, lowSKU(tenantID, 0, 1), RaiseOptions{})
		ids = append(ids, result.Alert.ID)
	}
	raiseLow(t, client, engine, lowSKU(uuid.New(), 0, 1), RaiseOptions{})
	_, err := engine.Acknowledge(context.Background(), tenantID, ids[0], nil)
	require.NoError(t, err)

	open := false
	unacked, err := engine.List(context.Background(), ListParams{TenantID: tenantID, Acknowledged: &open})
	require.NoError(t, err)
	require.Len(t, unacked.Items, 2)

	page, err := engine.List(context.Background(), ListParams{TenantID: tenantID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.Cursor)

	rest, err := engine.List(context.Background(), ListParams{TenantID: tenantID, Limit: 2, Cursor: page.Cursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	require.Empty(t, rest.Cursor)

	seen := map[uuid.UUID]bool{}
	for _, a := range append(page.Items, rest.Items...) {
		seen[a.ID] = true
	}
	require.Len(t, seen, 3)

	bogus := enums.AlertType("expired")
	_, err = engine.List(context.Background(), ListParams{TenantID: tenantID, Type: &bogus})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestExpiresWithin(t *testing.T) {
	now := time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)
	onCutoff := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !ExpiresWithin(&onCutoff, now, DefaultExpiryWindow) {
		t.Fatalf("expected cutoff day to be inside window")
	}
	past := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	if !ExpiresWithin(&past, now, DefaultExpiryWindow) {
		t.Fatalf("already expired batches are inside the window")
	}
	after := onCutoff.AddDate(0, 0, 1)
	if ExpiresWithin(&after, now, DefaultExpiryWindow) {
		t.Fatalf("day after cutoff must be outside window")
	}
}
