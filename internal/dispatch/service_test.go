package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockroute-backend/pkg/db"
	"github.com/angelmondragon/stockroute-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroute-backend/pkg/errors"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox"
)

type fixture struct {
	client *db.Client
	svc    *service
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	emitter := outbox.NewService(outbox.NewRepository(client.DB()), logger.Nop())
	svc, err := NewService(NewRepository(client.DB()), client, emitter, nil)
	if err != nil {
		t.Fatalf("dispatch service: %v", err)
	}
	f := &fixture{client: client, svc: svc.(*service), clock: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func (f *fixture) createRider(t *testing.T, tenantID uuid.UUID, status enums.RiderStatus) *models.Rider {
	t.Helper()
	rider := &models.Rider{
		TenantID:    tenantID,
		FirstName:   "Ada",
		LastName:    "Okafor",
		Email:       uuid.NewString() + "@example.com",
		Phone:       "+2348000000000",
		VehicleType: enums.VehicleTypeMotorcycle,
		Status:      status,
		Rating:      decimal.NewFromInt(4),
	}
	if err := f.client.DB().Create(rider).Error; err != nil {
		t.Fatalf("create rider: %v", err)
	}
	return rider
}

func (f *fixture) createOrder(t *testing.T, tenantID uuid.UUID, priority enums.DispatchPriority) *models.DispatchOrder {
	t.Helper()
	order, err := f.svc.Create(context.Background(), tenantID, CreateInput{
		OrderID:         uuid.New(),
		CustomerName:    "Tunde",
		CustomerPhone:   "+2348011111111",
		PickupAddress:   "12 Warehouse Rd",
		DeliveryAddress: "4 Palm Ave",
		Priority:        priority,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func (f *fixture) countEvents(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	if err := f.client.DB().Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	return count
}

func requireReason(t *testing.T, err error, reason string) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, pkgerrors.CodeInvalidTransition, typed.Code())
	require.Equal(t, reason, typed.Message())
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, nil, nil, nil); !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestCreateOrderDefaultsToPendingMedium(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, uuid.New(), "")
	require.Equal(t, enums.DispatchStatusPending, order.Status)
	require.Equal(t, enums.DispatchPriorityMedium, order.Priority)
	require.Nil(t, order.RiderID)
	require.EqualValues(t, 1, f.countEvents(t, enums.EventDispatchOrderCreated))

	_, err := f.svc.Create(context.Background(), uuid.New(), CreateInput{OrderID: uuid.New()})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestFullLifecycleRecordsDuration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := uuid.New()
	rider := f.createRider(t, tenantID, enums.RiderStatusActive)
	order := f.createOrder(t, tenantID, enums.DispatchPriorityHigh)

	assigned, err := f.svc.Assign(ctx, tenantID, order.ID, rider.ID)
	require.NoError(t, err)
	require.Equal(t, enums.DispatchStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.RiderID)
	require.Equal(t, rider.ID, *assigned.RiderID)
	require.NotNil(t, assigned.AssignedAt)

	f.advance(10 * time.Minute)
	started, err := f.svc.Start(ctx, tenantID, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.DispatchStatusInProgress, started.Status)
	require.NotNil(t, started.PickedUpAt)

	f.advance(32 * time.Minute)
	delivered, err := f.svc.Deliver(ctx, tenantID, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.DispatchStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	require.NotNil(t, delivered.ActualDuration)
	require.Equal(t, 42, *delivered.ActualDuration)

	require.EqualValues(t, 3, f.countEvents(t, enums.EventDispatchOrderStateChanged))

	_, err = f.svc.Cancel(ctx, tenantID, order.ID)
	requireReason(t, err, "cannot cancel delivered orders")
}

func TestAssignRejectsInactiveRiderWithoutChangingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := uuid.New()
	rider := f.createRider(t, tenantID, enums.RiderStatusInactive)
	order := f.createOrder(t, tenantID, enums.DispatchPriorityLow)

	_, err := f.svc.Assign(ctx, tenantID, order.ID, rider.ID)
	requireReason(t, err, "can only assign to active riders")

	reloaded, err := f.svc.Get(ctx, tenantID, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.DispatchStatusPending, reloaded.Status)
	require.Nil(t, reloaded.RiderID)
	require.Nil(t, reloaded.AssignedAt)
	require.Zero(t, f.countEvents(t, enums.EventDispatchOrderStateChanged))
}

func TestAssignForeignRiderIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := uuid.New()
	foreign := f.createRider(t, uuid.New(), enums.RiderStatusActive)
	order := f.createOrder(t, tenantID, enums.DispatchPriorityLow)

	_, err := f.svc.Assign(ctx, tenantID, order.ID, foreign.ID)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "got %v", err)
	require.Equal(t, "rider not found", pkgerrors.As(err).Message())

	reloaded, err := f.svc.Get(ctx, tenantID, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.DispatchStatusPending, reloaded.Status)
}

func TestAssignTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := uuid.New()
	first := f.createRider(t, tenantID, enums.RiderStatusActive)
	second := f.createRider(t, tenantID, enums.RiderStatusActive)
	order := f.createOrder(t, tenantID, enums.DispatchPriorityLow)

	_, err := f.svc.Assign(ctx, tenantID, order.ID, first.ID)
	require.NoError(t, err)
	_, err = f.svc.Assign(ctx, tenantID, order.ID, second.ID)
	requireReason(t, err, "can only assign pending dispatch orders")

	reloaded, err := f.svc.Get(ctx, tenantID, order.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, *reloaded.RiderID)
}

func TestStartAndDeliverPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := uuid.New()
	order := f.createOrder(t, tenantID, enums.DispatchPriorityLow)

	_, err := f.svc.Start(ctx, tenantID, order.ID)
	requireReason(t, err, "can only mark assigned orders as in progress")
	_, err = f.svc.Deliver(ctx, tenantID, order.ID)
	requireReason(t, err, "can only mark in-progress orders as delivered")

	_, err = f.svc.Start(ctx, uuid.New(), order.ID)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := uuid.New()
	order := f.createOrder(t, tenantID, enums.DispatchPriorityLow)

	cancelled, err := f.svc.Cancel(ctx, tenantID, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.DispatchStatusCancelled, cancelled.Status)

	again, err := f.svc.Cancel(ctx, tenantID, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.DispatchStatusCancelled, again.Status)
	require.EqualValues(t, 1, f.countEvents(t, enums.EventDispatchOrderStateChanged))
}

func TestUnassignReturnsOrderToQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := uuid.New()
	rider := f.createRider(t, tenantID, enums.RiderStatusActive)
	order := f.createOrder(t, tenantID, enums.DispatchPriorityLow)

	_, err := f.svc.Assign(ctx, tenantID, order.ID, rider.ID)
	require.NoError(t, err)
	unassigned, err := f.svc.Unassign(ctx, tenantID, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.DispatchStatusPending, unassigned.Status)
	require.Nil(t, unassigned.RiderID)
	require.Nil(t, unassigned.AssignedAt)

	_, err = f.svc.Assign(ctx, tenantID, order.ID, rider.ID)
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, tenantID, order.ID)
	require.NoError(t, err)
	_, err = f.svc.Unassign(ctx, tenantID, order.ID)
	requireReason(t, err, "cannot unassign rider from orders that are in progress or completed")
}

func TestPendingOrderedByPriorityThenAge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := uuid.New()
	low := f.createOrder(t, tenantID, enums.DispatchPriorityLow)
	f.advance(time.Minute)
	urgent := f.createOrder(t, tenantID, enums.DispatchPriorityUrgent)
	medium := f.createOrder(t, tenantID, enums.DispatchPriorityMedium)
	high := f.createOrder(t, tenantID, enums.DispatchPriorityHigh)
	f.createOrder(t, uuid.New(), enums.DispatchPriorityUrgent)

	rows, err := f.svc.Pending(ctx, tenantID, nil, 0)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, []uuid.UUID{urgent.ID, high.ID, medium.ID, low.ID},
		[]uuid.UUID{rows[0].ID, rows[1].ID, rows[2].ID, rows[3].ID})

	priority := enums.DispatchPriorityHigh
	rows, err = f.svc.Pending(ctx, tenantID, &priority, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, high.ID, rows[0].ID)
}

func TestAssignedAndRiderOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := uuid.New()
	ada := f.createRider(t, tenantID, enums.RiderStatusActive)
	bola := f.createRider(t, tenantID, enums.RiderStatusActive)
	first := f.createOrder(t, tenantID, enums.DispatchPriorityLow)
	second := f.createOrder(t, tenantID, enums.DispatchPriorityLow)
	third := f.createOrder(t, tenantID, enums.DispatchPriorityLow)

	_, err := f.svc.Assign(ctx, tenantID, second.ID, ada.ID)
	require.NoError(t, err)
	f.advance(time.Minute)
	_, err = f.svc.Assign(ctx, tenantID, first.ID, ada.ID)
	require.NoError(t, err)
	_, err = f.svc.Assign(ctx, tenantID, third.ID, bola.ID)
	require.NoError(t, err)

	rows, err := f.svc.Assigned(ctx, tenantID, &ada.ID, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, second.ID, rows[0].ID)
	require.Equal(t, first.ID, rows[1].ID)

	all, err := f.svc.Assigned(ctx, tenantID, nil, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	_, err = f.svc.Start(ctx, tenantID, first.ID)
	require.NoError(t, err)
	inProgress := enums.DispatchStatusInProgress
	res, err := f.svc.RiderOrders(ctx, RiderOrdersParams{TenantID: tenantID, RiderID: ada.ID, Status: &inProgress})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	require.Equal(t, first.ID, res.Items[0].ID)

	_, err = f.svc.RiderOrders(ctx, RiderOrdersParams{TenantID: uuid.New(), RiderID: ada.ID})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := uuid.New()

	empty, err := f.svc.Analytics(ctx, tenantID)
	require.NoError(t, err)
	require.Zero(t, empty.TotalOrders)
	require.Nil(t, empty.AverageDeliveryTime)

	rider := f.createRider(t, tenantID, enums.RiderStatusActive)
	deliver := func(minutes int) {
		order := f.createOrder(t, tenantID, enums.DispatchPriorityHigh)
		_, err := f.svc.Assign(ctx, tenantID, order.ID, rider.ID)
		require.NoError(t, err)
		_, err = f.svc.Start(ctx, tenantID, order.ID)
		require.NoError(t, err)
		f.advance(time.Duration(minutes) * time.Minute)
		_, err = f.svc.Deliver(ctx, tenantID, order.ID)
		require.NoError(t, err)
	}
	deliver(10)
	deliver(15)
	deliver(20)
	f.createOrder(t, tenantID, enums.DispatchPriorityLow)
	cancelled := f.createOrder(t, tenantID, enums.DispatchPriorityLow)
	_, err = f.svc.Cancel(ctx, tenantID, cancelled.ID)
	require.NoError(t, err)

	stats, err := f.svc.Analytics(ctx, tenantID)
	require.NoError(t, err)
	require.EqualValues(t, 5, stats.TotalOrders)
	require.EqualValues(t, 3, stats.StatusBreakdown[enums.DispatchStatusDelivered])
	require.EqualValues(t, 1, stats.StatusBreakdown[enums.DispatchStatusPending])
	require.EqualValues(t, 1, stats.StatusBreakdown[enums.DispatchStatusCancelled])
	require.EqualValues(t, 3, stats.PriorityBreakdown[enums.DispatchPriorityHigh])
	require.EqualValues(t, 2, stats.PriorityBreakdown[enums.DispatchPriorityLow])
	require.NotNil(t, stats.AverageDeliveryTime)
	require.True(t, decimal.NewFromInt(15).Equal(*stats.AverageDeliveryTime), "got %s", stats.AverageDeliveryTime)
}
