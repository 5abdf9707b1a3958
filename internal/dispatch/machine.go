package dispatch

import (
	"math"
	"time"

	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroute-backend/pkg/errors"
)

// Transition rules. Each check returns a CodeInvalidTransition error carrying the
// reason, or nil when the order may move.

// CheckAssign validates moving a pending order onto rider.
func CheckAssign(order models.DispatchOrder, rider models.Rider) error {
	if order.Status != enums.DispatchStatusPending {
		return invalidTransition(order, "can only assign pending dispatch orders")
	}
	if rider.Status != enums.RiderStatusActive {
		return invalidTransition(order, "can only assign to active riders")
	}
	if rider.TenantID != order.TenantID {
		return invalidTransition(order, "rider must belong to the same tenant")
	}
	return nil
}

// CheckStart validates the pickup of an assigned order.
func CheckStart(order models.DispatchOrder) error {
	if order.Status != enums.DispatchStatusAssigned {
		return invalidTransition(order, "can only mark assigned orders as in progress")
	}
	return nil
}

// CheckDeliver validates completing an order that is on its way.
func CheckDeliver(order models.DispatchOrder) error {
	if order.Status != enums.DispatchStatusInProgress {
		return invalidTransition(order, "can only mark in-progress orders as delivered")
	}
	return nil
}

// CheckCancel allows cancelling anything that has not been delivered. Cancelling a
// cancelled order passes and is handled as a no-op by the caller.
func CheckCancel(order models.DispatchOrder) error {
	if order.Status == enums.DispatchStatusDelivered {
		return invalidTransition(order, "cannot cancel delivered orders")
	}
	return nil
}

// CheckUnassign allows returning pending or assigned orders to the queue.
func CheckUnassign(order models.DispatchOrder) error {
	switch order.Status {
	case enums.DispatchStatusPending, enums.DispatchStatusAssigned:
		return nil
	}
	return invalidTransition(order, "cannot unassign rider from orders that are in progress or completed")
}

// ActualDuration is the whole number of minutes between assignment and delivery, or
// nil when the order was never assigned.
func ActualDuration(assignedAt *time.Time, deliveredAt time.Time) *int {
	if assignedAt == nil {
		return nil
	}
	minutes := int(math.Round(deliveredAt.Sub(*assignedAt).Minutes()))
	if minutes < 0 {
		minutes = 0
	}
	return &minutes
}

func invalidTransition(order models.DispatchOrder, reason string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, reason).WithDetails(map[string]any{
		"dispatch_order_id": order.ID,
		"status":            order.Status,
	})
}
