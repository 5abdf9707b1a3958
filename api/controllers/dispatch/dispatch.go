package dispatch

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroute-backend/api/controllers/tenantcontext"
	"github.com/angelmondragon/stockroute-backend/api/responses"
	"github.com/angelmondragon/stockroute-backend/api/validators"
	internaldispatch "github.com/angelmondragon/stockroute-backend/internal/dispatch"
	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroute-backend/pkg/errors"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
	"github.com/angelmondragon/stockroute-backend/pkg/pagination"
	"github.com/angelmondragon/stockroute-backend/pkg/types"
)

type createOrderRequest struct {
	OrderID           uuid.UUID        `json:"order_id" validate:"required"`
	CustomerName      string           `json:"customer_name" validate:"required,max=255"`
	CustomerPhone     string           `json:"customer_phone" validate:"required,max=20"`
	PickupAddress     string           `json:"pickup_address" validate:"required"`
	DeliveryAddress   string           `json:"delivery_address" validate:"required"`
	PickupLocation    *types.GeoPoint  `json:"pickup_location"`
	DeliveryLocation  *types.GeoPoint  `json:"delivery_location"`
	Priority          string           `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	EstimatedDuration *int             `json:"estimated_duration" validate:"omitempty,gte=0"`
	Distance          *decimal.Decimal `json:"distance"`
	Notes             *string          `json:"notes" validate:"omitempty,max=2000"`
	Metadata          map[string]any   `json:"metadata"`
}

func (r createOrderRequest) toInput() internaldispatch.CreateInput {
	return internaldispatch.CreateInput{
		OrderID:           r.OrderID,
		CustomerName:      strings.TrimSpace(r.CustomerName),
		CustomerPhone:     strings.TrimSpace(r.CustomerPhone),
		PickupAddress:     strings.TrimSpace(r.PickupAddress),
		DeliveryAddress:   strings.TrimSpace(r.DeliveryAddress),
		PickupLocation:    r.PickupLocation,
		DeliveryLocation:  r.DeliveryLocation,
		Priority:          enums.DispatchPriority(r.Priority),
		EstimatedDuration: r.EstimatedDuration,
		Distance:          r.Distance,
		Notes:             r.Notes,
		Metadata:          r.Metadata,
	}
}

type assignRequest struct {
	RiderID uuid.UUID `json:"rider_id" validate:"required"`
}

// Create opens a pending dispatch order.
func Create(svc internaldispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Create(r.Context(), tenantID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func Get(svc internaldispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := tenantcontext.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), tenantID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// List supports status, priority and rider_id filters.
func List(svc internaldispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseDispatchStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priority, err := validators.ParseQueryEnum(r, "priority", enums.ParseDispatchPriority)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		riderID, err := validators.ParseQueryUUID(r, "rider_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), internaldispatch.ListParams{
			TenantID: tenantID,
			Status:   status,
			Priority: priority,
			RiderID:  riderID,
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Pending lists unassigned orders, most urgent first.
func Pending(svc internaldispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priority, err := validators.ParseQueryEnum(r, "priority", enums.ParseDispatchPriority)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := svc.Pending(r.Context(), tenantID, priority, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// Assigned lists orders waiting for pickup, oldest assignment first.
func Assigned(svc internaldispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		riderID, err := validators.ParseQueryUUID(r, "rider_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := svc.Assigned(r.Context(), tenantID, riderID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// RiderOrders lists one rider's dispatch orders, optionally by status.
func RiderOrders(svc internaldispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		riderID, err := tenantcontext.PathUUID(r, "riderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseDispatchStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RiderOrders(r.Context(), internaldispatch.RiderOrdersParams{
			TenantID: tenantID,
			RiderID:  riderID,
			Status:   status,
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func Analytics(svc internaldispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Analytics(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// Assign attaches an active rider to a pending order.
func Assign(svc internaldispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := tenantcontext.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload assignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Assign(r.Context(), tenantID, orderID, payload.RiderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type transitionCall func(ctx context.Context, tenantID, orderID uuid.UUID) (*models.DispatchOrder, error)

func transition(call transitionCall, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := tenantcontext.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := call(r.Context(), tenantID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Start marks an assigned order as picked up.
func Start(svc internaldispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc.Start, logg)
}

// Deliver completes an in-progress order and records its duration.
func Deliver(svc internaldispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc.Deliver, logg)
}

// Cancel cancels any order that has not been delivered.
func Cancel(svc internaldispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc.Cancel, logg)
}

// Unassign returns a pending or assigned order to the pending pool.
func Unassign(svc internaldispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc.Unassign, logg)
}
