package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroute-backend/pkg/db"
	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroute-backend/pkg/errors"
	"github.com/angelmondragon/stockroute-backend/pkg/metrics"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/stockroute-backend/pkg/pagination"
	"github.com/angelmondragon/stockroute-backend/pkg/types"
)

// Service drives dispatch orders through their delivery lifecycle.
type Service interface {
	Create(ctx context.Context, tenantID uuid.UUID, input CreateInput) (*models.DispatchOrder, error)
	Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.DispatchOrder, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Pending(ctx context.Context, tenantID uuid.UUID, priority *enums.DispatchPriority, limit int) ([]models.DispatchOrder, error)
	Assigned(ctx context.Context, tenantID uuid.UUID, riderID *uuid.UUID, limit int) ([]models.DispatchOrder, error)
	RiderOrders(ctx context.Context, params RiderOrdersParams) (*ListResult, error)

	Assign(ctx context.Context, tenantID, orderID, riderID uuid.UUID) (*models.DispatchOrder, error)
	Start(ctx context.Context, tenantID, orderID uuid.UUID) (*models.DispatchOrder, error)
	Deliver(ctx context.Context, tenantID, orderID uuid.UUID) (*models.DispatchOrder, error)
	Cancel(ctx context.Context, tenantID, orderID uuid.UUID) (*models.DispatchOrder, error)
	Unassign(ctx context.Context, tenantID, orderID uuid.UUID) (*models.DispatchOrder, error)

	Analytics(ctx context.Context, tenantID uuid.UUID) (*Analytics, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.DomainMetrics
	now     func() time.Time
}

// CreateInput describes a new delivery leg for an external order.
type CreateInput struct {
	OrderID           uuid.UUID
	CustomerName      string
	CustomerPhone     string
	PickupAddress     string
	DeliveryAddress   string
	PickupLocation    *types.GeoPoint
	DeliveryLocation  *types.GeoPoint
	Priority          enums.DispatchPriority
	EstimatedDuration *int
	Distance          *decimal.Decimal
	Notes             *string
	Metadata          map[string]any
}

// ListParams filters the dispatch order listing.
type ListParams struct {
	TenantID uuid.UUID
	Status   *enums.DispatchStatus
	Priority *enums.DispatchPriority
	RiderID  *uuid.UUID
	Limit    int
	Cursor   string
}

// RiderOrdersParams lists one rider's orders.
type RiderOrdersParams struct {
	TenantID uuid.UUID
	RiderID  uuid.UUID
	Status   *enums.DispatchStatus
	Limit    int
	Cursor   string
}

// ListResult wraps a page of dispatch orders.
type ListResult struct {
	Items  []models.DispatchOrder `json:"items"`
	Cursor string                 `json:"cursor"`
}

// Analytics summarises a tenant's dispatch activity.
type Analytics struct {
	TotalOrders         int64                            `json:"total_orders"`
	StatusBreakdown     map[enums.DispatchStatus]int64   `json:"status_breakdown"`
	PriorityBreakdown   map[enums.DispatchPriority]int64 `json:"priority_breakdown"`
	AverageDeliveryTime *decimal.Decimal                 `json:"average_delivery_time"`
}

// NewService wires dispatch dependencies.
func NewService(repo Repository, tx txRunner, outboxPublisher outboxPublisher, domainMetrics *metrics.DomainMetrics) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "dispatch repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxPublisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outboxPublisher,
		metrics: domainMetrics,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, tenantID uuid.UUID, input CreateInput) (*models.DispatchOrder, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	order := &models.DispatchOrder{
		TenantID:          tenantID,
		OrderID:           input.OrderID,
		CustomerName:      strings.TrimSpace(input.CustomerName),
		CustomerPhone:     strings.TrimSpace(input.CustomerPhone),
		PickupAddress:     strings.TrimSpace(input.PickupAddress),
		DeliveryAddress:   strings.TrimSpace(input.DeliveryAddress),
		PickupLocation:    input.PickupLocation,
		DeliveryLocation:  input.DeliveryLocation,
		Status:            enums.DispatchStatusPending,
		Priority:          input.Priority,
		EstimatedDuration: input.EstimatedDuration,
		Distance:          input.Distance,
		Notes:             input.Notes,
		Metadata:          types.JSONMap(input.Metadata),
	}
	if order.Priority == "" {
		order.Priority = enums.DispatchPriorityMedium
	}
	if err := validateOrder(order); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert dispatch order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			TenantID:      tenantID,
			EventType:     enums.EventDispatchOrderCreated,
			AggregateType: enums.AggregateDispatchOrder,
			AggregateID:   order.ID,
			Data: payloads.DispatchOrderCreatedEvent{
				DispatchOrderID:   order.ID,
				OrderID:           order.OrderID,
				Priority:          order.Priority,
				EstimatedDuration: order.EstimatedDuration,
			},
		})
	})
	if err != nil {
		return nil, asDomainError(err, "create dispatch order")
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.DispatchOrder, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	order, err := s.repo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, notFoundOr(err, "dispatch order not found", "load dispatch order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if err := validateFilters(params.Status, params.Priority); err != nil {
		return nil, err
	}
	cursor, err := parseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, listParams{
		TenantID: params.TenantID,
		Status:   params.Status,
		Priority: params.Priority,
		RiderID:  params.RiderID,
		Limit:    params.Limit,
		Cursor:   cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list dispatch orders")
	}
	return page(rows, params.Limit), nil
}

// Pending returns the unassigned queue, most urgent first.
func (s *service) Pending(ctx context.Context, tenantID uuid.UUID, priority *enums.DispatchPriority, limit int) ([]models.DispatchOrder, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if err := validateFilters(nil, priority); err != nil {
		return nil, err
	}
	rows, err := s.repo.Pending(ctx, tenantID, priority, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending dispatch orders")
	}
	return rows, nil
}

// Assigned returns orders waiting for pickup, earliest assignment first.
func (s *service) Assigned(ctx context.Context, tenantID uuid.UUID, riderID *uuid.UUID, limit int) ([]models.DispatchOrder, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	rows, err := s.repo.Assigned(ctx, tenantID, riderID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assigned dispatch orders")
	}
	return rows, nil
}

func (s *service) RiderOrders(ctx context.Context, params RiderOrdersParams) (*ListResult, error) {
	if params.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if _, err := s.repo.FindRider(ctx, params.TenantID, params.RiderID); err != nil {
		return nil, notFoundOr(err, "rider not found", "load rider")
	}
	riderID := params.RiderID
	return s.List(ctx, ListParams{
		TenantID: params.TenantID,
		Status:   params.Status,
		RiderID:  &riderID,
		Limit:    params.Limit,
		Cursor:   params.Cursor,
	})
}

func (s *service) Assign(ctx context.Context, tenantID, orderID, riderID uuid.UUID) (*models.DispatchOrder, error) {
	return s.transition(ctx, tenantID, orderID, func(ctx context.Context, repo Repository, order *models.DispatchOrder, now time.Time) (map[string]any, error) {
		if order.Status != enums.DispatchStatusPending {
			return nil, CheckAssign(*order, models.Rider{})
		}
		rider, err := repo.FindRider(ctx, tenantID, riderID)
		if err != nil {
			return nil, notFoundOr(err, "rider not found", "load rider")
		}
		if err := CheckAssign(*order, *rider); err != nil {
			return nil, err
		}
		return map[string]any{
			"rider_id":    rider.ID,
			"status":      enums.DispatchStatusAssigned,
			"assigned_at": now,
		}, nil
	})
}

func (s *service) Start(ctx context.Context, tenantID, orderID uuid.UUID) (*models.DispatchOrder, error) {
	return s.transition(ctx, tenantID, orderID, func(_ context.Context, _ Repository, order *models.DispatchOrder, now time.Time) (map[string]any, error) {
		if err := CheckStart(*order); err != nil {
			return nil, err
		}
		return map[string]any{
			"status":       enums.DispatchStatusInProgress,
			"picked_up_at": now,
		}, nil
	})
}

func (s *service) Deliver(ctx context.Context, tenantID, orderID uuid.UUID) (*models.DispatchOrder, error) {
	return s.transition(ctx, tenantID, orderID, func(_ context.Context, _ Repository, order *models.DispatchOrder, now time.Time) (map[string]any, error) {
		if err := CheckDeliver(*order); err != nil {
			return nil, err
		}
		fields := map[string]any{
			"status":       enums.DispatchStatusDelivered,
			"delivered_at": now,
		}
		if minutes := ActualDuration(order.AssignedAt, now); minutes != nil {
			fields["actual_duration"] = *minutes
		}
		return fields, nil
	})
}

// Cancel is idempotent for orders that are already cancelled.
func (s *service) Cancel(ctx context.Context, tenantID, orderID uuid.UUID) (*models.DispatchOrder, error) {
	return s.transition(ctx, tenantID, orderID, func(_ context.Context, _ Repository, order *models.DispatchOrder, _ time.Time) (map[string]any, error) {
		if err := CheckCancel(*order); err != nil {
			return nil, err
		}
		if order.Status == enums.DispatchStatusCancelled {
			return nil, nil
		}
		return map[string]any{"status": enums.DispatchStatusCancelled}, nil
	})
}

func (s *service) Unassign(ctx context.Context, tenantID, orderID uuid.UUID) (*models.DispatchOrder, error) {
	return s.transition(ctx, tenantID, orderID, func(_ context.Context, _ Repository, order *models.DispatchOrder, _ time.Time) (map[string]any, error) {
		if err := CheckUnassign(*order); err != nil {
			return nil, err
		}
		return map[string]any{
			"rider_id":    nil,
			"status":      enums.DispatchStatusPending,
			"assigned_at": nil,
		}, nil
	})
}

// transitionFunc checks preconditions against the locked row and returns the columns to
// write. A nil map with a nil error leaves the row untouched.
type transitionFunc func(ctx context.Context, repo Repository, order *models.DispatchOrder, now time.Time) (map[string]any, error)

func (s *service) transition(ctx context.Context, tenantID, orderID uuid.UUID, apply transitionFunc) (*models.DispatchOrder, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}

	var (
		updated *models.DispatchOrder
		from    enums.DispatchStatus
		changed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUpdate(ctx, tenantID, orderID)
		if err != nil {
			return notFoundOr(err, "dispatch order not found", "lock dispatch order")
		}

		now := s.now()
		fields, err := apply(ctx, repo, order, now)
		if err != nil {
			return err
		}
		if fields == nil {
			updated = order
			return nil
		}
		fields["updated_at"] = now

		affected, err := repo.UpdateIfStatus(ctx, tenantID, orderID, order.Status, fields)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update dispatch order")
		}
		if affected == 0 {
			return invalidTransition(*order, "dispatch order changed concurrently")
		}

		updated, err = repo.FindByID(ctx, tenantID, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload dispatch order")
		}
		from = order.Status
		changed = true

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			TenantID:      tenantID,
			EventType:     enums.EventDispatchOrderStateChanged,
			AggregateType: enums.AggregateDispatchOrder,
			AggregateID:   updated.ID,
			Data: payloads.DispatchOrderStateChangedEvent{
				DispatchOrderID: updated.ID,
				OrderID:         updated.OrderID,
				RiderID:         updated.RiderID,
				FromStatus:      from,
				ToStatus:        updated.Status,
				Priority:        updated.Priority,
				ActualDuration:  updated.ActualDuration,
				ChangedAt:       now,
			},
		})
	})
	if err != nil {
		return nil, asDomainError(err, "dispatch transition")
	}
	if changed {
		s.metrics.IncDispatchTransition(string(from), string(updated.Status))
	}
	return updated, nil
}

func (s *service) Analytics(ctx context.Context, tenantID uuid.UUID) (*Analytics, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	byStatus, err := s.repo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count dispatch orders by status")
	}
	byPriority, err := s.repo.CountByPriority(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count dispatch orders by priority")
	}
	avg, err := s.repo.AverageDeliveryMinutes(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "average delivery time")
	}

	out := &Analytics{
		StatusBreakdown:   make(map[enums.DispatchStatus]int64, len(byStatus)),
		PriorityBreakdown: make(map[enums.DispatchPriority]int64, len(byPriority)),
	}
	for status, count := range byStatus {
		out.StatusBreakdown[status] = count
		out.TotalOrders += count
	}
	for priority, count := range byPriority {
		out.PriorityBreakdown[priority] = count
	}
	if avg != nil {
		rounded := decimal.NewFromFloat(*avg).Round(2)
		out.AverageDeliveryTime = &rounded
	}
	return out, nil
}

func validateOrder(o *models.DispatchOrder) error {
	switch {
	case o.OrderID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "order_id is required")
	case o.CustomerName == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "customer_name is required")
	case o.CustomerPhone == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "customer_phone is required")
	case o.PickupAddress == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup_address is required")
	case o.DeliveryAddress == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery_address is required")
	case !o.Priority.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid dispatch priority")
	case o.PickupLocation != nil && !o.PickupLocation.Valid():
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup_location is out of range")
	case o.DeliveryLocation != nil && !o.DeliveryLocation.Valid():
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery_location is out of range")
	case o.EstimatedDuration != nil && *o.EstimatedDuration < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "estimated_duration must not be negative")
	case o.Distance != nil && o.Distance.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "distance must not be negative")
	}
	return nil
}

func validateFilters(status *enums.DispatchStatus, priority *enums.DispatchPriority) error {
	if status != nil && !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid dispatch status")
	}
	if priority != nil && !priority.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid dispatch priority")
	}
	return nil
}

func parseCursor(raw string) (*pagination.Cursor, error) {
	cursor, err := pagination.ParseCursor(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return cursor, nil
}

func page(rows []models.DispatchOrder, limit int) *ListResult {
	items, next := pagination.Trim(rows, limit, func(o models.DispatchOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &ListResult{Items: items, Cursor: next}
}

func notFoundOr(err error, notFound, op string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func asDomainError(err error, op string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
