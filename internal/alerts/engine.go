package alerts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroute-backend/pkg/db"
	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroute-backend/pkg/errors"
	"github.com/angelmondragon/stockroute-backend/pkg/metrics"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/stockroute-backend/pkg/pagination"
)

// DefaultExpiryWindow is how far ahead a batch expiry date raises an alert.
const DefaultExpiryWindow = 30 * 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Engine raises and acknowledges inventory alerts. Raise calls run on the caller's
// transaction so the alert commits with the stock change that triggered it.
type Engine struct {
	repo         Repository
	tx           txRunner
	outbox       outboxPublisher
	metrics      *metrics.DomainMetrics
	expiryWindow time.Duration
	now          func() time.Time
}

// EngineParams wires the alert engine.
type EngineParams struct {
	Repo         Repository
	Tx           txRunner
	Outbox       outboxPublisher
	Metrics      *metrics.DomainMetrics
	ExpiryWindow time.Duration
}

func NewEngine(params EngineParams) (*Engine, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "alerts repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	window := params.ExpiryWindow
	if window <= 0 {
		window = DefaultExpiryWindow
	}
	return &Engine{
		repo:         params.Repo,
		tx:           params.Tx,
		outbox:       params.Outbox,
		metrics:      params.Metrics,
		expiryWindow: window,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// RaiseOptions controls how an existing alert for the same key is treated.
type RaiseOptions struct {
	// Rearm reopens an acknowledged alert. Open alerts are never touched.
	Rearm   bool
	ActorID *uuid.UUID
}

// RaiseResult describes what a raise call did. Alert is nil when the condition did not hold.
type RaiseResult struct {
	Alert   *models.Alert
	Created bool
	Rearmed bool
}

// Raised reports whether the call produced a new or reopened alert.
func (r RaiseResult) Raised() bool {
	return r.Created || r.Rearmed
}

// RaiseLowStock records a low_stock alert for sku when its level is at or below the
// reorder threshold.
func (e *Engine) RaiseLowStock(ctx context.Context, tx *gorm.DB, sku models.SKU, opts RaiseOptions) (RaiseResult, error) {
	if !sku.IsLowStock() {
		return RaiseResult{}, nil
	}
	threshold := *sku.ReorderThreshold
	return e.raise(ctx, tx, sku, enums.AlertTypeLowStock, Snapshot{
		SKUName:      sku.Name,
		CurrentStock: sku.StockLevel,
		Threshold:    &threshold,
	}, opts)
}

// RaiseBatchExpiry records a batch_expiry alert for the batch's SKU when the batch
// expires within the configured window. The snapshot carries the batch's remaining
// quantity and no threshold.
func (e *Engine) RaiseBatchExpiry(ctx context.Context, tx *gorm.DB, sku models.SKU, batch models.Batch, opts RaiseOptions) (RaiseResult, error) {
	if batch.SKUID != sku.ID || batch.TenantID != sku.TenantID {
		return RaiseResult{}, pkgerrors.New(pkgerrors.CodeInvalidOperation, "batch does not belong to sku")
	}
	if !ExpiresWithin(batch.ExpiryDate, e.now(), e.expiryWindow) {
		return RaiseResult{}, nil
	}
	return e.raise(ctx, tx, sku, enums.AlertTypeBatchExpiry, Snapshot{
		SKUName:      sku.Name,
		CurrentStock: batch.RemainingQuantity,
	}, opts)
}

// ExpiryCutoff is the last expiry date (inclusive, UTC midnight) that falls inside window.
func (e *Engine) ExpiryCutoff() time.Time {
	return ExpiryCutoff(e.now(), e.expiryWindow)
}

func (e *Engine) raise(ctx context.Context, tx *gorm.DB, sku models.SKU, alertType enums.AlertType, snapshot Snapshot, opts RaiseOptions) (RaiseResult, error) {
	if tx == nil {
		return RaiseResult{}, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	repo := e.repo.WithTx(tx)

	candidate := &models.Alert{
		TenantID:     sku.TenantID,
		SKUID:        sku.ID,
		Type:         alertType,
		SKUName:      snapshot.SKUName,
		CurrentStock: snapshot.CurrentStock,
		Threshold:    snapshot.Threshold,
	}
	inserted, err := repo.InsertIfAbsent(ctx, candidate)
	if err != nil {
		return RaiseResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert alert")
	}

	result := RaiseResult{Created: inserted}
	if !inserted && opts.Rearm {
		existing, err := repo.FindByKey(ctx, sku.TenantID, sku.ID, alertType)
		if err != nil {
			return RaiseResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load alert")
		}
		rearmed, err := repo.Rearm(ctx, existing.ID, snapshot)
		if err != nil {
			return RaiseResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rearm alert")
		}
		result.Rearmed = rearmed
	}

	alert, err := repo.FindByKey(ctx, sku.TenantID, sku.ID, alertType)
	if err != nil {
		return RaiseResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load alert")
	}
	result.Alert = alert

	if !result.Raised() {
		return result, nil
	}

	if err := e.outbox.Emit(ctx, tx, outbox.DomainEvent{
		TenantID:      sku.TenantID,
		EventType:     enums.EventAlertRaised,
		AggregateType: enums.AggregateAlert,
		AggregateID:   alert.ID,
		ActorID:       opts.ActorID,
		Data: payloads.AlertRaisedEvent{
			AlertID:      alert.ID,
			SKUID:        alert.SKUID,
			Type:         alert.Type,
			SKUName:      alert.SKUName,
			CurrentStock: alert.CurrentStock,
			Threshold:    alert.Threshold,
			Rearmed:      result.Rearmed,
		},
	}); err != nil {
		return RaiseResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit alert raised")
	}
	e.metrics.IncAlertRaised(string(alertType), result.Rearmed)
	return result, nil
}

// Acknowledge marks an alert as seen by actorID. Acknowledging an alert twice keeps the
// first acknowledgement.
func (e *Engine) Acknowledge(ctx context.Context, tenantID, alertID uuid.UUID, actorID *uuid.UUID) (*models.Alert, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if alertID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "alert id required")
	}

	var alert *models.Alert
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := e.repo.WithTx(tx)
		now := e.now()
		updated, err := repo.Acknowledge(ctx, tenantID, alertID, actorID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acknowledge alert")
		}

		found, err := repo.FindByID(ctx, tenantID, alertID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "alert not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load alert")
		}
		alert = found
		if !updated {
			return nil
		}

		return e.outbox.Emit(ctx, tx, outbox.DomainEvent{
			TenantID:      tenantID,
			EventType:     enums.EventAlertAcknowledged,
			AggregateType: enums.AggregateAlert,
			AggregateID:   found.ID,
			ActorID:       actorID,
			Data: payloads.AlertAcknowledgedEvent{
				AlertID:        found.ID,
				SKUID:          found.SKUID,
				Type:           found.Type,
				AcknowledgedBy: actorID,
				AcknowledgedAt: now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return alert, nil
}

func (e *Engine) Get(ctx context.Context, tenantID, alertID uuid.UUID) (*models.Alert, error) {
	alert, err := e.repo.FindByID(ctx, tenantID, alertID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "alert not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load alert")
	}
	return alert, nil
}

// ListParams filters the alert listing.
type ListParams struct {
	TenantID     uuid.UUID
	SKUID        *uuid.UUID
	Type         *enums.AlertType
	Acknowledged *bool
	Limit        int
	Cursor       string
}

// ListResult wraps returned alerts and the cursor for the next page.
type ListResult struct {
	Items  []models.Alert `json:"items"`
	Cursor string         `json:"cursor"`
}

func (e *Engine) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if params.Type != nil && !params.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid alert type")
	}
	query := listParams{
		TenantID:     params.TenantID,
		SKUID:        params.SKUID,
		Type:         params.Type,
		Acknowledged: params.Acknowledged,
		Limit:        params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, err := e.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list alerts")
	}
	items, next := pagination.Trim(rows, params.Limit, func(a models.Alert) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	})
	return &ListResult{Items: items, Cursor: next}, nil
}

// ExpiryCutoff returns today (UTC, date granularity) plus window.
func ExpiryCutoff(now time.Time, window time.Duration) time.Time {
	return DateOf(now).Add(window)
}

// ExpiresWithin reports whether expiry falls on or before the cutoff for window.
func ExpiresWithin(expiry *time.Time, now time.Time, window time.Duration) bool {
	if expiry == nil {
		return false
	}
	return !DateOf(*expiry).After(ExpiryCutoff(now, window))
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
