package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroute-backend/internal/alerts"
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

// Service exposes the SKU ledger and batch tracker.
type Service interface {
	CreateSKU(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, input CreateSKUInput) (*models.SKU, error)
	UpdateSKU(ctx context.Context, tenantID, skuID uuid.UUID, actorID *uuid.UUID, input UpdateSKUInput) (*models.SKU, error)
	GetSKU(ctx context.Context, tenantID, skuID uuid.UUID) (*models.SKU, error)
	ListSKUs(ctx context.Context, params ListSKUsParams) (*SKUListResult, error)
	AdjustStock(ctx context.Context, tenantID, skuID uuid.UUID, input AdjustStockInput, actorID *uuid.UUID) (*models.SKU, *models.StockAdjustment, error)
	ListAdjustments(ctx context.Context, params ListAdjustmentsParams) (*AdjustmentListResult, error)
	CreateBatch(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, input CreateBatchInput) (*models.Batch, error)
	UpdateBatch(ctx context.Context, tenantID, batchID uuid.UUID, actorID *uuid.UUID, input UpdateBatchInput) (*models.Batch, error)
	ListBatches(ctx context.Context, params ListBatchesParams) (*BatchListResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// AlertRaiser records inventory alerts on the caller's transaction.
type AlertRaiser interface {
	RaiseLowStock(ctx context.Context, tx *gorm.DB, sku models.SKU, opts alerts.RaiseOptions) (alerts.RaiseResult, error)
	RaiseBatchExpiry(ctx context.Context, tx *gorm.DB, sku models.SKU, batch models.Batch, opts alerts.RaiseOptions) (alerts.RaiseResult, error)
}

type service struct {
	repo    *Repository
	tx      txRunner
	alerts  AlertRaiser
	outbox  outboxPublisher
	metrics *metrics.DomainMetrics
}

// NewService wires inventory dependencies.
func NewService(repo *Repository, tx txRunner, alertRaiser AlertRaiser, outboxPublisher outboxPublisher, domainMetrics *metrics.DomainMetrics) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if alertRaiser == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "alert engine required")
	}
	if outboxPublisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		alerts:  alertRaiser,
		outbox:  outboxPublisher,
		metrics: domainMetrics,
	}, nil
}

func (s *service) CreateSKU(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, input CreateSKUInput) (*models.SKU, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.ReorderThreshold != nil && *input.ReorderThreshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder_threshold cannot be negative")
	}

	sku := &models.SKU{
		TenantID:         tenantID,
		Name:             strings.TrimSpace(input.Name),
		SKUCode:          input.SKUCode,
		Category:         strings.TrimSpace(input.Category),
		Attributes:       types.JSONMap(input.Attributes),
		Barcode:          input.Barcode,
		Price:            input.Price.Round(2),
		SupplierID:       input.SupplierID,
		StockLevel:       input.StockLevel,
		TrackBatches:     input.TrackBatches,
		ReorderThreshold: input.ReorderThreshold,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateSKU(ctx, sku); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert sku")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			TenantID:      tenantID,
			EventType:     enums.EventSKUCreated,
			AggregateType: enums.AggregateSKU,
			AggregateID:   sku.ID,
			ActorID:       actorID,
			Data: payloads.SKUCreatedEvent{
				SKUID:            sku.ID,
				Name:             sku.Name,
				Category:         sku.Category,
				StockLevel:       sku.StockLevel,
				ReorderThreshold: sku.ReorderThreshold,
				TrackBatches:     sku.TrackBatches,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit sku created")
		}
		_, err := s.alerts.RaiseLowStock(ctx, tx, *sku, alerts.RaiseOptions{ActorID: actorID})
		return err
	})
	if err != nil {
		return nil, asDomainError(err, "create sku")
	}
	return sku, nil
}

func (s *service) UpdateSKU(ctx context.Context, tenantID, skuID uuid.UUID, actorID *uuid.UUID, input UpdateSKUInput) (*models.SKU, error) {
	fields, err := skuUpdateFields(input)
	if err != nil {
		return nil, err
	}

	var updated *models.SKU
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := loadSKU(ctx, repo, tenantID, skuID)
		if err != nil {
			return err
		}
		wasLow := current.IsLowStock()

		if err := repo.UpdateSKUColumns(ctx, tenantID, skuID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sku")
		}
		updated, err = loadSKU(ctx, repo, tenantID, skuID)
		if err != nil {
			return err
		}

		_, err = s.alerts.RaiseLowStock(ctx, tx, *updated, alerts.RaiseOptions{
			Rearm:   !wasLow && updated.IsLowStock(),
			ActorID: actorID,
		})
		return err
	})
	if err != nil {
		return nil, asDomainError(err, "update sku")
	}
	return updated, nil
}

func skuUpdateFields(input UpdateSKUInput) (map[string]any, error) {
	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		fields["name"] = name
	}
	if input.SKUCode != nil {
		fields["sku_code"] = *input.SKUCode
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category cannot be empty")
		}
		fields["category"] = category
	}
	if input.Attributes != nil {
		fields["attributes"] = types.JSONMap(*input.Attributes)
	}
	if input.Barcode != nil {
		fields["barcode"] = *input.Barcode
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		fields["price"] = input.Price.Round(2)
	}
	if input.SupplierID.Valid {
		fields["supplier_id"] = input.SupplierID.Value
	}
	if input.TrackBatches != nil {
		fields["track_batches"] = *input.TrackBatches
	}
	if input.ReorderThreshold.Valid {
		if input.ReorderThreshold.Value != nil && *input.ReorderThreshold.Value < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder_threshold cannot be negative")
		}
		fields["reorder_threshold"] = input.ReorderThreshold.Value
	}
	if len(fields) > 0 {
		fields["updated_at"] = time.Now().UTC()
	}
	return fields, nil
}

func (s *service) GetSKU(ctx context.Context, tenantID, skuID uuid.UUID) (*models.SKU, error) {
	return loadSKU(ctx, s.repo, tenantID, skuID)
}

func (s *service) ListSKUs(ctx context.Context, params ListSKUsParams) (*SKUListResult, error) {
	if params.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	cursor, err := parseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListSKUs(ctx, SKUFilter{
		TenantID:     params.TenantID,
		Category:     strings.TrimSpace(params.Category),
		SupplierID:   params.SupplierID,
		LowStockOnly: params.LowStockOnly,
		Limit:        params.Limit,
		Cursor:       cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list skus")
	}
	items, next := pagination.Trim(rows, params.Limit, func(sku models.SKU) pagination.Cursor {
		return pagination.Cursor{CreatedAt: sku.CreatedAt, ID: sku.ID}
	})
	return &SKUListResult{Items: items, Cursor: next}, nil
}

// AdjustStock applies a signed quantity to a SKU (and optionally one of its batches),
// records the adjustment and raises a low-stock alert when the new level warrants it.
// Everything happens in one transaction.
func (s *service) AdjustStock(ctx context.Context, tenantID, skuID uuid.UUID, input AdjustStockInput, actorID *uuid.UUID) (*models.SKU, *models.StockAdjustment, error) {
	if tenantID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if input.Quantity == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-zero")
	}
	if !input.Reason.IsValid() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid adjustment reason")
	}

	var (
		sku            *models.SKU
		adjustment     *models.StockAdjustment
		batchRemaining *int
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := loadSKU(ctx, repo, tenantID, skuID)
		if err != nil {
			return err
		}

		if input.BatchID != nil {
			if !current.TrackBatches {
				return pkgerrors.New(pkgerrors.CodeInvalidOperation, "sku is not configured for batch tracking")
			}
			batch, err := repo.FindBatchForSKU(ctx, tenantID, skuID, *input.BatchID)
			if err != nil {
				if db.IsNotFound(err) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load batch")
			}
			rows, err := repo.IncrementBatchRemaining(ctx, tenantID, batch.ID, input.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update batch remaining quantity")
			}
			if rows == 0 {
				return pkgerrors.New(pkgerrors.CodeInvalidOperation, "adjustment would raise batch remaining quantity above its received quantity").
					WithDetails(map[string]any{"batch_id": batch.ID, "quantity": batch.Quantity, "remaining_quantity": batch.RemainingQuantity})
			}
			reloaded, err := repo.FindBatch(ctx, tenantID, batch.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload batch")
			}
			batchRemaining = &reloaded.RemainingQuantity
		}

		affected, err := repo.IncrementStock(ctx, tenantID, skuID, input.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock level")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sku not found")
		}

		sku, err = loadSKU(ctx, repo, tenantID, skuID)
		if err != nil {
			return err
		}

		adjustment = &models.StockAdjustment{
			TenantID:  tenantID,
			SKUID:     skuID,
			Quantity:  input.Quantity,
			Reason:    input.Reason,
			BatchID:   input.BatchID,
			Reference: input.Reference,
			Note:      input.Note,
			CreatedBy: actorID,
		}
		if err := repo.CreateAdjustment(ctx, adjustment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert stock adjustment")
		}

		if _, err := s.alerts.RaiseLowStock(ctx, tx, *sku, alerts.RaiseOptions{
			Rearm:   crossedThreshold(*sku, input.Quantity),
			ActorID: actorID,
		}); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			TenantID:      tenantID,
			EventType:     enums.EventStockAdjusted,
			AggregateType: enums.AggregateSKU,
			AggregateID:   skuID,
			ActorID:       actorID,
			Data: payloads.StockAdjustedEvent{
				AdjustmentID:   adjustment.ID,
				SKUID:          skuID,
				BatchID:        input.BatchID,
				Quantity:       input.Quantity,
				Reason:         input.Reason,
				Reference:      input.Reference,
				StockLevel:     sku.StockLevel,
				BatchRemaining: batchRemaining,
				CreatedBy:      actorID,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit stock adjusted")
		}
		return nil
	})
	if err != nil {
		return nil, nil, asDomainError(err, "adjust stock")
	}

	s.metrics.IncStockAdjustment(string(input.Reason))
	return sku, adjustment, nil
}

// crossedThreshold reports whether applying delta moved the level from above the
// reorder threshold to at or below it.
func crossedThreshold(sku models.SKU, delta int) bool {
	if sku.ReorderThreshold == nil {
		return false
	}
	threshold := *sku.ReorderThreshold
	previous := sku.StockLevel - delta
	return previous > threshold && sku.StockLevel <= threshold
}

func (s *service) ListAdjustments(ctx context.Context, params ListAdjustmentsParams) (*AdjustmentListResult, error) {
	if params.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	filter := AdjustmentFilter{
		TenantID: params.TenantID,
		SKUID:    params.SKUID,
		Limit:    params.Limit,
	}
	if params.Reason != nil {
		if !params.Reason.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid adjustment reason")
		}
		filter.Reason = string(*params.Reason)
	}
	cursor, err := parseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	filter.Cursor = cursor

	rows, err := s.repo.ListAdjustments(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock adjustments")
	}
	items, next := pagination.Trim(rows, params.Limit, func(a models.StockAdjustment) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	})
	return &AdjustmentListResult{Items: items, Cursor: next}, nil
}

func loadSKU(ctx context.Context, repo *Repository, tenantID, skuID uuid.UUID) (*models.SKU, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	sku, err := repo.FindSKU(ctx, tenantID, skuID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sku not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sku")
	}
	return sku, nil
}

func parseCursor(value string) (*pagination.Cursor, error) {
	if value == "" {
		return nil, nil
	}
	cursor, err := pagination.ParseCursor(value)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return cursor, nil
}

func asDomainError(err error, op string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
