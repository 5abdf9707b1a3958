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
	"github.com/angelmondragon/stockroute-backend/pkg/outbox"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/stockroute-backend/pkg/pagination"
)

// CreateBatch records a received lot for a batch-tracked SKU and raises an expiry alert
// when the lot is already close to expiring.
func (s *service) CreateBatch(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, input CreateBatchInput) (*models.Batch, error) {
	if strings.TrimSpace(input.BatchNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch_number is required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if input.CostPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost_price cannot be negative")
	}

	remaining := input.Quantity
	if input.RemainingQuantity != nil {
		remaining = *input.RemainingQuantity
	}
	if remaining > input.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "remaining_quantity cannot exceed quantity")
	}
	batch := &models.Batch{
		TenantID:          tenantID,
		SKUID:             input.SKUID,
		BatchNumber:       strings.TrimSpace(input.BatchNumber),
		Quantity:          input.Quantity,
		RemainingQuantity: remaining,
		ReceivedAt:        dateOnly(input.ReceivedAt),
		ExpiryDate:        dateOnly(input.ExpiryDate),
		CostPrice:         input.CostPrice.Round(2),
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sku, err := loadSKU(ctx, repo, tenantID, input.SKUID)
		if err != nil {
			return err
		}
		if !sku.TrackBatches {
			return pkgerrors.New(pkgerrors.CodeInvalidOperation, "sku is not configured for batch tracking")
		}

		if err := repo.CreateBatch(ctx, batch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert batch")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			TenantID:      tenantID,
			EventType:     enums.EventBatchReceived,
			AggregateType: enums.AggregateBatch,
			AggregateID:   batch.ID,
			ActorID:       actorID,
			Data: payloads.BatchReceivedEvent{
				BatchID:     batch.ID,
				SKUID:       batch.SKUID,
				BatchNumber: batch.BatchNumber,
				Quantity:    batch.Quantity,
				ExpiryDate:  batch.ExpiryDate,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit batch received")
		}

		_, err = s.alerts.RaiseBatchExpiry(ctx, tx, *sku, *batch, alerts.RaiseOptions{Rearm: true, ActorID: actorID})
		return err
	})
	if err != nil {
		return nil, asDomainError(err, "create batch")
	}
	return batch, nil
}

// UpdateBatch changes the descriptive fields of a batch. Quantities only move through
// stock adjustments.
func (s *service) UpdateBatch(ctx context.Context, tenantID, batchID uuid.UUID, actorID *uuid.UUID, input UpdateBatchInput) (*models.Batch, error) {
	fields := map[string]any{}
	if input.BatchNumber != nil {
		number := strings.TrimSpace(*input.BatchNumber)
		if number == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch_number cannot be empty")
		}
		fields["batch_number"] = number
	}
	if input.ReceivedAt != nil {
		fields["received_at"] = dateOnly(input.ReceivedAt)
	}
	if input.ExpiryDate != nil {
		fields["expiry_date"] = dateOnly(input.ExpiryDate)
	}
	if input.CostPrice != nil {
		if input.CostPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost_price cannot be negative")
		}
		fields["cost_price"] = input.CostPrice.Round(2)
	}

	var updated *models.Batch
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := loadBatch(ctx, repo, tenantID, batchID); err != nil {
			return err
		}
		if err := repo.UpdateBatchColumns(ctx, tenantID, batchID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update batch")
		}
		batch, err := loadBatch(ctx, repo, tenantID, batchID)
		if err != nil {
			return err
		}
		updated = batch

		sku, err := loadSKU(ctx, repo, tenantID, batch.SKUID)
		if err != nil {
			return err
		}
		_, err = s.alerts.RaiseBatchExpiry(ctx, tx, *sku, *batch, alerts.RaiseOptions{ActorID: actorID})
		return err
	})
	if err != nil {
		return nil, asDomainError(err, "update batch")
	}
	return updated, nil
}

func (s *service) ListBatches(ctx context.Context, params ListBatchesParams) (*BatchListResult, error) {
	if params.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if params.ExpiringWithinDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "days cannot be negative")
	}
	if params.SKUID != nil {
		if _, err := loadSKU(ctx, s.repo, params.TenantID, *params.SKUID); err != nil {
			return nil, err
		}
	}
	cursor, err := parseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	filter := BatchFilter{
		TenantID: params.TenantID,
		SKUID:    params.SKUID,
		Limit:    params.Limit,
		Cursor:   cursor,
	}
	if params.ExpiringWithinDays > 0 {
		cutoff := alerts.ExpiryCutoff(time.Now(), time.Duration(params.ExpiringWithinDays)*24*time.Hour)
		filter.ExpiringBy = &cutoff
	}

	rows, err := s.repo.ListBatches(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list batches")
	}
	items, next := pagination.Trim(rows, params.Limit, func(b models.Batch) pagination.Cursor {
		return pagination.Cursor{CreatedAt: b.CreatedAt, ID: b.ID}
	})
	return &BatchListResult{Items: items, Cursor: next}, nil
}

func loadBatch(ctx context.Context, repo *Repository, tenantID, batchID uuid.UUID) (*models.Batch, error) {
	batch, err := repo.FindBatch(ctx, tenantID, batchID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load batch")
	}
	return batch, nil
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := alerts.DateOf(*t)
	return &d
}
