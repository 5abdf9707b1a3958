package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroute-backend/internal/alerts"
	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
)

const defaultExpirySweepPageSize = 500

// BatchExpiryJobParams configures the batch expiry sweep.
type BatchExpiryJobParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Batches  expiringBatchSource
	SKUs     skuReader
	Alerts   batchExpiryAlerter
	PageSize int
}

type expiringBatchSource interface {
	ExpiringBatchesAfter(ctx context.Context, cutoff time.Time, after uuid.UUID, limit int) ([]models.Batch, error)
}

type skuReader interface {
	FindSKUWithTx(ctx context.Context, tx *gorm.DB, tenantID, skuID uuid.UUID) (*models.SKU, error)
}

type batchExpiryAlerter interface {
	RaiseBatchExpiry(ctx context.Context, tx *gorm.DB, sku models.SKU, batch models.Batch, opts alerts.RaiseOptions) (alerts.RaiseResult, error)
	ExpiryCutoff() time.Time
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// NewBatchExpiryJob builds the sweep that raises batch_expiry alerts for batches that
// moved into the expiry window since they were last saved.
func NewBatchExpiryJob(params BatchExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Batches == nil {
		return nil, fmt.Errorf("batch repository required")
	}
	if params.SKUs == nil {
		return nil, fmt.Errorf("sku repository required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("alert engine required")
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = defaultExpirySweepPageSize
	}
	return &batchExpiryJob{
		logg:     params.Logger,
		db:       params.DB,
		batches:  params.Batches,
		skus:     params.SKUs,
		alerts:   params.Alerts,
		pageSize: pageSize,
	}, nil
}

type batchExpiryJob struct {
	logg     *logger.Logger
	db       txRunner
	batches  expiringBatchSource
	skus     skuReader
	alerts   batchExpiryAlerter
	pageSize int
}

func (j *batchExpiryJob) Name() string { return "batch-expiry-sweep" }

func (j *batchExpiryJob) Run(ctx context.Context) error {
	cutoff := j.alerts.ExpiryCutoff()
	var (
		errs    []error
		after   uuid.UUID
		scanned int
		raised  int
	)
	for {
		page, err := j.batches.ExpiringBatchesAfter(ctx, cutoff, after, j.pageSize)
		if err != nil {
			errs = append(errs, fmt.Errorf("query expiring batches: %w", err))
			break
		}
		for _, batch := range page {
			scanned++
			ok, err := j.raise(ctx, batch)
			if err != nil {
				errs = append(errs, fmt.Errorf("batch %s: %w", batch.ID, err))
				continue
			}
			if ok {
				raised++
			}
		}
		if len(page) < j.pageSize {
			break
		}
		after = page[len(page)-1].ID
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff.Format(time.DateOnly),
		"scanned": scanned,
		"raised":  raised,
		"errors":  len(errs),
	})
	j.logg.Info(logCtx, "batch expiry sweep complete")
	return multierr.Combine(errs...)
}

func (j *batchExpiryJob) raise(ctx context.Context, batch models.Batch) (bool, error) {
	var raised bool
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		sku, err := j.skus.FindSKUWithTx(ctx, tx, batch.TenantID, batch.SKUID)
		if err != nil {
			return fmt.Errorf("load sku: %w", err)
		}
		result, err := j.alerts.RaiseBatchExpiry(ctx, tx, *sku, batch, alerts.RaiseOptions{})
		if err != nil {
			return err
		}
		raised = result.Created
		return nil
	})
	return raised, err
}
