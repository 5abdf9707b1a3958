package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/pagination"
)

// Repository wires together SKU, batch and adjustment persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) CreateSKU(ctx context.Context, sku *models.SKU) error {
	return r.db.WithContext(ctx).Create(sku).Error
}

// FindSKU loads a SKU scoped to tenantID.
func (r *Repository) FindSKU(ctx context.Context, tenantID, skuID uuid.UUID) (*models.SKU, error) {
	var sku models.SKU
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", skuID, tenantID).
		First(&sku).Error; err != nil {
		return nil, err
	}
	return &sku, nil
}

// FindSKUWithTx loads a SKU on tx. Used by jobs that hold their own transaction.
func (r *Repository) FindSKUWithTx(ctx context.Context, tx *gorm.DB, tenantID, skuID uuid.UUID) (*models.SKU, error) {
	return r.WithTx(tx).FindSKU(ctx, tenantID, skuID)
}

// UpdateSKUColumns writes the given columns. stock_level is never part of fields.
func (r *Repository) UpdateSKUColumns(ctx context.Context, tenantID, skuID uuid.UUID, fields map[string]any) error {
	delete(fields, "stock_level")
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.SKU{}).
		Where("id = ? AND tenant_id = ?", skuID, tenantID).
		Updates(fields).Error
}

// IncrementStock applies delta relative to the stored level and reports the rows touched.
func (r *Repository) IncrementStock(ctx context.Context, tenantID, skuID uuid.UUID, delta int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SKU{}).
		Where("id = ? AND tenant_id = ?", skuID, tenantID).
		Updates(map[string]any{
			"stock_level": gorm.Expr("stock_level + ?", delta),
			"updated_at":  time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// SKUFilter narrows the SKU listing.
type SKUFilter struct {
	TenantID     uuid.UUID
	Category     string
	SupplierID   *uuid.UUID
	LowStockOnly bool
	Limit        int
	Cursor       *pagination.Cursor
}

func (r *Repository) ListSKUs(ctx context.Context, filter SKUFilter) ([]models.SKU, error) {
	query := r.db.WithContext(ctx).Model(&models.SKU{}).Where("tenant_id = ?", filter.TenantID)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.LowStockOnly {
		query = query.Where("reorder_threshold IS NOT NULL AND stock_level <= reorder_threshold")
	}
	if filter.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.ID)
	}

	var rows []models.SKU
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(filter.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) CreateBatch(ctx context.Context, batch *models.Batch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

// FindBatch loads a batch scoped to tenantID.
func (r *Repository) FindBatch(ctx context.Context, tenantID, batchID uuid.UUID) (*models.Batch, error) {
	var batch models.Batch
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", batchID, tenantID).
		First(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// FindBatchForSKU loads a batch only when it belongs to skuID within tenantID.
func (r *Repository) FindBatchForSKU(ctx context.Context, tenantID, skuID, batchID uuid.UUID) (*models.Batch, error) {
	var batch models.Batch
	if err := r.db.WithContext(ctx).
		Where("id = ? AND sku_id = ? AND tenant_id = ?", batchID, skuID, tenantID).
		First(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *Repository) UpdateBatchColumns(ctx context.Context, tenantID, batchID uuid.UUID, fields map[string]any) error {
	delete(fields, "quantity")
	delete(fields, "remaining_quantity")
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Batch{}).
		Where("id = ? AND tenant_id = ?", batchID, tenantID).
		Updates(fields).Error
}

// IncrementBatchRemaining applies delta to remaining_quantity relative to the stored value.
func (r *Repository) IncrementBatchRemaining(ctx context.Context, tenantID, batchID uuid.UUID, delta int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Batch{}).
		Where("id = ? AND tenant_id = ?", batchID, tenantID).
		Where("remaining_quantity + ? <= quantity", delta).
		UpdateColumn("remaining_quantity", gorm.Expr("remaining_quantity + ?", delta))
	return result.RowsAffected, result.Error
}

// BatchFilter narrows batch listings. ExpiringBy keeps batches whose expiry date is on
// or before the given date.
type BatchFilter struct {
	TenantID   uuid.UUID
	SKUID      *uuid.UUID
	ExpiringBy *time.Time
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *Repository) ListBatches(ctx context.Context, filter BatchFilter) ([]models.Batch, error) {
	query := r.db.WithContext(ctx).Model(&models.Batch{}).Where("tenant_id = ?", filter.TenantID)
	if filter.SKUID != nil {
		query = query.Where("sku_id = ?", *filter.SKUID)
	}
	if filter.ExpiringBy != nil {
		query = query.Where("expiry_date IS NOT NULL AND expiry_date <= ?", *filter.ExpiringBy)
	}
	if filter.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.ID)
	}

	var rows []models.Batch
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(filter.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ExpiringBatchesAfter returns up to limit batches expiring on or before cutoff across
// all tenants, ordered by id, starting after the given id.
func (r *Repository) ExpiringBatchesAfter(ctx context.Context, cutoff time.Time, after uuid.UUID, limit int) ([]models.Batch, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Batch{}).
		Where("expiry_date IS NOT NULL AND expiry_date <= ?", cutoff)
	if after != uuid.Nil {
		query = query.Where("id > ?", after)
	}
	var rows []models.Batch
	if err := query.Order("id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) CreateAdjustment(ctx context.Context, adjustment *models.StockAdjustment) error {
	return r.db.WithContext(ctx).Create(adjustment).Error
}

// AdjustmentFilter narrows the adjustment listing.
type AdjustmentFilter struct {
	TenantID uuid.UUID
	SKUID    *uuid.UUID
	Reason   string
	Limit    int
	Cursor   *pagination.Cursor
}

func (r *Repository) ListAdjustments(ctx context.Context, filter AdjustmentFilter) ([]models.StockAdjustment, error) {
	query := r.db.WithContext(ctx).Model(&models.StockAdjustment{}).Where("tenant_id = ?", filter.TenantID)
	if filter.SKUID != nil {
		query = query.Where("sku_id = ?", *filter.SKUID)
	}
	if filter.Reason != "" {
		query = query.Where("reason = ?", filter.Reason)
	}
	if filter.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.ID)
	}

	var rows []models.StockAdjustment
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(filter.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
