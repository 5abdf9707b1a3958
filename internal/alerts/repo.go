package alerts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	"github.com/angelmondragon/stockroute-backend/pkg/pagination"
)

// Repository exposes persistence helpers for inventory alerts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertIfAbsent(ctx context.Context, alert *models.Alert) (bool, error)
	FindByKey(ctx context.Context, tenantID, skuID uuid.UUID, alertType enums.AlertType) (*models.Alert, error)
	FindByID(ctx context.Context, tenantID, alertID uuid.UUID) (*models.Alert, error)
	Rearm(ctx context.Context, alertID uuid.UUID, snapshot Snapshot) (bool, error)
	Acknowledge(ctx context.Context, tenantID, alertID uuid.UUID, actorID *uuid.UUID, now time.Time) (bool, error)
	List(ctx context.Context, params listParams) ([]models.Alert, error)
}

// Snapshot is the SKU state copied onto an alert row when it is raised.
type Snapshot struct {
	SKUName      string
	CurrentStock int
	Threshold    *int
}

type listParams struct {
	TenantID     uuid.UUID
	SKUID        *uuid.UUID
	Type         *enums.AlertType
	Acknowledged *bool
	Limit        int
	Cursor       *pagination.Cursor
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an alerts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// InsertIfAbsent writes alert unless a row already exists for its (tenant, sku, type)
// key. It reports whether a row was written.
func (r *repositoryImpl) InsertIfAbsent(ctx context.Context, alert *models.Alert) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "sku_id"}, {Name: "type"}},
			DoNothing: true,
		}).
		Create(alert)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) FindByKey(ctx context.Context, tenantID, skuID uuid.UUID, alertType enums.AlertType) (*models.Alert, error) {
	var alert models.Alert
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sku_id = ? AND type = ?", tenantID, skuID, alertType).
		First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, tenantID, alertID uuid.UUID) (*models.Alert, error) {
	var alert models.Alert
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", alertID, tenantID).
		First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// Rearm clears the acknowledgement of an acknowledged alert and refreshes its snapshot.
// Alerts that are still open are left untouched.
func (r *repositoryImpl) Rearm(ctx context.Context, alertID uuid.UUID, snapshot Snapshot) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("id = ? AND acknowledged = ?", alertID, true).
		Updates(map[string]any{
			"acknowledged":    false,
			"acknowledged_by": nil,
			"acknowledged_at": nil,
			"sku_name":        snapshot.SKUName,
			"current_stock":   snapshot.CurrentStock,
			"threshold":       snapshot.Threshold,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) Acknowledge(ctx context.Context, tenantID, alertID uuid.UUID, actorID *uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("id = ? AND tenant_id = ? AND acknowledged = ?", alertID, tenantID, false).
		Updates(map[string]any{
			"acknowledged":    true,
			"acknowledged_by": actorID,
			"acknowledged_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listParams) ([]models.Alert, error) {
	query := r.db.WithContext(ctx).Model(&models.Alert{}).Where("tenant_id = ?", params.TenantID)
	if params.SKUID != nil {
		query = query.Where("sku_id = ?", *params.SKUID)
	}
	if params.Type != nil {
		query = query.Where("type = ?", *params.Type)
	}
	if params.Acknowledged != nil {
		query = query.Where("acknowledged = ?", *params.Acknowledged)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Alert
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
