package riders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	"github.com/angelmondragon/stockroute-backend/pkg/pagination"
	"github.com/angelmondragon/stockroute-backend/pkg/types"
)

// Repository exposes persistence helpers for riders and their location trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rider *models.Rider) error
	FindByID(ctx context.Context, tenantID, riderID uuid.UUID) (*models.Rider, error)
	UpdateColumns(ctx context.Context, tenantID, riderID uuid.UUID, fields map[string]any) error
	SetLocation(ctx context.Context, tenantID, riderID uuid.UUID, point types.GeoPoint, at time.Time) (int64, error)
	AppendLocation(ctx context.Context, entry *models.RiderLocationHistory) error
	List(ctx context.Context, params listParams) ([]models.Rider, error)
	ListAvailable(ctx context.Context, tenantID uuid.UUID, vehicle *enums.VehicleType) ([]models.Rider, error)
	LocationHistory(ctx context.Context, params historyParams) ([]models.RiderLocationHistory, error)
}

type listParams struct {
	TenantID    uuid.UUID
	Status      *enums.RiderStatus
	VehicleType *enums.VehicleType
	Search      string
	Limit       int
	Cursor      *pagination.Cursor
}

type historyParams struct {
	TenantID uuid.UUID
	RiderID  uuid.UUID
	Since    time.Time
	Limit    int
	Cursor   *pagination.Cursor
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a riders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, rider *models.Rider) error {
	return r.db.WithContext(ctx).Create(rider).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, tenantID, riderID uuid.UUID) (*models.Rider, error) {
	var rider models.Rider
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", riderID, tenantID).
		First(&rider).Error; err != nil {
		return nil, err
	}
	return &rider, nil
}

func (r *repositoryImpl) UpdateColumns(ctx context.Context, tenantID, riderID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Rider{}).
		Where("id = ? AND tenant_id = ?", riderID, tenantID).
		Updates(fields).Error
}

func (r *repositoryImpl) SetLocation(ctx context.Context, tenantID, riderID uuid.UUID, point types.GeoPoint, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Rider{}).
		Where("id = ? AND tenant_id = ?", riderID, tenantID).
		Updates(map[string]any{
			"location":   point,
			"updated_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) AppendLocation(ctx context.Context, entry *models.RiderLocationHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) List(ctx context.Context, params listParams) ([]models.Rider, error) {
	query := r.db.WithContext(ctx).Model(&models.Rider{}).Where("tenant_id = ?", params.TenantID)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.VehicleType != nil {
		query = query.Where("vehicle_type = ?", *params.VehicleType)
	}
	if term := strings.TrimSpace(params.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?",
			like, like, like, like,
		)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Rider
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) ListAvailable(ctx context.Context, tenantID uuid.UUID, vehicle *enums.VehicleType) ([]models.Rider, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Rider{}).
		Where("tenant_id = ? AND status = ?", tenantID, enums.RiderStatusActive)
	if vehicle != nil {
		query = query.Where("vehicle_type = ?", *vehicle)
	}
	var rows []models.Rider
	if err := query.Order("first_name ASC, last_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) LocationHistory(ctx context.Context, params historyParams) ([]models.RiderLocationHistory, error) {
	query := r.db.WithContext(ctx).
		Model(&models.RiderLocationHistory{}).
		Where(`tenant_id = ? AND rider_id = ? AND "timestamp" >= ?`, params.TenantID, params.RiderID, params.Since)
	if params.Cursor != nil {
		query = query.Where(`("timestamp", id) < (?, ?)`, params.Cursor.CreatedAt, params.Cursor.ID)
	}
	var rows []models.RiderLocationHistory
	if err := query.Order(`"timestamp" DESC, id DESC`).Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
