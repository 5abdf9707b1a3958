package dispatch

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	"github.com/angelmondragon/stockroute-backend/pkg/pagination"
)

// Repository exposes persistence helpers for dispatch orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.DispatchOrder) error
	FindByID(ctx context.Context, tenantID, orderID uuid.UUID) (*models.DispatchOrder, error)
	FindForUpdate(ctx context.Context, tenantID, orderID uuid.UUID) (*models.DispatchOrder, error)
	UpdateIfStatus(ctx context.Context, tenantID, orderID uuid.UUID, from enums.DispatchStatus, fields map[string]any) (int64, error)
	FindRider(ctx context.Context, tenantID, riderID uuid.UUID) (*models.Rider, error)
	List(ctx context.Context, params listParams) ([]models.DispatchOrder, error)
	Pending(ctx context.Context, tenantID uuid.UUID, priority *enums.DispatchPriority, limit int) ([]models.DispatchOrder, error)
	Assigned(ctx context.Context, tenantID uuid.UUID, riderID *uuid.UUID, limit int) ([]models.DispatchOrder, error)
	CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[enums.DispatchStatus]int64, error)
	CountByPriority(ctx context.Context, tenantID uuid.UUID) (map[enums.DispatchPriority]int64, error)
	AverageDeliveryMinutes(ctx context.Context, tenantID uuid.UUID) (*float64, error)
}

type listParams struct {
	TenantID uuid.UUID
	Status   *enums.DispatchStatus
	Priority *enums.DispatchPriority
	RiderID  *uuid.UUID
	Limit    int
	Cursor   *pagination.Cursor
}

const priorityRank = `CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END`

type repository struct {
	db *gorm.DB
}

// NewRepository returns a dispatch repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.DispatchOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, tenantID, orderID uuid.UUID) (*models.DispatchOrder, error) {
	var order models.DispatchOrder
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", orderID, tenantID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindForUpdate(ctx context.Context, tenantID, orderID uuid.UUID) (*models.DispatchOrder, error) {
	var order models.DispatchOrder
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND tenant_id = ?", orderID, tenantID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateIfStatus(ctx context.Context, tenantID, orderID uuid.UUID, from enums.DispatchStatus, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DispatchOrder{}).
		Where("id = ? AND tenant_id = ? AND status = ?", orderID, tenantID, from).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *repository) FindRider(ctx context.Context, tenantID, riderID uuid.UUID) (*models.Rider, error) {
	var rider models.Rider
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", riderID, tenantID).
		First(&rider).Error; err != nil {
		return nil, err
	}
	return &rider, nil
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.DispatchOrder, error) {
	query := r.db.WithContext(ctx).Model(&models.DispatchOrder{}).Where("tenant_id = ?", params.TenantID)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Priority != nil {
		query = query.Where("priority = ?", *params.Priority)
	}
	if params.RiderID != nil {
		query = query.Where("rider_id = ?", *params.RiderID)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.DispatchOrder
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Pending returns the queue most urgent first, oldest first within a priority.
func (r *repository) Pending(ctx context.Context, tenantID uuid.UUID, priority *enums.DispatchPriority, limit int) ([]models.DispatchOrder, error) {
	query := r.db.WithContext(ctx).
		Model(&models.DispatchOrder{}).
		Where("tenant_id = ? AND status = ?", tenantID, enums.DispatchStatusPending)
	if priority != nil {
		query = query.Where("priority = ?", *priority)
	}
	var rows []models.DispatchOrder
	if err := query.
		Order(priorityRank + " ASC, created_at ASC, id ASC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Assigned(ctx context.Context, tenantID uuid.UUID, riderID *uuid.UUID, limit int) ([]models.DispatchOrder, error) {
	query := r.db.WithContext(ctx).
		Model(&models.DispatchOrder{}).
		Where("tenant_id = ? AND status = ?", tenantID, enums.DispatchStatusAssigned)
	if riderID != nil {
		query = query.Where("rider_id = ?", *riderID)
	}
	var rows []models.DispatchOrder
	if err := query.
		Order("assigned_at ASC, id ASC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type groupCount struct {
	GroupKey string
	Total    int64
}

func (r *repository) countBy(ctx context.Context, tenantID uuid.UUID, column string) ([]groupCount, error) {
	var rows []groupCount
	err := r.db.WithContext(ctx).
		Model(&models.DispatchOrder{}).
		Select(column + " AS group_key, COUNT(*) AS total").
		Where("tenant_id = ?", tenantID).
		Group(column).
		Scan(&rows).Error
	return rows, err
}

func (r *repository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[enums.DispatchStatus]int64, error) {
	rows, err := r.countBy(ctx, tenantID, "status")
	if err != nil {
		return nil, err
	}
	out := make(map[enums.DispatchStatus]int64, len(rows))
	for _, row := range rows {
		out[enums.DispatchStatus(row.GroupKey)] = row.Total
	}
	return out, nil
}

func (r *repository) CountByPriority(ctx context.Context, tenantID uuid.UUID) (map[enums.DispatchPriority]int64, error) {
	rows, err := r.countBy(ctx, tenantID, "priority")
	if err != nil {
		return nil, err
	}
	out := make(map[enums.DispatchPriority]int64, len(rows))
	for _, row := range rows {
		out[enums.DispatchPriority(row.GroupKey)] = row.Total
	}
	return out, nil
}

func (r *repository) AverageDeliveryMinutes(ctx context.Context, tenantID uuid.UUID) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.WithContext(ctx).
		Model(&models.DispatchOrder{}).
		Select("AVG(actual_duration)").
		Where("tenant_id = ? AND status = ? AND actual_duration IS NOT NULL", tenantID, enums.DispatchStatusDelivered).
		Row().Scan(&avg)
	if err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}
