package riders

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

// DefaultHistoryDays is the location history window when none is requested.
const DefaultHistoryDays = 7

var maxRating = decimal.NewFromInt(5)

// Service manages the rider directory.
type Service interface {
	Create(ctx context.Context, tenantID uuid.UUID, input CreateInput) (*models.Rider, error)
	Get(ctx context.Context, tenantID, riderID uuid.UUID) (*models.Rider, error)
	Update(ctx context.Context, tenantID, riderID uuid.UUID, input UpdateInput) (*models.Rider, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Available(ctx context.Context, tenantID uuid.UUID, vehicle *enums.VehicleType) ([]models.Rider, error)
	UpdateLocation(ctx context.Context, tenantID, riderID uuid.UUID, latitude, longitude float64) (*models.Rider, error)
	LocationHistory(ctx context.Context, params HistoryParams) (*HistoryResult, error)
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

// CreateInput holds the validated payload to register a rider.
type CreateInput struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	LicenseNumber *string
	VehicleType   enums.VehicleType
	VehiclePlate  *string
	Status        enums.RiderStatus
	Rating        *decimal.Decimal
	Metadata      map[string]any
}

// UpdateInput holds optional rider changes, including status changes.
type UpdateInput struct {
	FirstName     *string
	LastName      *string
	Email         *string
	Phone         *string
	LicenseNumber *string
	VehicleType   *enums.VehicleType
	VehiclePlate  *string
	Status        *enums.RiderStatus
	Rating        *decimal.Decimal
	Metadata      *map[string]any
}

// ListParams filters the rider listing.
type ListParams struct {
	TenantID    uuid.UUID
	Status      *enums.RiderStatus
	VehicleType *enums.VehicleType
	Search      string
	Limit       int
	Cursor      string
}

// ListResult wraps a page of riders.
type ListResult struct {
	Items  []models.Rider `json:"items"`
	Cursor string         `json:"cursor"`
}

// HistoryParams selects location samples recorded in the last Days days.
type HistoryParams struct {
	TenantID uuid.UUID
	RiderID  uuid.UUID
	Days     int
	Limit    int
	Cursor   string
}

// HistoryResult wraps a page of location samples, newest first.
type HistoryResult struct {
	Items  []models.RiderLocationHistory `json:"items"`
	Cursor string                        `json:"cursor"`
}

// NewService wires rider dependencies.
func NewService(repo Repository, tx txRunner, outboxPublisher outboxPublisher, domainMetrics *metrics.DomainMetrics) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "riders repository required")
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

func (s *service) Create(ctx context.Context, tenantID uuid.UUID, input CreateInput) (*models.Rider, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	rider := &models.Rider{
		TenantID:      tenantID,
		FirstName:     strings.TrimSpace(input.FirstName),
		LastName:      strings.TrimSpace(input.LastName),
		Email:         normalizeEmail(input.Email),
		Phone:         strings.TrimSpace(input.Phone),
		LicenseNumber: input.LicenseNumber,
		VehicleType:   input.VehicleType,
		VehiclePlate:  input.VehiclePlate,
		Status:        input.Status,
		Metadata:      types.JSONMap(input.Metadata),
	}
	if rider.Status == "" {
		rider.Status = enums.RiderStatusActive
	}
	if input.Rating != nil {
		rider.Rating = input.Rating.Round(2)
	}
	if err := validateRider(rider); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, rider); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a rider with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert rider")
	}
	return rider, nil
}

func (s *service) Get(ctx context.Context, tenantID, riderID uuid.UUID) (*models.Rider, error) {
	return loadRider(ctx, s.repo, tenantID, riderID)
}

func (s *service) Update(ctx context.Context, tenantID, riderID uuid.UUID, input UpdateInput) (*models.Rider, error) {
	current, err := loadRider(ctx, s.repo, tenantID, riderID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.FirstName != nil {
		current.FirstName = strings.TrimSpace(*input.FirstName)
		fields["first_name"] = current.FirstName
	}
	if input.LastName != nil {
		current.LastName = strings.TrimSpace(*input.LastName)
		fields["last_name"] = current.LastName
	}
	if input.Email != nil {
		current.Email = normalizeEmail(*input.Email)
		fields["email"] = current.Email
	}
	if input.Phone != nil {
		current.Phone = strings.TrimSpace(*input.Phone)
		fields["phone"] = current.Phone
	}
	if input.LicenseNumber != nil {
		fields["license_number"] = *input.LicenseNumber
	}
	if input.VehicleType != nil {
		current.VehicleType = *input.VehicleType
		fields["vehicle_type"] = current.VehicleType
	}
	if input.VehiclePlate != nil {
		fields["vehicle_plate"] = *input.VehiclePlate
	}
	if input.Status != nil {
		current.Status = *input.Status
		fields["status"] = current.Status
	}
	if input.Rating != nil {
		current.Rating = input.Rating.Round(2)
		fields["rating"] = current.Rating
	}
	if input.Metadata != nil {
		fields["metadata"] = types.JSONMap(*input.Metadata)
	}
	if err := validateRider(current); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return current, nil
	}
	fields["updated_at"] = s.now()

	if err := s.repo.UpdateColumns(ctx, tenantID, riderID, fields); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a rider with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rider")
	}
	return loadRider(ctx, s.repo, tenantID, riderID)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid rider status")
	}
	if params.VehicleType != nil && !params.VehicleType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid vehicle type")
	}
	query := listParams{
		TenantID:    params.TenantID,
		Status:      params.Status,
		VehicleType: params.VehicleType,
		Search:      params.Search,
		Limit:       params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list riders")
	}
	items, next := pagination.Trim(rows, params.Limit, func(r models.Rider) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	return &ListResult{Items: items, Cursor: next}, nil
}

// Available lists active riders ordered by name.
func (s *service) Available(ctx context.Context, tenantID uuid.UUID, vehicle *enums.VehicleType) ([]models.Rider, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if vehicle != nil && !vehicle.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid vehicle type")
	}
	rows, err := s.repo.ListAvailable(ctx, tenantID, vehicle)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list available riders")
	}
	return rows, nil
}

// UpdateLocation overwrites the rider's position and appends it to the history trail in
// one transaction.
func (s *service) UpdateLocation(ctx context.Context, tenantID, riderID uuid.UUID, latitude, longitude float64) (*models.Rider, error) {
	point := types.GeoPoint{Latitude: latitude, Longitude: longitude}
	if latitude < -90 || latitude > 90 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "latitude must be between -90 and 90")
	}
	if longitude < -180 || longitude > 180 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "longitude must be between -180 and 180")
	}
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}

	var rider *models.Rider
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.now()
		affected, err := repo.SetLocation(ctx, tenantID, riderID, point, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rider location")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "rider not found")
		}
		if err := repo.AppendLocation(ctx, &models.RiderLocationHistory{
			TenantID:  tenantID,
			RiderID:   riderID,
			Latitude:  latitude,
			Longitude: longitude,
			Timestamp: now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append location history")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			TenantID:      tenantID,
			EventType:     enums.EventRiderLocationUpdated,
			AggregateType: enums.AggregateRider,
			AggregateID:   riderID,
			Data: payloads.RiderLocationUpdatedEvent{
				RiderID:    riderID,
				Latitude:   latitude,
				Longitude:  longitude,
				RecordedAt: now,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit rider location")
		}
		rider, err = loadRider(ctx, repo, tenantID, riderID)
		return err
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rider location")
	}
	s.metrics.IncLocationUpdate()
	return rider, nil
}

// LocationHistory returns the rider's samples from the last Days days (7 by default).
func (s *service) LocationHistory(ctx context.Context, params HistoryParams) (*HistoryResult, error) {
	days := params.Days
	if days <= 0 {
		days = DefaultHistoryDays
	}
	if _, err := loadRider(ctx, s.repo, params.TenantID, params.RiderID); err != nil {
		return nil, err
	}
	query := historyParams{
		TenantID: params.TenantID,
		RiderID:  params.RiderID,
		Since:    s.now().AddDate(0, 0, -days),
		Limit:    params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, err := s.repo.LocationHistory(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list location history")
	}
	items, next := pagination.Trim(rows, params.Limit, func(h models.RiderLocationHistory) pagination.Cursor {
		return pagination.Cursor{CreatedAt: h.Timestamp, ID: h.ID}
	})
	return &HistoryResult{Items: items, Cursor: next}, nil
}

func loadRider(ctx context.Context, repo Repository, tenantID, riderID uuid.UUID) (*models.Rider, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	rider, err := repo.FindByID(ctx, tenantID, riderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rider not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rider")
	}
	return rider, nil
}

func validateRider(r *models.Rider) error {
	switch {
	case r.FirstName == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "first_name is required")
	case r.LastName == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "last_name is required")
	case r.Email == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	case r.Phone == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	case !r.VehicleType.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid vehicle type")
	case !r.Status.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid rider status")
	case r.Rating.IsNegative() || r.Rating.GreaterThan(maxRating):
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 0 and 5")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
