package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	"github.com/angelmondragon/stockroute-backend/pkg/types"
)

// Rider is a delivery courier belonging to a tenant.
type Rider struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID      uuid.UUID         `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:ux_riders_tenant_email,priority:1;index:idx_riders_tenant_status,priority:1" json:"tenant_id"`
	FirstName     string            `gorm:"column:first_name;type:text;not null" json:"first_name"`
	LastName      string            `gorm:"column:last_name;type:text;not null" json:"last_name"`
	Email         string            `gorm:"column:email;type:text;not null;uniqueIndex:ux_riders_tenant_email,priority:2" json:"email"`
	Phone         string            `gorm:"column:phone;type:text;not null" json:"phone"`
	LicenseNumber *string           `gorm:"column:license_number;type:text" json:"license_number"`
	VehicleType   enums.VehicleType `gorm:"column:vehicle_type;type:text;not null" json:"vehicle_type"`
	VehiclePlate  *string           `gorm:"column:vehicle_plate;type:text" json:"vehicle_plate"`
	Status        enums.RiderStatus `gorm:"column:status;type:text;not null;index:idx_riders_tenant_status,priority:2" json:"status"`
	Location      *types.GeoPoint   `gorm:"column:location;type:jsonb" json:"location"`
	Rating        decimal.Decimal   `gorm:"column:rating;type:numeric(3,2);not null" json:"rating"`
	Metadata      types.JSONMap     `gorm:"column:metadata;type:jsonb;not null" json:"metadata"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Rider) TableName() string { return "riders" }

func (r *Rider) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	if r.Status == "" {
		r.Status = enums.RiderStatusActive
	}
	if r.Metadata == nil {
		r.Metadata = types.JSONMap{}
	}
	return nil
}

// FullName joins first and last name.
func (r Rider) FullName() string {
	return r.FirstName + " " + r.LastName
}

// RiderLocationHistory is an append-only position sample.
type RiderLocationHistory struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID `gorm:"column:tenant_id;type:uuid;not null" json:"tenant_id"`
	RiderID   uuid.UUID `gorm:"column:rider_id;type:uuid;not null;index:idx_rider_location_history_rider_ts,priority:1" json:"rider_id"`
	Latitude  float64   `gorm:"column:latitude;type:numeric(10,8);not null" json:"latitude"`
	Longitude float64   `gorm:"column:longitude;type:numeric(11,8);not null" json:"longitude"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index:idx_rider_location_history_rider_ts,priority:2" json:"timestamp"`
}

func (RiderLocationHistory) TableName() string { return "rider_location_history" }

func (h *RiderLocationHistory) BeforeCreate(*gorm.DB) error {
	ensureID(&h.ID)
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now().UTC()
	}
	return nil
}
