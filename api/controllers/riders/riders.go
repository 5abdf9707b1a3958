package riders

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroute-backend/api/controllers/tenantcontext"
	"github.com/angelmondragon/stockroute-backend/api/responses"
	"github.com/angelmondragon/stockroute-backend/api/validators"
	internalriders "github.com/angelmondragon/stockroute-backend/internal/riders"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroute-backend/pkg/errors"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
	"github.com/angelmondragon/stockroute-backend/pkg/pagination"
)

const maxHistoryDays = 90

type createRiderRequest struct {
	FirstName     string           `json:"first_name" validate:"required,max=100"`
	LastName      string           `json:"last_name" validate:"required,max=100"`
	Email         string           `json:"email" validate:"required,email,max=255"`
	Phone         string           `json:"phone" validate:"required,max=20"`
	LicenseNumber *string          `json:"license_number" validate:"omitempty,max=50"`
	VehicleType   string           `json:"vehicle_type" validate:"required,oneof=motorcycle bicycle car van truck"`
	VehiclePlate  *string          `json:"vehicle_plate" validate:"omitempty,max=20"`
	Status        string           `json:"status" validate:"omitempty,oneof=active inactive suspended"`
	Rating        *decimal.Decimal `json:"rating"`
	Metadata      map[string]any   `json:"metadata"`
}

func (r createRiderRequest) toInput() internalriders.CreateInput {
	return internalriders.CreateInput{
		FirstName:     strings.TrimSpace(r.FirstName),
		LastName:      strings.TrimSpace(r.LastName),
		Email:         strings.TrimSpace(r.Email),
		Phone:         strings.TrimSpace(r.Phone),
		LicenseNumber: r.LicenseNumber,
		VehicleType:   enums.VehicleType(r.VehicleType),
		VehiclePlate:  r.VehiclePlate,
		Status:        enums.RiderStatus(r.Status),
		Rating:        r.Rating,
		Metadata:      r.Metadata,
	}
}

type updateRiderRequest struct {
	FirstName     *string          `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName      *string          `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email         *string          `json:"email" validate:"omitempty,email,max=255"`
	Phone         *string          `json:"phone" validate:"omitempty,min=1,max=20"`
	LicenseNumber *string          `json:"license_number" validate:"omitempty,max=50"`
	VehicleType   *string          `json:"vehicle_type" validate:"omitempty,oneof=motorcycle bicycle car van truck"`
	VehiclePlate  *string          `json:"vehicle_plate" validate:"omitempty,max=20"`
	Status        *string          `json:"status" validate:"omitempty,oneof=active inactive suspended"`
	Rating        *decimal.Decimal `json:"rating"`
	Metadata      *map[string]any  `json:"metadata"`
}

func (r updateRiderRequest) toInput() internalriders.UpdateInput {
	input := internalriders.UpdateInput{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Phone:         r.Phone,
		LicenseNumber: r.LicenseNumber,
		VehiclePlate:  r.VehiclePlate,
		Rating:        r.Rating,
		Metadata:      r.Metadata,
	}
	if r.VehicleType != nil {
		vt := enums.VehicleType(*r.VehicleType)
		input.VehicleType = &vt
	}
	if r.Status != nil {
		status := enums.RiderStatus(*r.Status)
		input.Status = &status
	}
	return input
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
}

// Create registers a rider; duplicate emails within the tenant are rejected.
func Create(svc internalriders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rider service unavailable"))
			return
		}
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload createRiderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rider, err := svc.Create(r.Context(), tenantID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rider)
	}
}

func Get(svc internalriders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		riderID, err := tenantcontext.PathUUID(r, "riderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rider, err := svc.Get(r.Context(), tenantID, riderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rider)
	}
}

// Update patches rider profile fields, including status.
func Update(svc internalriders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		riderID, err := tenantcontext.PathUUID(r, "riderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateRiderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rider, err := svc.Update(r.Context(), tenantID, riderID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rider)
	}
}

// List supports status, vehicle_type and search (name, email, phone) filters.
func List(svc internalriders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseRiderStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vehicle, err := validators.ParseQueryEnum(r, "vehicle_type", enums.ParseVehicleType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), internalriders.ListParams{
			TenantID:    tenantID,
			Status:      status,
			VehicleType: vehicle,
			Search:      validators.SanitizeString(r.URL.Query().Get("search"), 100),
			Limit:       limit,
			Cursor:      strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Available lists active riders, optionally restricted to one vehicle_type.
func Available(svc internalriders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vehicle, err := validators.ParseQueryEnum(r, "vehicle_type", enums.ParseVehicleType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		riders, err := svc.Available(r.Context(), tenantID, vehicle)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, riders)
	}
}

// UpdateLocation overwrites the rider position and appends a history sample.
func UpdateLocation(svc internalriders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		riderID, err := tenantcontext.PathUUID(r, "riderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload locationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rider, err := svc.UpdateLocation(r.Context(), tenantID, riderID, *payload.Latitude, *payload.Longitude)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rider)
	}
}

// LocationHistory returns samples from the last days (default 7), newest first.
func LocationHistory(svc internalriders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantcontext.ResolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		riderID, err := tenantcontext.PathUUID(r, "riderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		days, err := validators.ParseQueryInt(r, "days", internalriders.DefaultHistoryDays, 1, maxHistoryDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.LocationHistory(r.Context(), internalriders.HistoryParams{
			TenantID: tenantID,
			RiderID:  riderID,
			Days:     days,
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
