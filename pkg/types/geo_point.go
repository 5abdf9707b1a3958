package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// GeoPoint is a latitude/longitude pair persisted as JSONB ({"latitude":..,"longitude":..}).
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both coordinates fall inside WGS84 bounds.
func (g GeoPoint) Valid() bool {
	return g.Latitude >= -90 && g.Latitude <= 90 &&
		g.Longitude >= -180 && g.Longitude <= 180
}

// Value marshals the point into JSON for Postgres.
func (g GeoPoint) Value() (driver.Value, error) {
	buf, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes JSONB into the point.
func (g *GeoPoint) Scan(value interface{}) error {
	if value == nil {
		*g = GeoPoint{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("geo point: unsupported scan type %T", value)
	}

	var out GeoPoint
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("geo point: %w", err)
	}
	*g = out
	return nil
}
