package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap is a free-form attribute bag persisted as JSONB (SKU attributes, rider and
// dispatch metadata).
type JSONMap map[string]any

// Value marshals the map into JSON for Postgres.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes JSONB into the map.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("json map: unsupported scan type %T", value)
	}

	result := make(JSONMap)
	if len(raw) == 0 {
		*m = result
		return nil
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*m = result
	return nil
}
