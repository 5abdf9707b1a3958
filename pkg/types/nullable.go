package types

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// NullableUUID tracks whether a UUID field was explicitly present in JSON.
type NullableUUID struct {
	Valid bool
	Value *uuid.UUID
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableUUID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	n.Valid = true
	if bytes.Equal(trimmed, []byte("null")) {
		n.Value = nil
		return nil
	}

	var parsed uuid.UUID
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	n.Value = &parsed
	return nil
}

// NullableInt distinguishes an omitted integer from an explicit null, which PATCH
// payloads use to clear a column such as reorder_threshold.
type NullableInt struct {
	Valid bool
	Value *int
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableInt) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	n.Valid = true
	if bytes.Equal(trimmed, []byte("null")) {
		n.Value = nil
		return nil
	}

	var parsed int
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	n.Value = &parsed
	return nil
}
