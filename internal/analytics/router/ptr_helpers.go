package router

import (
	"strings"

	"github.com/google/uuid"
)

// stringPtr returns a trimmed pointer or nil when the input is empty.
func stringPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func int64Ptr(value int64) *int64 {
	return &value
}

func intToInt64Ptr(value *int) *int64 {
	if value == nil {
		return nil
	}
	return int64Ptr(int64(*value))
}

func float64Ptr(value float64) *float64 {
	return &value
}

func uuidPtrString(value *uuid.UUID) *string {
	if value == nil {
		return nil
	}
	return stringPtr(value.String())
}
