package validators

import (
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/stockroute-backend/pkg/errors"
)

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns a UTC midnight date. Empty input
// yields nil.
func ParseDate(value *string, field string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	raw := strings.TrimSpace(*value)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid date").WithDetails(map[string]any{"field": field, "value": raw})
		}
	}
	parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
	return &parsed, nil
}
