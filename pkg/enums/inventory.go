package enums

import "fmt"

// AdjustmentReason explains why a SKU stock level moved.
type AdjustmentReason string

const (
	AdjustmentReasonPurchase   AdjustmentReason = "purchase"
	AdjustmentReasonSale       AdjustmentReason = "sale"
	AdjustmentReasonReturn     AdjustmentReason = "return"
	AdjustmentReasonCorrection AdjustmentReason = "correction"
	AdjustmentReasonTransfer   AdjustmentReason = "transfer"
)

var validAdjustmentReasons = []AdjustmentReason{
	AdjustmentReasonPurchase,
	AdjustmentReasonSale,
	AdjustmentReasonReturn,
	AdjustmentReasonCorrection,
	AdjustmentReasonTransfer,
}

// String implements fmt.Stringer.
func (r AdjustmentReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known AdjustmentReason.
func (r AdjustmentReason) IsValid() bool {
	for _, candidate := range validAdjustmentReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseAdjustmentReason converts raw input into an AdjustmentReason.
func ParseAdjustmentReason(value string) (AdjustmentReason, error) {
	for _, candidate := range validAdjustmentReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adjustment reason %q", value)
}

// AlertType identifies which inventory condition raised an alert.
type AlertType string

const (
	AlertTypeLowStock    AlertType = "low_stock"
	AlertTypeBatchExpiry AlertType = "batch_expiry"
)

var validAlertTypes = []AlertType{
	AlertTypeLowStock,
	AlertTypeBatchExpiry,
}

// String implements fmt.Stringer.
func (a AlertType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AlertType.
func (a AlertType) IsValid() bool {
	for _, candidate := range validAlertTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAlertType converts raw input into an AlertType.
func ParseAlertType(value string) (AlertType, error) {
	for _, candidate := range validAlertTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert type %q", value)
}
