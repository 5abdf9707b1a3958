package enums

import "fmt"

// DispatchStatus tracks the lifecycle of a dispatch order.
type DispatchStatus string

const (
	DispatchStatusPending    DispatchStatus = "pending"
	DispatchStatusAssigned   DispatchStatus = "assigned"
	DispatchStatusInProgress DispatchStatus = "in_progress"
	DispatchStatusDelivered  DispatchStatus = "delivered"
	DispatchStatusCancelled  DispatchStatus = "cancelled"
)

var validDispatchStatuses = []DispatchStatus{
	DispatchStatusPending,
	DispatchStatusAssigned,
	DispatchStatusInProgress,
	DispatchStatusDelivered,
	DispatchStatusCancelled,
}

// DispatchStatuses returns every status in lifecycle order.
func DispatchStatuses() []DispatchStatus {
	out := make([]DispatchStatus, len(validDispatchStatuses))
	copy(out, validDispatchStatuses)
	return out
}

// String implements fmt.Stringer.
func (s DispatchStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DispatchStatus.
func (s DispatchStatus) IsValid() bool {
	for _, candidate := range validDispatchStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s DispatchStatus) IsTerminal() bool {
	return s == DispatchStatusDelivered || s == DispatchStatusCancelled
}

// ParseDispatchStatus converts raw input into a DispatchStatus.
func ParseDispatchStatus(value string) (DispatchStatus, error) {
	for _, candidate := range validDispatchStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispatch status %q", value)
}

// DispatchPriority orders the dispatch queue.
type DispatchPriority string

const (
	DispatchPriorityLow    DispatchPriority = "low"
	DispatchPriorityMedium DispatchPriority = "medium"
	DispatchPriorityHigh   DispatchPriority = "high"
	DispatchPriorityUrgent DispatchPriority = "urgent"
)

var validDispatchPriorities = []DispatchPriority{
	DispatchPriorityLow,
	DispatchPriorityMedium,
	DispatchPriorityHigh,
	DispatchPriorityUrgent,
}

// DispatchPriorities returns every priority from lowest to highest.
func DispatchPriorities() []DispatchPriority {
	out := make([]DispatchPriority, len(validDispatchPriorities))
	copy(out, validDispatchPriorities)
	return out
}

// String implements fmt.Stringer.
func (p DispatchPriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known DispatchPriority.
func (p DispatchPriority) IsValid() bool {
	for _, candidate := range validDispatchPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseDispatchPriority converts raw input into a DispatchPriority.
func ParseDispatchPriority(value string) (DispatchPriority, error) {
	for _, candidate := range validDispatchPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispatch priority %q", value)
}
