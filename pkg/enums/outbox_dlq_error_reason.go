package enums

import "fmt"

// OutboxDLQErrorReason records why the publisher gave up on an outbox row.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts marks rows whose publish kept failing until the attempt cap.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable marks rows Pub/Sub or the topic setup rejected outright.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	// OutboxDLQReasonUnroutable marks rows the event registry could not resolve
	// (unknown event type, aggregate mismatch or an undecodable envelope).
	OutboxDLQReasonUnroutable OutboxDLQErrorReason = "unroutable"
)

var validOutboxDLQErrorReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
	OutboxDLQReasonUnroutable,
}

func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validOutboxDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// Replayable reports whether copying the row back into outbox_events can succeed
// without a code or schema change. Unroutable rows need a fix first.
func (r OutboxDLQErrorReason) Replayable() bool {
	return r == OutboxDLQReasonMaxAttempts
}

func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	reason := OutboxDLQErrorReason(value)
	if !reason.IsValid() {
		return "", fmt.Errorf("invalid outbox dlq error reason %q", value)
	}
	return reason, nil
}
