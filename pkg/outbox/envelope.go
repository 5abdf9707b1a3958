package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies who triggered the event inside a tenant. ActorID is nil for
// system-originated events such as the expiry sweep.
type ActorRef struct {
	TenantID uuid.UUID  `json:"tenantId"`
	ActorID  *uuid.UUID `json:"actorId,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
