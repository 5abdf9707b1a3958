package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/angelmondragon/stockroute-backend/pkg/enums"
)

// ErrPayloadVersionUnknown is returned when no decoder matches an event's payload version.
var ErrPayloadVersionUnknown = errors.New("payload version not registered")

// DecodeFunc turns the envelope's data field into a typed payload.
type DecodeFunc func(payload json.RawMessage) (any, error)

type registryKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry maps stock and dispatch event types to versioned payload decoders.
// Envelopes written before versioning carry version 0 and decode with the newest
// registered version.
type DecoderRegistry struct {
	mtx      sync.RWMutex
	decoders map[registryKey]DecodeFunc
	latest   map[enums.OutboxEventType]int
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{
		decoders: make(map[registryKey]DecodeFunc),
		latest:   make(map[enums.OutboxEventType]int),
	}
}

// Register adds a decoder. Unknown event types, versions below 1 and duplicate
// registrations are rejected.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder DecodeFunc) error {
	if !eventType.IsValid() {
		return fmt.Errorf("unknown outbox event type %q", eventType)
	}
	if version < 1 {
		return fmt.Errorf("%s: payload version must be >= 1", eventType)
	}
	if decoder == nil {
		return fmt.Errorf("%s@v%d: decoder required", eventType, version)
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()
	key := registryKey{eventType: eventType, version: version}
	if _, dup := r.decoders[key]; dup {
		return fmt.Errorf("%s@v%d: decoder already registered", eventType, version)
	}
	r.decoders[key] = decoder
	if version > r.latest[eventType] {
		r.latest[eventType] = version
	}
	return nil
}

// RegisterJSON registers a decoder that unmarshals into a *T.
func RegisterJSON[T any](r *DecoderRegistry, eventType enums.OutboxEventType, version int) error {
	return r.Register(eventType, version, func(payload json.RawMessage) (any, error) {
		if trimmed := bytes.TrimSpace(payload); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return nil, fmt.Errorf("%s@v%d: empty payload", eventType, version)
		}
		out := new(T)
		if err := json.Unmarshal(payload, out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (any, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if version == 0 {
		version = r.latest[eventType]
	}
	decoder, ok := r.decoders[registryKey{eventType: eventType, version: version}]
	if !ok {
		return nil, fmt.Errorf("%w: %s@v%d", ErrPayloadVersionUnknown, eventType, version)
	}
	return decoder(payload)
}
