package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

// Decoder turns envelope data into a typed payload.
type Decoder func(data json.RawMessage) (any, error)

type schemaKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry holds one decoder per event type and schema version.
type DecoderRegistry struct {
	mu       sync.RWMutex
	decoders map[schemaKey]Decoder
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: make(map[schemaKey]Decoder)}
}

func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decode Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[schemaKey{eventType: eventType, version: version}] = decode
}

func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, data json.RawMessage) (any, error) {
	r.mu.RLock()
	decode, ok := r.decoders[schemaKey{eventType: eventType, version: version}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no decoder for %s v%d", eventType, version)
	}
	return decode(data)
}

// JSON decodes into a new *T. Unknown fields are rejected so a producer
// schema change without a version bump is caught at publish time.
func JSON[T any]() Decoder {
	return func(data json.RawMessage) (any, error) {
		out := new(T)
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(out); err != nil {
			return nil, err
		}
		return out, nil
	}
}
