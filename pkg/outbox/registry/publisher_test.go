package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tillpoint-backend/pkg/config"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	"github.com/angelmondragon/tillpoint-backend/pkg/outbox"
	"github.com/angelmondragon/tillpoint-backend/pkg/outbox/payloads"
)

func TestEventRegistryResolveSuccess(t *testing.T) {
	reg := newTestEventRegistry(t)

	saleID := uuid.New()
	event := models.OutboxEvent{
		EventType:     enums.EventSaleCompleted,
		AggregateType: enums.AggregateSale,
		AggregateID:   saleID.String(),
		Payload: mustEnvelope(t, 1, payloads.SaleCompletedEvent{
			SaleID:      saleID,
			RegisterID:  "till-01",
			TotalAmount: decimal.RequireFromString("27.10"),
			Currency:    "USD",
		}),
	}

	resolved, err := reg.Resolve(event)
	require.NoError(t, err)
	assert.Equal(t, "pos-events", resolved.Descriptor.Topic)
	payload, ok := resolved.Payload.(*payloads.SaleCompletedEvent)
	require.True(t, ok, "unexpected payload type %T", resolved.Payload)
	assert.Equal(t, saleID, payload.SaleID)
	assert.True(t, payload.TotalAmount.Equal(decimal.RequireFromString("27.10")))
	assert.NotEmpty(t, resolved.Envelope.EventID)
}

func TestEventRegistryResolveFailuresAreNonRetryable(t *testing.T) {
	reg := newTestEventRegistry(t)
	registerID := "till-01"

	cases := map[string]models.OutboxEvent{
		"unknown event": {
			EventType:     enums.OutboxEventType("stock_counted"),
			AggregateType: enums.AggregateRegister,
			AggregateID:   registerID,
			Payload:       mustEnvelope(t, 1, map[string]string{"a": "b"}),
		},
		"aggregate mismatch": {
			EventType:     enums.EventRegisterOpened,
			AggregateType: enums.AggregateSale,
			AggregateID:   registerID,
			Payload:       mustEnvelope(t, 1, payloads.RegisterOpenedEvent{RegisterID: registerID}),
		},
		"missing aggregate id": {
			EventType:     enums.EventRegisterOpened,
			AggregateType: enums.AggregateRegister,
			Payload:       mustEnvelope(t, 1, payloads.RegisterOpenedEvent{RegisterID: registerID}),
		},
		"null payload": {
			EventType:     enums.EventRegisterClosed,
			AggregateType: enums.AggregateRegister,
			AggregateID:   registerID,
			Payload:       mustEnvelope(t, 1, nil),
		},
		"unknown version": {
			EventType:     enums.EventRegisterClosed,
			AggregateType: enums.AggregateRegister,
			AggregateID:   registerID,
			Payload:       mustEnvelope(t, 7, payloads.RegisterClosedEvent{RegisterID: registerID}),
		},
	}

	for name, event := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Resolve(event)
			require.Error(t, err)
			var nonRetry NonRetryableError
			assert.True(t, errors.As(err, &nonRetry), "expected non-retryable, got %T", err)
		})
	}
}

func TestNewEventRegistryRequiresTopic(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{EventsTopic: "  "})
	assert.Error(t, err)
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{EventsTopic: "pos-events"})
	require.NoError(t, err)
	return reg
}

func mustEnvelope(t *testing.T, version int, data any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	envelope := outbox.PayloadEnvelope{
		Version:    version,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}
	out, err := json.Marshal(envelope)
	require.NoError(t, err)
	return out
}
