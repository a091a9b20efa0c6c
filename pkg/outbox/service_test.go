package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

func TestEmitWritesEnvelopeInsideTx(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc := NewService(repo, nil)
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventRegisterOpened,
			AggregateType: enums.AggregateRegister,
			AggregateID:   "till-01",
			Data:          map[string]string{"register_id": "till-01"},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		rows, err = repo.FetchUnpublishedForPublish(tx, 10, 5)
		return err
	}))
	require.Len(t, rows, 1)

	envelope, err := DecodeEnvelope(rows[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.JSONEq(t, `{"register_id":"till-01"}`, string(envelope.Data))
}

func TestEmitRollsBackWithCaller(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc := NewService(repo, nil)
	ctx := context.Background()

	boom := errors.New("boom")
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventSaleCompleted,
			AggregateType: enums.AggregateSale,
			AggregateID:   "sale-1",
			Data:          struct{}{},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	pending, err := repo.CountPending(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestEmitRequiresTxAndAggregate(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	assert.Error(t, svc.Emit(context.Background(), nil, DomainEvent{AggregateID: "x"}))
}

func TestMarkFailedAndTerminal(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	row := models.OutboxEvent{
		EventType:     enums.EventRegisterClosed,
		AggregateType: enums.AggregateRegister,
		AggregateID:   "till-02",
		Payload:       json.RawMessage(`{}`),
	}
	require.NoError(t, repo.Insert(client.DB(), row))

	var fetched []models.OutboxEvent
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		fetched, err = repo.FetchUnpublishedForPublish(tx, 10, 3)
		if err != nil {
			return err
		}
		return repo.MarkFailedTx(tx, fetched[0].ID, errors.New("unavailable"))
	}))

	pending, err := repo.CountPending(ctx, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)

	require.NoError(t, repo.MarkTerminalTx(client.DB(), fetched[0].ID, errors.New("gave up"), 3))
	pending, err = repo.CountPending(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, pending)

	deleted, err := repo.DeletePublishedBefore(ctx, nil, time.Now().UTC().Add(time.Hour), 3)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}

func TestDLQTruncatesMessage(t *testing.T) {
	client := dbtest.Open(t)
	dlq := NewDLQRepository(client.DB())
	ctx := context.Background()

	long := make([]byte, maxDLQErrorLen*2)
	for i := range long {
		long[i] = 'e'
	}
	msg := string(long)
	entry := models.OutboxDLQ{
		EventID:       uuid.New(),
		EventType:     enums.EventSaleCompleted,
		AggregateType: enums.AggregateSale,
		AggregateID:   "sale-1",
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &msg,
		FailedAt:      time.Now().UTC(),
	}
	require.NoError(t, dlq.InsertTx(client.DB(), entry))

	found, err := dlq.FindByEventID(ctx, entry.EventID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Len(t, *found.ErrorMessage, maxDLQErrorLen)

	counts, err := dlq.CountByReason(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, counts[0].ErrorReason)
	assert.Equal(t, enums.EventSaleCompleted, counts[0].EventType)
	assert.EqualValues(t, 1, counts[0].Total)

	entry.ErrorReason = "gave_up"
	assert.Error(t, dlq.InsertTx(client.DB(), entry))

	missing, err := dlq.FindByEventID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"eventId":"e-1","data":{"sale_id":"s"}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, env.Version, "legacy rows default to version 1")
	assert.Equal(t, "e-1", env.EventID)

	_, err = DecodeEnvelope([]byte(`{"version":1,"data":null}`))
	assert.ErrorIs(t, err, ErrMissingData)

	_, err = DecodeEnvelope([]byte(`{"version":1}`))
	assert.ErrorIs(t, err, ErrMissingData)

	_, err = DecodeEnvelope([]byte(`not json`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingData)
}

func TestClipUTF8KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "caf", clipUTF8("café", 4))
	assert.Equal(t, "short", clipUTF8("short", 10))
}
