package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/config"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/metrics"
	"github.com/angelmondragon/tillpoint-backend/pkg/outbox"
	"github.com/angelmondragon/tillpoint-backend/pkg/outbox/registry"
)

var fixedNow = time.Date(2026, 5, 2, 18, 30, 0, 0, time.UTC)

func TestProcessBatchRetriesOneRowAndPublishesTheNext(t *testing.T) {
	first := saleEvent(t, 0)
	second := saleEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	pub := &fakePublisher{errs: []error{errors.New("transient"), nil}}
	svc := newTestService(t, repo, pub, realRegistry(t), &fakeDLQRepo{}, nil)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, []uuid.UUID{first.ID}, repo.failed)
	assert.Equal(t, []uuid.UUID{second.ID}, repo.published)
	assert.Equal(t, []string{orderingKey(first)}, pub.resumed, "failed ordering key must be resumed")
}

func TestPublishCarriesEnvelopeAndOrderingKey(t *testing.T) {
	event := registerClosedEvent(t, "till-04")
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	svc := newTestService(t, repo, pub, realRegistry(t), &fakeDLQRepo{}, nil)

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, pub.sent, 1)

	msg := pub.sent[0]
	assert.Equal(t, "register:till-04", msg.OrderingKey)
	assert.JSONEq(t, string(event.Payload), string(msg.Data))
	assert.Equal(t, "till-04", msg.Attributes["aggregate_id"])
	assert.Equal(t, "register_closed", msg.Attributes["event_type"])
	assert.Equal(t, "1", msg.Attributes["event_version"])
	assert.NotEmpty(t, msg.Attributes["event_id"])
	assert.Equal(t, []uuid.UUID{event.ID}, repo.published)
}

func TestUnresolvableRowIsDeadLettered(t *testing.T) {
	event := saleEvent(t, 0)
	event.EventType = enums.OutboxEventType("stock_counted")
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQRepo{}
	reg := prometheus.NewRegistry()
	svc := newTestService(t, repo, &fakePublisher{}, realRegistry(t), dlq, nil)
	svc.metrics = metrics.NewPOSMetrics(reg)

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, dlq.entries, 1)

	entry := dlq.entries[0]
	assert.Equal(t, event.ID, entry.EventID)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, entry.ErrorReason)
	assert.JSONEq(t, string(event.Payload), string(entry.Payload))
	assert.Equal(t, fixedNow, entry.FailedAt)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.terminal)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "tillpoint_outbox_publish_total" {
			found = true
			assert.Equal(t, 1.0, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found, "publish outcome should be counted")
}

func TestLastAttemptIsDeadLettered(t *testing.T) {
	event := saleEvent(t, 1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQRepo{}
	pub := &fakePublisher{errs: []error{errors.New("deadline exceeded")}}
	svc := newTestService(t, repo, pub, realRegistry(t), dlq, &config.OutboxConfig{BatchSize: 1, MaxAttempts: 2})

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, dlq.entries[0].ErrorReason)
	assert.Contains(t, *dlq.entries[0].ErrorMessage, "deadline exceeded")
	assert.Empty(t, repo.failed)
}

func TestMissingPublisherIsNonRetryable(t *testing.T) {
	event := saleEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQRepo{}
	svc := newTestService(t, repo, nil, realRegistry(t), dlq, nil)

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, dlq.entries[0].ErrorReason)
}

func TestEnsureReadinessReportsEveryFailure(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{}, realRegistry(t), &fakeDLQRepo{}, nil)
	svc.db = &fakeDB{pingErr: errors.New("db down")}
	svc.pubsub = &fakePinger{err: errors.New("topic missing")}

	err := svc.ensureReadiness(context.Background())
	require.Error(t, err)
	for _, want := range []string{"database ping failed", "pubsub ping failed"} {
		assert.True(t, strings.Contains(err.Error(), want), "expected %q in %v", want, err)
	}
}

func TestPublisherCacheReusesTopicHandle(t *testing.T) {
	opener := &fakeOpener{}
	cache := newPublisherCache(opener)
	assert.Nil(t, cache.For("pos-events"))
	assert.Nil(t, cache.For("pos-events"))
	assert.Equal(t, 2, opener.calls, "nil publishers are not cached")
	cache.Stop()
}

func TestWithJitterStaysInWindow(t *testing.T) {
	for range 50 {
		got := withJitter(time.Second)
		assert.GreaterOrEqual(t, got, time.Second)
		assert.Less(t, got, time.Second+jitterWindow)
	}
	assert.Zero(t, withJitter(0))
}

func newTestService(t *testing.T, repo outboxRepository, pub topicPublisher, resolver registryResolver, dlq dlqRepository, override *config.OutboxConfig) *Service {
	t.Helper()
	outboxCfg := config.OutboxConfig{BatchSize: 2, PollIntervalMS: 100, MaxAttempts: 5}
	if override != nil {
		outboxCfg = *override
	}
	svc, err := NewService(ServiceParams{
		Config:        &config.Config{Outbox: outboxCfg},
		Logger:        logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:            &fakeDB{},
		PubSub:        &fakePinger{},
		Publishers:    staticPublishers{pub: pub},
		Repository:    repo,
		Registry:      resolver,
		DLQRepository: dlq,
		Now:           func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc
}

func realRegistry(t *testing.T) *registry.EventRegistry {
	t.Helper()
	reg, err := registry.NewEventRegistry(config.PubSubConfig{EventsTopic: "pos-events"})
	require.NoError(t, err)
	return reg
}

func saleEvent(t *testing.T, attempts int) models.OutboxEvent {
	saleID := uuid.New()
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventSaleCompleted,
		AggregateType: enums.AggregateSale,
		AggregateID:   saleID.String(),
		Payload:       envelope(t, map[string]any{"sale_id": saleID, "register_id": "till-01", "total_amount": "27.10", "currency": "USD"}),
		AttemptCount:  attempts,
		CreatedAt:     fixedNow,
	}
}

func registerClosedEvent(t *testing.T, registerID string) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventRegisterClosed,
		AggregateType: enums.AggregateRegister,
		AggregateID:   registerID,
		Payload:       envelope(t, map[string]any{"register_id": registerID, "status": "balanced"}),
		CreatedAt:     fixedNow,
	}
}

func envelope(t *testing.T, data any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	out, err := json.Marshal(outbox.PayloadEnvelope{Version: 1, EventID: uuid.NewString(), OccurredAt: fixedNow, Data: raw})
	require.NoError(t, err)
	return out
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDB struct {
	pingErr error
}

func (f *fakeDB) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error {
	return f.err
}

type staticPublishers struct {
	pub topicPublisher
}

func (s staticPublishers) For(string) topicPublisher {
	return s.pub
}

type fakePublisher struct {
	errs    []error
	sent    []*gcppubsub.Message
	resumed []string
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) (string, error) {
	f.sent = append(f.sent, msg)
	if len(f.errs) == 0 {
		return "server-id", nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return "server-id", err
}

func (f *fakePublisher) Resume(key string) {
	f.resumed = append(f.resumed, key)
}

type fakeOpener struct {
	calls int
}

func (f *fakeOpener) Publisher(string) *gcppubsub.Publisher {
	f.calls++
	return nil
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}
