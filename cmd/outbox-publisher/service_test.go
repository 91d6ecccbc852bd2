package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/pkg/config"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/metrics"
	"github.com/storefront-labs/storefront-backend/pkg/outbox"
	"github.com/storefront-labs/storefront-backend/pkg/outbox/payloads"
	"github.com/storefront-labs/storefront-backend/pkg/outbox/registry"
)

const testTopic = "storefront-order-events"

type harness struct {
	svc      *Service
	repo     *fakeRepo
	pub      *fakePublisher
	dlq      *fakeDLQRepo
	registry *fakeRegistry
	metrics  *prometheus.Registry
}

func newHarness(t *testing.T, maxAttempts int, events ...models.OutboxEvent) *harness {
	t.Helper()
	h := &harness{
		repo:     &fakeRepo{events: events},
		pub:      &fakePublisher{},
		dlq:      &fakeDLQRepo{},
		registry: &fakeRegistry{topic: testTopic},
		metrics:  prometheus.NewRegistry(),
	}
	svc, err := NewService(ServiceParams{
		Config: &config.Config{Outbox: config.OutboxConfig{
			BatchSize:      len(events) + 1,
			PollIntervalMS: 100,
			MaxAttempts:    maxAttempts,
		}},
		Logger:           logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:               fakeDB{},
		PubSub:           fakePubSubClient{},
		Repository:       h.repo,
		Registry:         h.registry,
		PublisherFactory: func(string) publisher { return h.pub },
		DLQRepository:    h.dlq,
		Metrics:          metrics.NewOutboxMetrics(h.metrics),
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func orderEvent(t *testing.T, eventType enums.OutboxEventType, attempts int) models.OutboxEvent {
	t.Helper()
	id := uuid.New()
	payload, err := json.Marshal(outbox.Envelope{
		Version:    1,
		EventID:    id.String(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID:            id,
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
		AttemptCount:  attempts,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{Config: &config.Config{}})
	require.EqualError(t, err, "logger is required")
}

func TestProcessBatchOutcomes(t *testing.T) {
	cases := []struct {
		name        string
		attempts    int
		publishErr  error
		resolveErr  error
		wantPublish int
		wantFailed  int
		wantDLQ     enums.OutboxDLQErrorReason
	}{
		{name: "published", wantPublish: 1},
		{name: "transient failure retries", publishErr: errors.New("unavailable"), wantFailed: 1},
		{name: "last attempt dead-letters", attempts: 2, publishErr: errors.New("unavailable"), wantDLQ: enums.OutboxDLQReasonMaxAttempts},
		{name: "rejected publish dead-letters", publishErr: registry.NewNonRetryableError(errors.New("bad topic")), wantDLQ: enums.OutboxDLQReasonNonRetryable},
		{name: "undecodable row dead-letters", resolveErr: registry.NewNonRetryableError(errors.New("invalid payload")), wantDLQ: enums.OutboxDLQReasonNonRetryable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event := orderEvent(t, enums.EventOrderCreated, tc.attempts)
			h := newHarness(t, 3, event)
			h.pub.errs = []error{tc.publishErr}
			h.registry.err = tc.resolveErr

			processed, err := h.svc.processBatch(context.Background())
			require.NoError(t, err)
			assert.True(t, processed)
			assert.Len(t, h.repo.published, tc.wantPublish)
			assert.Len(t, h.repo.failed, tc.wantFailed)

			if tc.wantDLQ == "" {
				assert.Empty(t, h.dlq.entries)
				assert.Empty(t, h.repo.terminal)
				return
			}
			require.Len(t, h.dlq.entries, 1)
			entry := h.dlq.entries[0]
			assert.Equal(t, event.ID, entry.EventID)
			assert.Equal(t, tc.wantDLQ, entry.ErrorReason)
			assert.JSONEq(t, string(event.Payload), string(entry.Payload))
			require.NotNil(t, entry.ErrorMessage)
			assert.Equal(t, []uuid.UUID{event.ID}, h.repo.terminal)
		})
	}
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	first := orderEvent(t, enums.EventOrderCreated, 0)
	second := orderEvent(t, enums.EventOrderCreated, 0)
	h := newHarness(t, 5, first, second)
	h.pub.errs = []error{errors.New("transient"), nil}

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID}, h.repo.failed)
	assert.Equal(t, []uuid.UUID{second.ID}, h.repo.published)
}

func TestPublishSetsMessageAttributes(t *testing.T) {
	event := orderEvent(t, enums.EventPaymentVerified, 0)
	h := newHarness(t, 5, event)
	var topics []string
	h.svc.publisherFactory = func(topic string) publisher {
		topics = append(topics, topic)
		return h.pub
	}

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{testTopic}, topics)
	require.Len(t, h.pub.sent, 1)

	msg := h.pub.sent[0]
	assert.Equal(t, []byte(event.Payload), msg.Data, "message data is the stored envelope")
	assert.Equal(t, event.ID.String(), msg.Attributes["event_id"])
	assert.Equal(t, string(enums.EventPaymentVerified), msg.Attributes["event_type"])
	assert.Equal(t, event.AggregateID.String(), msg.Attributes["aggregate_id"])
}

func TestPublishWithoutPublisherDeadLetters(t *testing.T) {
	event := orderEvent(t, enums.EventOrderCreated, 0)
	h := newHarness(t, 5, event)
	h.svc.publisherFactory = func(string) publisher { return nil }

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, h.dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, h.dlq.entries[0].ErrorReason)
}

func TestProcessBatchCountsOutcomes(t *testing.T) {
	h := newHarness(t, 5, orderEvent(t, enums.EventOrderCreated, 0), orderEvent(t, enums.EventOrderCreated, 0))
	h.pub.errs = []error{nil, errors.New("transient")}

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	count, err := testutil.GatherAndCount(h.metrics, "storefront_outbox_events_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series each for published and retry")
}

func TestProcessBatchEmpty(t *testing.T) {
	h := newHarness(t, 5)
	processed, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestJitterStaysInWindow(t *testing.T) {
	assert.Zero(t, jitter(0))
	for range 20 {
		got := jitter(time.Second)
		assert.GreaterOrEqual(t, got, time.Second)
		assert.Less(t, got, time.Second+jitterWindow)
	}
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(_ *gorm.DB, limit, _ int) ([]models.OutboxEvent, error) {
	if len(f.events) > limit {
		return f.events[:limit], nil
	}
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

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type fakePubSubClient struct{}

func (fakePubSubClient) Ping(context.Context) error            { return nil }
func (fakePubSubClient) Publisher(string) *gcppubsub.Publisher { return nil }

// fakePublisher answers each Publish with the next queued error.
type fakePublisher struct {
	errs []error
	sent []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.sent = append(f.sent, msg)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	return fakePublishResult{err: err}
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "server-id", f.err
}

type fakeRegistry struct {
	topic string
	err   error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	env, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, err
	}
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType:     event.EventType,
			AggregateType: event.AggregateType,
			Topic:         f.topic,
		},
		Envelope: env,
		Payload:  &payloads.OrderCreatedEvent{},
	}, nil
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}
