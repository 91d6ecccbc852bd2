package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	"github.com/storefront-labs/storefront-backend/pkg/outbox/payloads"
)

func setupOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`).Error)
	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS outbox_dlq (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload_json TEXT NOT NULL,
  error_reason TEXT NOT NULL,
  error_message TEXT,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  failed_at DATETIME,
  created_at DATETIME
);`).Error)
	return db
}

func TestServiceEmitWritesEnvelope(t *testing.T) {
	db := setupOutboxDB(t)
	svc := NewService(NewRepository(db), nil)
	orderID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data:          payloads.OrderCreatedEvent{OrderID: orderID, PaymentReference: "ref-1"},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventOrderCreated, rows[0].EventType)
	assert.Equal(t, orderID, rows[0].AggregateID)

	envelope, err := DecodeEnvelope(rows[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.False(t, envelope.OccurredAt.IsZero())

	var data payloads.OrderCreatedEvent
	require.NoError(t, envelope.DecodeData(&data))
	assert.Equal(t, "ref-1", data.PaymentReference)
}

func TestServiceEmitRequiresTransactionAndPayload(t *testing.T) {
	db := setupOutboxDB(t)
	svc := NewService(NewRepository(db), nil)
	require.Error(t, svc.Emit(context.Background(), nil, DomainEvent{}))

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New()})
	})
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestEnvelopeDecodeDataRejectsNull(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"version":1,"eventId":"e1","data":null}`))
	require.NoError(t, err)
	var out payloads.OrderCreatedEvent
	assert.ErrorIs(t, env.DecodeData(&out), ErrEmptyPayload)

	_, err = DecodeEnvelope([]byte(`not json`))
	assert.Error(t, err)
}

func TestServiceEmitIfNotExistsSkipsDuplicates(t *testing.T) {
	db := setupOutboxDB(t)
	svc := NewService(NewRepository(db), nil)
	event := DomainEvent{
		EventType:     enums.EventPaymentVerified,
		AggregateType: enums.AggregatePaymentTransaction,
		AggregateID:   uuid.New(),
		Data:          payloads.PaymentVerifiedEvent{Reference: "ref-2"},
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(context.Background(), tx, event)
		}))
	}

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewRepository(db)

	first := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	require.NoError(t, repo.Insert(db, first))
	require.NoError(t, repo.Insert(db, second))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := repo.MarkPublishedTx(tx, first.ID); err != nil {
			return err
		}
		return repo.MarkTerminalTx(tx, second.ID, errors.New("boom"), 3)
	}))

	var pending []models.OutboxEvent
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		pending, err = repo.FetchUnpublishedForPublish(tx, 10, 3)
		return err
	}))
	assert.Empty(t, pending)

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored, "id = ?", second.ID).Error)
	assert.Equal(t, 3, stored.AttemptCount)
	require.NotNil(t, stored.LastError)
	assert.Equal(t, "boom", *stored.LastError)
}

func TestRepositoryDeletePublishedBefore(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewRepository(db)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	old := now.Add(-40 * 24 * time.Hour)
	published := old.Add(time.Minute)

	rows := []models.OutboxEvent{
		{ID: uuid.New(), EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), CreatedAt: old, PublishedAt: &published},
		{ID: uuid.New(), EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), CreatedAt: old, AttemptCount: 10},
		{ID: uuid.New(), EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), CreatedAt: old, AttemptCount: 2},
		{ID: uuid.New(), EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), CreatedAt: now, PublishedAt: &published},
	}
	for _, row := range rows {
		require.NoError(t, repo.Insert(db, row))
	}

	var deleted int64
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		deleted, err = repo.DeletePublishedBefore(context.Background(), tx, now.Add(-30*24*time.Hour), 10)
		return err
	}))
	assert.Equal(t, int64(2), deleted)

	var remaining int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}

func TestDLQRepositoryTruncatesListsAndPrunes(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewDLQRepository(db)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	long := strings.Repeat("x", maxLastErrorLen+50)

	entries := []models.OutboxDLQ{
		{EventID: uuid.New(), EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), ErrorReason: enums.OutboxDLQReasonMaxAttempts, ErrorMessage: &long, FailedAt: now.Add(-100 * 24 * time.Hour)},
		{EventID: uuid.New(), EventType: enums.EventPaymentVerified, AggregateType: enums.AggregatePaymentTransaction, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), ErrorReason: enums.OutboxDLQReasonNonRetryable, FailedAt: now},
	}
	for _, entry := range entries {
		require.NoError(t, repo.InsertTx(db, entry))
	}

	listed, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, enums.EventPaymentVerified, listed[0].EventType)
	require.NotNil(t, listed[1].ErrorMessage)
	assert.Len(t, *listed[1].ErrorMessage, maxLastErrorLen)

	deleted, err := repo.DeleteBefore(context.Background(), db, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
