package paystackwebhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/paystack"
)

type fakeConfirmer struct {
	refs []string
	err  error
}

func (f *fakeConfirmer) ConfirmCharge(_ context.Context, reference string) (*models.Order, bool, error) {
	f.refs = append(f.refs, reference)
	if f.err != nil {
		return nil, false, f.err
	}
	return &models.Order{ID: uuid.New(), PaymentReference: reference}, true, nil
}

func newService(t *testing.T, confirmer *fakeConfirmer) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Payments: confirmer,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc
}

func TestHandleEventConfirmsChargeSuccess(t *testing.T) {
	confirmer := &fakeConfirmer{}
	svc := newService(t, confirmer)

	err := svc.HandleEvent(context.Background(), &paystack.Event{
		Event: paystack.EventChargeSuccess,
		Data:  paystack.EventData{Reference: "SF-ABC"},
	})
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(confirmer.refs) != 1 || confirmer.refs[0] != "SF-ABC" {
		t.Fatalf("expected charge confirmed once, got %v", confirmer.refs)
	}
}

func TestHandleEventIgnoresOtherEvents(t *testing.T) {
	confirmer := &fakeConfirmer{}
	svc := newService(t, confirmer)

	if err := svc.HandleEvent(context.Background(), &paystack.Event{Event: "transfer.success"}); err != nil {
		t.Fatalf("expected other events acknowledged, got %v", err)
	}
	if len(confirmer.refs) != 0 {
		t.Fatalf("confirmer should not run for other events")
	}
}

func TestHandleEventUnknownReferenceIsAcknowledged(t *testing.T) {
	confirmer := &fakeConfirmer{err: pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")}
	svc := newService(t, confirmer)

	err := svc.HandleEvent(context.Background(), &paystack.Event{
		Event: paystack.EventChargeSuccess,
		Data:  paystack.EventData{Reference: "elsewhere"},
	})
	if err != nil {
		t.Fatalf("expected unknown reference to be acknowledged, got %v", err)
	}
}

func TestHandleEventAcknowledgesUnsettleableCharges(t *testing.T) {
	for _, code := range []pkgerrors.Code{pkgerrors.CodeStateConflict, pkgerrors.CodeGateway} {
		confirmer := &fakeConfirmer{err: pkgerrors.New(code, "paid amount does not match the order total")}
		svc := newService(t, confirmer)

		err := svc.HandleEvent(context.Background(), &paystack.Event{
			Event: paystack.EventChargeSuccess,
			Data:  paystack.EventData{Reference: "SF-SHORT"},
		})
		if err != nil {
			t.Fatalf("%s: expected delivery acknowledged, got %v", code, err)
		}
		if len(confirmer.refs) != 1 {
			t.Fatalf("%s: expected one confirmation attempt, got %v", code, confirmer.refs)
		}
	}
}

func TestHandleEventPropagatesFailures(t *testing.T) {
	confirmer := &fakeConfirmer{err: pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "paystack unavailable")}
	svc := newService(t, confirmer)

	err := svc.HandleEvent(context.Background(), &paystack.Event{
		Event: paystack.EventChargeSuccess,
		Data:  paystack.EventData{Reference: "SF-1"},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeGatewayUnavailable {
		t.Fatalf("expected gateway unavailable, got %v", err)
	}

	err = svc.HandleEvent(context.Background(), &paystack.Event{Event: paystack.EventChargeSuccess})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing reference, got %v", err)
	}
}

func TestDeliveryGuardLifecycle(t *testing.T) {
	store := newInMemoryStore()
	guard, err := NewDeliveryGuard(store, time.Minute, "paystack-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	guard.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	claimed, err := guard.Claim(ctx, "charge.success:1")
	if err != nil || !claimed {
		t.Fatalf("first delivery should be claimed: claimed=%v err=%v", claimed, err)
	}
	if got := store.data[store.IdempotencyKey("paystack-webhook", "charge.success:1")]; got != "2026-05-01T12:00:00Z" {
		t.Fatalf("expected claim timestamp, got %q", got)
	}
	claimed, err = guard.Claim(ctx, "charge.success:1")
	if err != nil || claimed {
		t.Fatalf("retry should find the claim taken: claimed=%v err=%v", claimed, err)
	}
	if err := guard.Release(ctx, "charge.success:1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if claimed, _ = guard.Claim(ctx, "charge.success:1"); !claimed {
		t.Fatal("delivery should be claimable again after release")
	}

	if _, err := guard.Claim(ctx, ""); err == nil {
		t.Fatal("expected empty key to fail")
	}
	if err := guard.Release(ctx, ""); err == nil {
		t.Fatal("expected empty key to fail on release")
	}
	if _, err := NewDeliveryGuard(nil, time.Minute, "x"); err == nil {
		t.Fatal("expected nil store to fail")
	}

	store.failSetNX = errors.New("redis down")
	if _, err := guard.Claim(ctx, "charge.success:2"); err == nil {
		t.Fatal("expected store failure to surface")
	}
}

type inMemoryStore struct {
	mu        sync.Mutex
	data      map[string]string
	failSetNX error
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{data: make(map[string]string)}
}

func (s *inMemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *inMemoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSetNX != nil {
		return false, s.failSetNX
	}
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("sf:idempotency:%s:%s", scope, id)
}

func (s *inMemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}
