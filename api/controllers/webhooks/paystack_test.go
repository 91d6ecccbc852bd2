package webhooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	paystackwebhook "github.com/storefront-labs/storefront-backend/internal/webhooks/paystack"
	"github.com/storefront-labs/storefront-backend/pkg/paystack"
)

const testSecret = "sk_test_webhook"

func TestPaystackWebhook_SuccessAndIdempotent(t *testing.T) {
	payload := chargeSuccessPayload(4099, "SF-ABC")
	service := &fakePaystackWebhookService{}
	handler := PaystackWebhook(service, fakeSecretClient(testSecret), newGuard(t), nil)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, signedRequest(payload, paystack.Sign(payload, testSecret)))
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d (%s)", i, rec.Code, rec.Body.String())
		}
	}
	if service.calls != 1 {
		t.Fatalf("expected duplicate not processed, call count %d", service.calls)
	}
	if service.last == nil || service.last.Data.Reference != "SF-ABC" {
		t.Fatalf("unexpected event %+v", service.last)
	}
}

func TestPaystackWebhook_InvalidSignature(t *testing.T) {
	payload := chargeSuccessPayload(1, "SF-ABC")
	service := &fakePaystackWebhookService{}
	handler := PaystackWebhook(service, fakeSecretClient(testSecret), newGuard(t), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(payload, paystack.Sign(payload, "another-secret")))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid signature, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(payload, ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing signature, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service should not be invoked on invalid signature")
	}
}

func TestPaystackWebhook_FailureReleasesGuard(t *testing.T) {
	payload := chargeSuccessPayload(77, "SF-RETRY")
	service := &fakePaystackWebhookService{err: errors.New("database down")}
	handler := PaystackWebhook(service, fakeSecretClient(testSecret), newGuard(t), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(payload, paystack.Sign(payload, testSecret)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on service failure, got %d", rec.Code)
	}

	service.err = nil
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(payload, paystack.Sign(payload, testSecret)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d", rec.Code)
	}
	if service.calls != 2 {
		t.Fatalf("expected redelivery to be processed, call count %d", service.calls)
	}
}

func TestPaystackWebhook_MissingSecret(t *testing.T) {
	payload := chargeSuccessPayload(1, "SF-ABC")
	handler := PaystackWebhook(&fakePaystackWebhookService{}, fakeSecretClient(""), newGuard(t), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(payload, paystack.Sign(payload, testSecret)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when secret missing, got %d", rec.Code)
	}
}

func chargeSuccessPayload(id int64, reference string) []byte {
	return []byte(fmt.Sprintf(`{"event":"charge.success","data":{"id":%d,"reference":%q,"status":"success","amount":20000,"currency":"NGN"}}`, id, reference))
}

func signedRequest(payload []byte, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/paystack", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set(paystack.SignatureHeader, signature)
	}
	return req
}

func newGuard(t *testing.T) *paystackwebhook.DeliveryGuard {
	t.Helper()
	guard, err := paystackwebhook.NewDeliveryGuard(newInMemoryStore(), time.Minute, "paystack-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	return guard
}

type fakeSecretClient string

func (f fakeSecretClient) SecretKey() string { return string(f) }

type fakePaystackWebhookService struct {
	calls int
	last  *paystack.Event
	err   error
}

func (f *fakePaystackWebhookService) HandleEvent(_ context.Context, event *paystack.Event) error {
	f.calls++
	f.last = event
	return f.err
}

type inMemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{data: map[string]string{}}
}

func (s *inMemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (s *inMemoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = fmt.Sprint(value)
	return true, nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func (s *inMemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}
