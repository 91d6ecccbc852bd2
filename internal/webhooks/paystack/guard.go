package paystackwebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storefront-labs/storefront-backend/pkg/redis"
)

var errEmptyKey = errors.New("delivery key is required")

// DeliveryGuard claims webhook deliveries in Redis so a retried delivery is
// acknowledged without being applied twice. The claim value records when it
// was taken.
type DeliveryGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
	now   func() time.Time
}

func NewDeliveryGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*DeliveryGuard, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case ttl < 0:
		return nil, errors.New("ttl must be non-negative")
	case scope == "":
		return nil, errors.New("scope is required")
	}
	return &DeliveryGuard{store: store, ttl: ttl, scope: scope, now: time.Now}, nil
}

// Claim reports whether this call took ownership of key. False means an earlier
// delivery already holds it.
func (g *DeliveryGuard) Claim(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errEmptyKey
	}
	claimed, err := g.store.SetNX(ctx, g.store.IdempotencyKey(g.scope, key), g.now().UTC().Format(time.RFC3339), g.ttl)
	if err != nil {
		return false, fmt.Errorf("claim delivery %s: %w", key, err)
	}
	return claimed, nil
}

// Release drops a claim so the provider's next retry is processed.
func (g *DeliveryGuard) Release(ctx context.Context, key string) error {
	if key == "" {
		return errEmptyKey
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(g.scope, key))
}
