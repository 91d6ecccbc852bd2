package payments

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront-backend/internal/orders"
	"github.com/storefront-labs/storefront-backend/internal/pricing"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	"github.com/storefront-labs/storefront-backend/pkg/paystack"
	"github.com/storefront-labs/storefront-backend/pkg/types"
	"github.com/storefront-labs/storefront-backend/pkg/visibility"
)

// CheckoutInput is the cart and delivery data submitted with initialize-payment.
type CheckoutInput struct {
	Items          []types.CheckoutLine
	CouponCode     string
	ShippingOption string
	Address        types.Address
	PaymentMethod  string
}

// InitializeInput starts a hosted-checkout payment. Amount is only a display hint:
// the charged amount is always the server quote.
type InitializeInput struct {
	Email     string
	Amount    *decimal.Decimal
	Reference string
	Metadata  map[string]any
	Checkout  CheckoutInput
	Viewer    visibility.Viewer
}

// InitializeResult is returned to the client to redirect to the gateway.
type InitializeResult struct {
	AuthorizationURL string          `json:"authorization_url"`
	AccessCode       string          `json:"access_code"`
	Reference        string          `json:"reference"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Quote            *pricing.Quote  `json:"quote,omitempty"`
	Replayed         bool            `json:"replayed"`
}

// VerifyResult is the outcome of a confirmed payment.
type VerifyResult struct {
	Status     enums.PaymentStatus `json:"status"`
	Reference  string              `json:"reference"`
	Amount     decimal.Decimal     `json:"amount"`
	Currency   string              `json:"currency"`
	Customer   *paystack.Customer  `json:"customer,omitempty"`
	Metadata   map[string]any      `json:"metadata,omitempty"`
	VerifiedAt *time.Time          `json:"verified_at,omitempty"`
	Order      *orders.OrderDTO    `json:"order,omitempty"`
}

// ReconcileParams bounds one reconciliation sweep.
type ReconcileParams struct {
	GracePeriod time.Duration
	MaxAge      time.Duration
	BatchSize   int
}

// ReconcileReport counts what a sweep did.
type ReconcileReport struct {
	Checked   int `json:"checked"`
	Finalized int `json:"finalized"`
	Failed    int `json:"failed"`
	Abandoned int `json:"abandoned"`
	Pending   int `json:"pending"`
}
