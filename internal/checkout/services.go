package checkout

import (
	"fmt"
	"time"

	"github.com/storefront-labs/storefront-backend/internal/cart"
	"github.com/storefront-labs/storefront-backend/internal/coupons"
	"github.com/storefront-labs/storefront-backend/internal/orders"
	"github.com/storefront-labs/storefront-backend/internal/payments"
	"github.com/storefront-labs/storefront-backend/internal/pricing"
	"github.com/storefront-labs/storefront-backend/internal/products"
	"github.com/storefront-labs/storefront-backend/internal/settings"
	"github.com/storefront-labs/storefront-backend/pkg/config"
	"github.com/storefront-labs/storefront-backend/pkg/db"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/outbox"
)

// Params are the shared dependencies of the checkout flow.
type Params struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      *db.Client
	Gateway payments.Gateway
	Now     func() time.Time
}

// Services is the assembled checkout flow shared by the API and the cron worker.
type Services struct {
	Products products.Service
	Coupons  coupons.Service
	Settings settings.Service
	Cart     cart.Service
	Payments payments.Service
	Orders   orders.Service
	Outbox   *outbox.Service
}

// Build wires repositories and services from a single database client.
func Build(params Params) (*Services, error) {
	switch {
	case params.Config == nil:
		return nil, fmt.Errorf("config required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.DB == nil:
		return nil, fmt.Errorf("db client required")
	case params.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	}
	cfg := params.Config
	conn := params.DB.DB()

	productsSvc, err := products.NewService(products.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("products service: %w", err)
	}
	couponsSvc, err := coupons.NewService(coupons.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("coupons service: %w", err)
	}
	settingsSvc, err := settings.NewService(settings.NewRepository(conn), cfg.Shipping.Threshold())
	if err != nil {
		return nil, fmt.Errorf("settings service: %w", err)
	}
	cartSvc, err := cart.NewService(cart.ServiceParams{
		Products: productsSvc,
		Coupons:  couponsSvc,
		Settings: settingsSvc,
		Fees: pricing.Fees{
			Standard: cfg.Shipping.StandardFeeAmount(),
			Express:  cfg.Shipping.ExpressFeeAmount(),
		},
		Now: params.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(conn), params.Logger)
	ordersRepo := orders.NewRepository(conn)
	writer, err := orders.NewWriter(ordersRepo, outboxSvc)
	if err != nil {
		return nil, fmt.Errorf("order writer: %w", err)
	}

	paymentsSvc, err := payments.NewService(payments.ServiceParams{
		Repo:        payments.NewRepository(conn),
		OrdersRepo:  ordersRepo,
		Writer:      writer,
		Tx:          params.DB,
		Outbox:      outboxSvc,
		Gateway:     params.Gateway,
		Quoter:      cartSvc,
		Logger:      params.Logger,
		Currency:    cfg.Paystack.Currency,
		CallbackURL: cfg.Paystack.ResolvedCallbackURL(cfg.App.ClientBaseURL),
		Now:         params.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("payments service: %w", err)
	}

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:      ordersRepo,
		Tx:        params.DB,
		Outbox:    outboxSvc,
		Writer:    writer,
		Quoter:    cartSvc,
		Finalizer: paymentsSvc,
		Logger:    params.Logger,
		Now:       params.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	return &Services{
		Products: productsSvc,
		Coupons:  couponsSvc,
		Settings: settingsSvc,
		Cart:     cartSvc,
		Payments: paymentsSvc,
		Orders:   ordersSvc,
		Outbox:   outboxSvc,
	}, nil
}
