package checkout

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/storefront-backend/internal/cart"
	"github.com/storefront-labs/storefront-backend/internal/products"
	"github.com/storefront-labs/storefront-backend/pkg/config"
	"github.com/storefront-labs/storefront-backend/pkg/db/dbtest"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/paystack"
	"github.com/storefront-labs/storefront-backend/pkg/types"
)

type noopGateway struct{}

func (noopGateway) Initialize(context.Context, paystack.InitializeRequest) (*paystack.InitializeResult, error) {
	return &paystack.InitializeResult{}, nil
}

func (noopGateway) Verify(context.Context, string) (*paystack.Verification, error) {
	return &paystack.Verification{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{ClientBaseURL: "https://shop.example.com"},
		Shipping: config.ShippingConfig{
			DefaultFreeThreshold: "200",
			StandardFee:          "20",
			ExpressFee:           "60",
		},
		Paystack: config.PaystackConfig{Currency: "NGN"},
	}
}

func TestBuildRequiresDependencies(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	_, err := Build(Params{Config: testConfig(), Logger: logg, DB: dbtest.Client(t)})
	require.Error(t, err)

	_, err = Build(Params{Logger: logg, DB: dbtest.Client(t), Gateway: noopGateway{}})
	require.Error(t, err)
}

func TestBuildWiresQuoteAgainstStoredCatalog(t *testing.T) {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svcs, err := Build(Params{
		Config:  testConfig(),
		Logger:  logg,
		DB:      dbtest.Client(t),
		Gateway: noopGateway{},
	})
	require.NoError(t, err)

	settings, err := svcs.Settings.Get(ctx)
	require.NoError(t, err)
	require.True(t, settings.FreeShippingThreshold.Equal(decimal.NewFromInt(200)))

	product, err := svcs.Products.Create(ctx, products.CreateProductInput{
		Title:       "Face serum",
		ProductType: "skincare",
		Price:       decimal.NewFromInt(90),
	})
	require.NoError(t, err)

	quote, err := svcs.Cart.Quote(ctx, cart.QuoteInput{
		Items:          []types.CheckoutLine{{ProductID: product.ID, Quantity: 2}},
		ShippingOption: "standard",
	})
	require.NoError(t, err)
	require.True(t, quote.Subtotal.Equal(decimal.NewFromInt(180)))
	require.True(t, quote.ShippingCost.Equal(decimal.NewFromInt(20)))
	require.True(t, quote.Total.Equal(decimal.NewFromInt(200)))
	require.False(t, quote.FreeShipping)
}
