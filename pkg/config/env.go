package config

// EnvPrefix is passed to envconfig; every field carries an explicit envconfig tag so
// the prefix only matters for untagged additions.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                = "STOREFRONT_APP_ENV"
	EnvPort                  = "STOREFRONT_APP_PORT"
	EnvDBDSN                 = "STOREFRONT_DB_DSN"
	EnvDBHost                = "STOREFRONT_DB_HOST"
	EnvDBUser                = "STOREFRONT_DB_USER"
	EnvDBName                = "STOREFRONT_DB_NAME"
	EnvRedisURL              = "STOREFRONT_REDIS_URL"
	EnvJWTSecret             = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer             = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins            = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvPaystackSecretKey     = "STOREFRONT_PAYSTACK_SECRET_KEY"
	EnvClientBaseURL         = "STOREFRONT_CLIENT_BASE_URL"
	EnvShippingFreeThreshold = "STOREFRONT_SHIPPING_FREE_THRESHOLD"
	EnvShippingStandardFee   = "STOREFRONT_SHIPPING_STANDARD_FEE"
	EnvShippingExpressFee    = "STOREFRONT_SHIPPING_EXPRESS_FEE"
	EnvUseSQLite             = "STOREFRONT_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
