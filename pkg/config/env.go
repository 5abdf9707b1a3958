package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "STOCKROUTE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DefaultExpiryWindowDays = 30
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv       = "STOCKROUTE_APP_ENV"
	EnvPort         = "STOCKROUTE_APP_PORT"
	EnvDBDSN        = "STOCKROUTE_DB_DSN"
	EnvDBHost       = "STOCKROUTE_DB_HOST"
	EnvDBUser       = "STOCKROUTE_DB_USER"
	EnvDBName       = "STOCKROUTE_DB_NAME"
	EnvRedisURL     = "STOCKROUTE_REDIS_URL"
	EnvJWTSecret    = "STOCKROUTE_JWT_SECRET"
	EnvJWTIssuer    = "STOCKROUTE_JWT_ISSUER"
	EnvGCPProjectID = "STOCKROUTE_GCP_PROJECT_ID"
	EnvExpiryDays   = "STOCKROUTE_INVENTORY_EXPIRY_WINDOW_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
