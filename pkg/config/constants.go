package config

const (
	// EnvPrefix is passed to envconfig.Process; individual fields carry
	// the fully-qualified variable name so the prefix is informational.
	EnvPrefix = "PUSTAKA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "PUSTAKA_APP_ENV"
	EnvPort       = "PUSTAKA_APP_PORT"
	EnvDBDSN      = "PUSTAKA_DB_DSN"
	EnvDBHost     = "PUSTAKA_DB_HOST"
	EnvDBUser     = "PUSTAKA_DB_USER"
	EnvDBName     = "PUSTAKA_DB_NAME"
	EnvRedisURL   = "PUSTAKA_REDIS_URL"
	EnvJWTSecret  = "PUSTAKA_JWT_SECRET"
	EnvJWTIssuer  = "PUSTAKA_JWT_ISSUER"
	EnvJWTExpMins = "PUSTAKA_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
