package config

const (
	EnvPrefix = "HEARTHLEDGER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "HEARTHLEDGER_APP_ENV"
	EnvPort   = "HEARTHLEDGER_APP_PORT"

	EnvDBDSN  = "HEARTHLEDGER_DB_DSN"
	EnvDBHost = "HEARTHLEDGER_DB_HOST"
	EnvDBUser = "HEARTHLEDGER_DB_USER"
	EnvDBName = "HEARTHLEDGER_DB_NAME"

	EnvRedisURL = "HEARTHLEDGER_REDIS_URL"

	EnvJWTSecret              = "HEARTHLEDGER_JWT_SECRET"
	EnvJWTIssuer              = "HEARTHLEDGER_JWT_ISSUER"
	EnvJWTExpMins             = "HEARTHLEDGER_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "HEARTHLEDGER_REFRESH_TOKEN_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
