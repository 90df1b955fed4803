package config

// EnvPrefix is the envconfig prefix shared by every variable.
const EnvPrefix = "CRATEFLOW"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "CRATEFLOW_APP_ENV"
	EnvPort       = "CRATEFLOW_APP_PORT"
	EnvDBDSN      = "CRATEFLOW_DB_DSN"
	EnvDBHost     = "CRATEFLOW_DB_HOST"
	EnvDBUser     = "CRATEFLOW_DB_USER"
	EnvDBName     = "CRATEFLOW_DB_NAME"
	EnvRedisURL   = "CRATEFLOW_REDIS_URL"
	EnvJWTSecret  = "CRATEFLOW_JWT_SECRET"
	EnvJWTIssuer  = "CRATEFLOW_JWT_ISSUER"
	EnvJWTExpMins = "CRATEFLOW_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
