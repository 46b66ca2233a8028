package config

// EnvPrefix namespaces every environment variable consumed by the service.
const EnvPrefix = "BOOKHAVEN"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv                 = "BOOKHAVEN_APP_ENV"
	EnvPort                   = "BOOKHAVEN_APP_PORT"
	EnvDBDSN                  = "BOOKHAVEN_DB_DSN"
	EnvDBHost                 = "BOOKHAVEN_DB_HOST"
	EnvDBUser                 = "BOOKHAVEN_DB_USER"
	EnvDBName                 = "BOOKHAVEN_DB_NAME"
	EnvRedisURL               = "BOOKHAVEN_REDIS_URL"
	EnvJWTSecret              = "BOOKHAVEN_JWT_SECRET"
	EnvJWTIssuer              = "BOOKHAVEN_JWT_ISSUER"
	EnvJWTExpMins             = "BOOKHAVEN_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "BOOKHAVEN_REFRESH_TOKEN_TTL_MINUTES"
	EnvFirestoreProjectID     = "BOOKHAVEN_FIRESTORE_PROJECT_ID"
	EnvLocalStorePath         = "BOOKHAVEN_LOCAL_STORE_PATH"
)

var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
