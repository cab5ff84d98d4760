package config

// EnvPrefix is empty because every field names its variable explicitly.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "ADMIN_APP_ENV"
	EnvPort         = "ADMIN_APP_PORT"
	EnvReportingTZ  = "ADMIN_REPORTING_TZ"
	EnvDBDSN        = "ADMIN_DB_DSN"
	EnvDBHost       = "ADMIN_DB_HOST"
	EnvDBUser       = "ADMIN_DB_USER"
	EnvDBName       = "ADMIN_DB_NAME"
	EnvDBPassword   = "ADMIN_DB_PASSWORD"
	EnvMongoURI     = "ADMIN_MONGO_URI"
	EnvMongoDB      = "ADMIN_MONGO_DATABASE"
	EnvRedisURL     = "ADMIN_REDIS_URL"
	EnvJWTSecret    = "ADMIN_JWT_SECRET"
	EnvJWTIssuer    = "ADMIN_JWT_ISSUER"
	EnvAutoMigrate  = "ADMIN_AUTO_MIGRATE"
	EnvLoginIPLimit = "ADMIN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
