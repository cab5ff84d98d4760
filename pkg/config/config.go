package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Mongo         MongoConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ADMIN_APP_ENV" required:"true"`
	Port         string `envconfig:"ADMIN_APP_PORT" default:"3000"`
	LogLevel     string `envconfig:"ADMIN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ADMIN_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"ADMIN_LOG_FORMAT" default:"json"`
	ReportingTZ  string `envconfig:"ADMIN_REPORTING_TZ" default:"UTC"`
	LoginPath    string `envconfig:"ADMIN_LOGIN_PATH" default:"/login"`
	// CORSOrigins lists UI origins allowed to call the API with credentials.
	CORSOrigins []string `envconfig:"ADMIN_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// SecureCookies reports whether auth cookies must carry the Secure attribute.
func (a AppConfig) SecureCookies() bool {
	return !a.IsDev()
}

// Location resolves the timezone used to bucket reporting periods.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.ReportingTZ)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading reporting timezone %q: %w", name, err)
	}
	return loc, nil
}

type DBConfig struct {
	DSN string `envconfig:"ADMIN_DB_DSN"`

	LegacyHost     string `envconfig:"ADMIN_DB_HOST"`
	LegacyPort     int    `envconfig:"ADMIN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ADMIN_DB_USER"`
	LegacyPassword string `envconfig:"ADMIN_DB_PASSWORD"`
	LegacyName     string `envconfig:"ADMIN_DB_NAME"`
	LegacySSLMode  string `envconfig:"ADMIN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ADMIN_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"ADMIN_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"ADMIN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ADMIN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type MongoConfig struct {
	URI             string        `envconfig:"ADMIN_MONGO_URI" required:"true"`
	Database        string        `envconfig:"ADMIN_MONGO_DATABASE" default:"famiglia"`
	AuditCollection string        `envconfig:"ADMIN_MONGO_AUDIT_COLLECTION" default:"audit_events"`
	ConnectTimeout  time.Duration `envconfig:"ADMIN_MONGO_CONNECT_TIMEOUT" default:"10s"`
}

// RedisConfig is optional: login throttling is disabled when neither URL nor Address is set.
type RedisConfig struct {
	URL          string        `envconfig:"ADMIN_REDIS_URL"`
	Address      string        `envconfig:"ADMIN_REDIS_ADDR"`
	Password     string        `envconfig:"ADMIN_REDIS_PASSWORD"`
	DB           int           `envconfig:"ADMIN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ADMIN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ADMIN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ADMIN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ADMIN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ADMIN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret string `envconfig:"ADMIN_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"ADMIN_JWT_ISSUER" default:"famiglia-admin"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ADMIN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ADMIN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ADMIN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ADMIN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ADMIN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"ADMIN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"ADMIN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"ADMIN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ADMIN_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
