package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Dispatch      DispatchConfig
	Promotion     PromotionConfig
	Seed          SeedConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CRATEFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"CRATEFLOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CRATEFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CRATEFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CRATEFLOW_DB_DSN"`
	Driver string `envconfig:"CRATEFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CRATEFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"CRATEFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CRATEFLOW_DB_USER"`
	LegacyPassword string `envconfig:"CRATEFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"CRATEFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"CRATEFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CRATEFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CRATEFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CRATEFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CRATEFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CRATEFLOW_REDIS_URL"`
	Address      string        `envconfig:"CRATEFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"CRATEFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"CRATEFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CRATEFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CRATEFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CRATEFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CRATEFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CRATEFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CRATEFLOW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CRATEFLOW_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CRATEFLOW_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TokenTTL returns the access token lifetime.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CRATEFLOW_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CRATEFLOW_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CRATEFLOW_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CRATEFLOW_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CRATEFLOW_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"CRATEFLOW_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"CRATEFLOW_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"CRATEFLOW_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

// DispatchConfig carries the timing rules applied to load transitions.
type DispatchConfig struct {
	OnTimeWindowMinutes   int    `envconfig:"CRATEFLOW_ONTIME_WINDOW_MINUTES" default:"5"`
	FarmArrivalExpected   string `envconfig:"CRATEFLOW_FARM_ARRIVAL_EXPECTED" default:"14:00"`
	FarmDepartureExpected string `envconfig:"CRATEFLOW_FARM_DEPARTURE_EXPECTED" default:"17:00"`
}

// OnTimeWindow returns the tolerance applied around scheduled times.
func (d DispatchConfig) OnTimeWindow() time.Duration {
	if d.OnTimeWindowMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(d.OnTimeWindowMinutes) * time.Minute
}

// PromotionConfig maps schedule demand categories onto packaging type codes.
type PromotionConfig struct {
	CrateTypeCode  string `envconfig:"CRATEFLOW_PROMOTION_CRATE_CODE" default:"CRATE-20"`
	BinTypeCode    string `envconfig:"CRATEFLOW_PROMOTION_BIN_CODE" default:"BIN-400"`
	BoxTypeCode    string `envconfig:"CRATEFLOW_PROMOTION_BOX_CODE" default:"BOX-10"`
	PalletTypeCode string `envconfig:"CRATEFLOW_PROMOTION_PALLET_CODE" default:"PALLET-STD"`
}

type SeedConfig struct {
	AdminEmail    string `envconfig:"CRATEFLOW_SEED_ADMIN_EMAIL" default:"admin@crateflow.local"`
	AdminPassword string `envconfig:"CRATEFLOW_SEED_ADMIN_PASSWORD"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CRATEFLOW_AUTO_MIGRATE" default:"false"`
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
