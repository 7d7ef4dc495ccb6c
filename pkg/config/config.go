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
	FeatureFlags  FeatureFlagsConfig
	Quest         QuestConfig
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
	Env          string `envconfig:"HEARTHLEDGER_APP_ENV" required:"true"`
	Port         string `envconfig:"HEARTHLEDGER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HEARTHLEDGER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HEARTHLEDGER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"HEARTHLEDGER_DB_DSN"`
	Driver string `envconfig:"HEARTHLEDGER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HEARTHLEDGER_DB_HOST"`
	LegacyPort     int    `envconfig:"HEARTHLEDGER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HEARTHLEDGER_DB_USER"`
	LegacyPassword string `envconfig:"HEARTHLEDGER_DB_PASSWORD"`
	LegacyName     string `envconfig:"HEARTHLEDGER_DB_NAME"`
	LegacySSLMode  string `envconfig:"HEARTHLEDGER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HEARTHLEDGER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HEARTHLEDGER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HEARTHLEDGER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HEARTHLEDGER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HEARTHLEDGER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HEARTHLEDGER_REDIS_ADDR"`
	Password     string        `envconfig:"HEARTHLEDGER_REDIS_PASSWORD"`
	DB           int           `envconfig:"HEARTHLEDGER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HEARTHLEDGER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HEARTHLEDGER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HEARTHLEDGER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HEARTHLEDGER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HEARTHLEDGER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"HEARTHLEDGER_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"HEARTHLEDGER_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"HEARTHLEDGER_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"HEARTHLEDGER_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"HEARTHLEDGER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HEARTHLEDGER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HEARTHLEDGER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HEARTHLEDGER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HEARTHLEDGER_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"HEARTHLEDGER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"HEARTHLEDGER_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"HEARTHLEDGER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"HEARTHLEDGER_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"HEARTHLEDGER_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"HEARTHLEDGER_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HEARTHLEDGER_AUTO_MIGRATE" default:"false"`
}

// QuestConfig controls the daily/weekly progression windows. The rollover rule is
// deployment configuration, not domain logic.
type QuestConfig struct {
	Timezone         string `envconfig:"HEARTHLEDGER_QUEST_TIMEZONE" default:"UTC"`
	WeekStartDay     int    `envconfig:"HEARTHLEDGER_QUEST_WEEK_START_DAY" default:"1"`
	ProgressPerEvent int    `envconfig:"HEARTHLEDGER_QUEST_PROGRESS_PER_EVENT" default:"1"`
}

// Location resolves the configured quest timezone, falling back to UTC.
func (q QuestConfig) Location() *time.Location {
	loc, err := time.LoadLocation(q.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
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
