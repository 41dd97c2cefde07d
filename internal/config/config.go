package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	VisibilityShared = "shared"
	VisibilityOwner  = "owner"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Buyers      BuyersConfig
	Import      ImportConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host               string
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	MaxRequestBodySize int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
}

type RedisConfig struct {
	URL       string
	Password  string
	DB        int
	KeyPrefix string
}

type AuthConfig struct {
	JWTSecret   string
	Issuer      string
	SessionTTL  time.Duration
	AdminEmails []string
	DemoLogin   bool
}

type BuyersConfig struct {
	// Visibility is "shared" (every agent sees every lead) or "owner".
	Visibility      string
	HistoryLimit    int
	MaxHistoryLimit int
}

type ImportConfig struct {
	MaxFileSize      int
	RequestsPerMin   int
	Burst            int
	ReportPath       string
	ReportRetention  time.Duration
	ReportSweepEvery time.Duration
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
}

// Load reads configuration from environment variables (optionally .env) and
// validates it. Missing connection settings are an error, never a fallback.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "buyerleads"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:               getString("SERVER_HOST", "0.0.0.0"),
			Port:               getString("SERVER_PORT", "8080"),
			ReadTimeout:        getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:       getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:        getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxRequestBodySize: getInt("SERVER_MAX_BODY_BYTES", 8<<20),
		},
		Database: databaseFromEnv(),
		Redis: RedisConfig{
			URL:       os.Getenv("REDIS_URL"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        getInt("REDIS_DB", 0),
			KeyPrefix: getString("REDIS_KEY_PREFIX", "buyerleads"),
		},
		Auth: AuthConfig{
			JWTSecret:   os.Getenv("JWT_SECRET"),
			Issuer:      getString("JWT_ISSUER", "buyerleads"),
			SessionTTL:  getDuration("SESSION_TTL", 24*time.Hour),
			AdminEmails: getList("AUTH_ADMIN_EMAILS", []string{"demo@example.com"}),
			DemoLogin:   getBool("AUTH_DEMO_LOGIN", true),
		},
		Buyers: BuyersConfig{
			Visibility:      strings.ToLower(getString("BUYERS_VISIBILITY", VisibilityShared)),
			HistoryLimit:    getInt("BUYERS_HISTORY_LIMIT", 5),
			MaxHistoryLimit: getInt("BUYERS_HISTORY_MAX_LIMIT", 50),
		},
		Import: ImportConfig{
			MaxFileSize:      getInt("IMPORT_MAX_FILE_BYTES", 5<<20),
			RequestsPerMin:   getInt("IMPORT_RATE_PER_MINUTE", 10),
			Burst:            getInt("IMPORT_RATE_BURST", 3),
			ReportPath:       getString("IMPORT_REPORT_PATH", "./data/import-reports.db"),
			ReportRetention:  getDuration("IMPORT_REPORT_RETENTION", 7*24*time.Hour),
			ReportSweepEvery: getDuration("IMPORT_REPORT_SWEEP_INTERVAL", time.Hour),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 10*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// LoadDatabase reads only the database settings, for tools that need
// nothing else.
func LoadDatabase() (DatabaseConfig, error) {
	_ = godotenv.Load(".env")
	cfg := databaseFromEnv()
	if cfg.URL == "" {
		return cfg, errors.New("DATABASE_URL (or DB_HOST) is required")
	}
	return cfg, nil
}

func databaseFromEnv() DatabaseConfig {
	cfg := DatabaseConfig{
		URL:             os.Getenv("DATABASE_URL"),
		MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 2),
		MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
	}
	if cfg.URL == "" && os.Getenv("DB_HOST") != "" {
		cfg.URL = buildPostgresURL()
	}
	return cfg
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL (or DB_HOST) is required"))
	}
	if c.Redis.URL == "" {
		errs = append(errs, errors.New("REDIS_URL is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if !c.IsDevelopment() && len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes outside development"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Buyers.Visibility != VisibilityShared && c.Buyers.Visibility != VisibilityOwner {
		errs = append(errs, fmt.Errorf("BUYERS_VISIBILITY %q must be %q or %q", c.Buyers.Visibility, VisibilityShared, VisibilityOwner))
	}
	if c.Buyers.HistoryLimit <= 0 || c.Buyers.MaxHistoryLimit < c.Buyers.HistoryLimit {
		errs = append(errs, errors.New("BUYERS_HISTORY_LIMIT must be positive and not above BUYERS_HISTORY_MAX_LIMIT"))
	}
	if c.Import.MaxFileSize <= 0 {
		errs = append(errs, errors.New("IMPORT_MAX_FILE_BYTES must be positive"))
	}
	if c.Import.RequestsPerMin <= 0 || c.Import.Burst <= 0 {
		errs = append(errs, errors.New("IMPORT_RATE_PER_MINUTE and IMPORT_RATE_BURST must be positive"))
	}
	if c.Import.ReportPath == "" {
		errs = append(errs, errors.New("IMPORT_REPORT_PATH is required"))
	}
	if c.Import.ReportSweepEvery < time.Second {
		errs = append(errs, errors.New("IMPORT_REPORT_SWEEP_INTERVAL must be at least one second"))
	}
	if c.Context.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT_SECONDS must be positive"))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "test"
}

// IsAdminEmail reports whether logins with this address get the admin role.
func (c *Config) IsAdminEmail(email string) bool {
	for _, candidate := range c.Auth.AdminEmails {
		if strings.EqualFold(candidate, email) {
			return true
		}
	}
	return false
}

func buildPostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getString("DB_USER", "postgres"), os.Getenv("DB_PASSWORD")),
		Host:     getString("DB_HOST", "localhost") + ":" + getString("DB_PORT", "5432"),
		Path:     "/" + getString("DB_NAME", "buyerleads"),
		RawQuery: "sslmode=" + getString("DB_SSLMODE", "disable"),
	}
	return u.String()
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
