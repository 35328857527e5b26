// Package config loads application configuration from defaults, an optional
// config file, a .env file and environment variables (highest precedence).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key, e.g. FESTAKIT_SERVER_PORT.
const EnvPrefix = "FESTAKIT"

// Config holds all application configuration.
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	App         AppConfig      `mapstructure:"app"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	Storage     StorageConfig  `mapstructure:"storage"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Elastic     ElasticConfig  `mapstructure:"elastic"`
	Tracing     TracingConfig  `mapstructure:"tracing"`
	Jobs        JobsConfig     `mapstructure:"jobs"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL settings. URL wins over the host parts when set.
type DatabaseConfig struct {
	URL        string `mapstructure:"url"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	SSLMode    string `mapstructure:"sslmode"`
	Debug      bool   `mapstructure:"debug"`
	Migrations bool   `mapstructure:"migrations"`
	MaxRetries int    `mapstructure:"max_retries"`
}

// DSN returns the connection string in key=value format, or URL when set.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// MigrateURL returns the connection string in URL format for golang-migrate.
func (d DatabaseConfig) MigrateURL() string {
	if strings.HasPrefix(d.URL, "postgres://") || strings.HasPrefix(d.URL, "postgresql://") {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// AppConfig holds application-level settings.
type AppConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	AdminEmail    string `mapstructure:"admin_email"`
	SessionSecret string `mapstructure:"session_secret"`
	TemplatesDir  string `mapstructure:"templates_dir"`
	StaticDir     string `mapstructure:"static_dir"`
}

// LoggingConfig selects the zerolog level and output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// StorageConfig configures the file buckets.
type StorageConfig struct {
	Root          string        `mapstructure:"root"`
	SigningSecret string        `mapstructure:"signing_secret"`
	PublicBaseURL string        `mapstructure:"public_base_url"`
	MaxUploadMB   int64         `mapstructure:"max_upload_mb"`
	SignedURLTTL  time.Duration `mapstructure:"signed_url_ttl"`
}

// RedisConfig holds Redis settings for the reference-data cache.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Enabled  bool          `mapstructure:"enabled"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ElasticConfig holds Elasticsearch settings for the material index.
type ElasticConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Prefix   string `mapstructure:"prefix"`
	Index    string `mapstructure:"index"`
}

// IndexName returns the prefixed index name.
func (e ElasticConfig) IndexName() string {
	if e.Prefix == "" {
		return e.Index
	}
	return e.Prefix + "-" + e.Index
}

// TracingConfig holds New Relic settings. Tracing is off without a license key.
type TracingConfig struct {
	LicenseKey     string `mapstructure:"license_key"`
	AppName        string `mapstructure:"app_name"`
	DistribTracing bool   `mapstructure:"distributed_tracing_enabled"`
}

// JobsConfig holds scheduler intervals.
type JobsConfig struct {
	Enabled              bool          `mapstructure:"enabled"`
	SubscriptionInterval time.Duration `mapstructure:"subscription_interval"`
	ResetPurgeInterval   time.Duration `mapstructure:"reset_purge_interval"`
}

// IsDevelopment reports whether the app runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// legacyEnv maps keys to unprefixed variables commonly set by hosting platforms.
var legacyEnv = map[string]string{
	"server.port":        "PORT",
	"database.url":       "DATABASE_URL",
	"database.debug":     "DB_DEBUG",
	"app.admin_email":    "ADMIN_EMAIL",
	"app.session_secret": "SESSION_SECRET",
	"app.base_url":       "BASE_URL",
}

// Load reads configuration. path is an extra directory searched for config.yaml.
func Load(path string) (Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "festakit")
	v.SetDefault("database.password", "festakit")
	v.SetDefault("database.name", "festakit")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.debug", false)
	v.SetDefault("database.migrations", false)
	v.SetDefault("database.max_retries", 10)

	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("app.admin_email", "")
	v.SetDefault("app.session_secret", "")
	v.SetDefault("app.templates_dir", "")
	v.SetDefault("app.static_dir", "static")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("storage.root", "data/storage")
	v.SetDefault("storage.signing_secret", "")
	v.SetDefault("storage.public_base_url", "/storage")
	v.SetDefault("storage.max_upload_mb", 50)
	v.SetDefault("storage.signed_url_ttl", "60s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.ttl", "10m")

	v.SetDefault("elastic.enabled", false)
	v.SetDefault("elastic.url", "http://localhost:9200")
	v.SetDefault("elastic.username", "")
	v.SetDefault("elastic.password", "")
	v.SetDefault("elastic.prefix", "festakit")
	v.SetDefault("elastic.index", "materials")

	v.SetDefault("tracing.license_key", "")
	v.SetDefault("tracing.app_name", "FestaKit")
	v.SetDefault("tracing.distributed_tracing_enabled", true)

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.subscription_interval", "1h")
	v.SetDefault("jobs.reset_purge_interval", "6h")
}
