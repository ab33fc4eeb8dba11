package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Auth   AuthConfig
	S3     S3Config
	Log    LogConfig
	Poller PollerConfig
	CORS   CORSConfig
	Email  EmailConfig
	Report ReportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings. An empty Host disables snapshot persistence.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Enabled reports whether a database is configured.
func (d *DBConfig) Enabled() bool {
	return d.Host != ""
}

// AuthConfig holds bearer token validation settings. An empty Secret disables auth.
type AuthConfig struct {
	Secret   string `mapstructure:"secret"`
	Issuer   string `mapstructure:"issuer"`
	Audience string `mapstructure:"audience"`
}

// S3Config holds AWS S3 settings. An empty Bucket disables artifact publishing.
type S3Config struct {
	Region         string `mapstructure:"region"`
	Bucket         string `mapstructure:"bucket"`
	Endpoint       string `mapstructure:"endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	PresignExpiry  int64  `mapstructure:"presign_expiry"`
	ArtifactPrefix string `mapstructure:"artifact_prefix"`
	UploadPrefix   string `mapstructure:"upload_prefix"`
	MaxFileSizeMB  int64  `mapstructure:"max_file_size_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PollerConfig holds settings for the results service client and the poll loop.
type PollerConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Interval       time.Duration `mapstructure:"interval"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	LinkKeys       []string      `mapstructure:"link_keys"`
	Retention      time.Duration `mapstructure:"retention"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// ReportConfig holds report branding.
type ReportConfig struct {
	Title string `mapstructure:"title"`
	Brand string `mapstructure:"brand"`
}

// Load reads configuration from environment variables with the DOCWATCH_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults (host empty = no persistence)
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "docwatch")
	v.SetDefault("db.password", "docwatch_secret")
	v.SetDefault("db.name", "docwatch_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// Auth defaults
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")

	// S3 defaults
	v.SetDefault("s3.region", "eu-west-2")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)
	v.SetDefault("s3.artifact_prefix", "reports")
	v.SetDefault("s3.upload_prefix", "uploads")
	v.SetDefault("s3.max_file_size_mb", 25)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Poller defaults
	v.SetDefault("poller.base_url", "http://localhost:9000")
	v.SetDefault("poller.interval", "5s")
	v.SetDefault("poller.max_attempts", 60)
	v.SetDefault("poller.request_timeout", "20s")
	v.SetDefault("poller.rate_limit_rps", 0)
	v.SetDefault("poller.rate_limit_burst", 5)
	v.SetDefault("poller.link_keys", "html,pdf,xlsx,csv,json")
	v.SetDefault("poller.retention", "15m")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "eu-west-2")
	v.SetDefault("email.from_address", "noreply@docwatch.local")
	v.SetDefault("email.from_name", "docwatch")
	v.SetDefault("email.frontend_url", "http://localhost:3000")

	// Report defaults
	v.SetDefault("report.title", "Document analysis report")
	v.SetDefault("report.brand", "docwatch")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":             "DOCWATCH_SERVER_PORT",
		"server.read_timeout":     "DOCWATCH_SERVER_READ_TIMEOUT",
		"server.write_timeout":    "DOCWATCH_SERVER_WRITE_TIMEOUT",
		"server.environment":      "DOCWATCH_SERVER_ENVIRONMENT",
		"db.host":                 "DOCWATCH_DB_HOST",
		"db.port":                 "DOCWATCH_DB_PORT",
		"db.user":                 "DOCWATCH_DB_USER",
		"db.password":             "DOCWATCH_DB_PASSWORD",
		"db.name":                 "DOCWATCH_DB_NAME",
		"db.sslmode":              "DOCWATCH_DB_SSLMODE",
		"db.max_open":             "DOCWATCH_DB_MAX_OPEN",
		"db.max_idle":             "DOCWATCH_DB_MAX_IDLE",
		"auth.secret":             "DOCWATCH_AUTH_SECRET",
		"auth.issuer":             "DOCWATCH_AUTH_ISSUER",
		"auth.audience":           "DOCWATCH_AUTH_AUDIENCE",
		"s3.region":               "DOCWATCH_S3_REGION",
		"s3.bucket":               "DOCWATCH_S3_BUCKET",
		"s3.endpoint":             "DOCWATCH_S3_ENDPOINT",
		"s3.access_key":           "DOCWATCH_S3_ACCESS_KEY",
		"s3.secret_key":           "DOCWATCH_S3_SECRET_KEY",
		"s3.presign_expiry":       "DOCWATCH_S3_PRESIGN_EXPIRY",
		"s3.artifact_prefix":      "DOCWATCH_S3_ARTIFACT_PREFIX",
		"s3.upload_prefix":        "DOCWATCH_S3_UPLOAD_PREFIX",
		"s3.max_file_size_mb":     "DOCWATCH_S3_MAX_FILE_SIZE_MB",
		"log.level":               "DOCWATCH_LOG_LEVEL",
		"log.format":              "DOCWATCH_LOG_FORMAT",
		"poller.base_url":         "DOCWATCH_POLLER_BASE_URL",
		"poller.interval":         "DOCWATCH_POLLER_INTERVAL",
		"poller.max_attempts":     "DOCWATCH_POLLER_MAX_ATTEMPTS",
		"poller.request_timeout":  "DOCWATCH_POLLER_REQUEST_TIMEOUT",
		"poller.rate_limit_rps":   "DOCWATCH_POLLER_RATE_LIMIT_RPS",
		"poller.rate_limit_burst": "DOCWATCH_POLLER_RATE_LIMIT_BURST",
		"poller.link_keys":        "DOCWATCH_POLLER_LINK_KEYS",
		"poller.retention":        "DOCWATCH_POLLER_RETENTION",
		"cors.allowed_origins":    "DOCWATCH_CORS_ALLOWED_ORIGINS",
		"email.provider":          "DOCWATCH_EMAIL_PROVIDER",
		"email.region":            "DOCWATCH_EMAIL_REGION",
		"email.from_address":      "DOCWATCH_EMAIL_FROM_ADDRESS",
		"email.from_name":         "DOCWATCH_EMAIL_FROM_NAME",
		"email.frontend_url":      "DOCWATCH_EMAIL_FRONTEND_URL",
		"report.title":            "DOCWATCH_REPORT_TITLE",
		"report.brand":            "DOCWATCH_REPORT_BRAND",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if DOCWATCH_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCWATCH_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Auth = AuthConfig{
		Secret:   v.GetString("auth.secret"),
		Issuer:   v.GetString("auth.issuer"),
		Audience: v.GetString("auth.audience"),
	}
	cfg.S3 = S3Config{
		Region:         v.GetString("s3.region"),
		Bucket:         v.GetString("s3.bucket"),
		Endpoint:       v.GetString("s3.endpoint"),
		AccessKey:      v.GetString("s3.access_key"),
		SecretKey:      v.GetString("s3.secret_key"),
		PresignExpiry:  v.GetInt64("s3.presign_expiry"),
		ArtifactPrefix: strings.Trim(v.GetString("s3.artifact_prefix"), "/"),
		UploadPrefix:   strings.Trim(v.GetString("s3.upload_prefix"), "/"),
		MaxFileSizeMB:  v.GetInt64("s3.max_file_size_mb"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Poller = PollerConfig{
		BaseURL:        strings.TrimRight(v.GetString("poller.base_url"), "/"),
		Interval:       v.GetDuration("poller.interval"),
		MaxAttempts:    v.GetInt("poller.max_attempts"),
		RequestTimeout: v.GetDuration("poller.request_timeout"),
		RateLimitRPS:   v.GetFloat64("poller.rate_limit_rps"),
		RateLimitBurst: v.GetInt("poller.rate_limit_burst"),
		LinkKeys:       splitList(v.GetString("poller.link_keys")),
		Retention:      v.GetDuration("poller.retention"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		FrontendURL: v.GetString("email.frontend_url"),
	}
	cfg.Report = ReportConfig{
		Title: v.GetString("report.title"),
		Brand: v.GetString("report.brand"),
	}

	if cfg.Poller.MaxAttempts <= 0 {
		return nil, fmt.Errorf("poller.max_attempts must be positive, got %d", cfg.Poller.MaxAttempts)
	}
	if cfg.Poller.Interval < 0 {
		return nil, fmt.Errorf("poller.interval must not be negative, got %s", cfg.Poller.Interval)
	}

	return cfg, nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
