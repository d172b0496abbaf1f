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
	Server     ServerConfig
	DB         DBConfig
	JWT        JWTConfig
	S3         S3Config
	Log        LogConfig
	CORS       CORSConfig
	Classifier InferenceConfig
	Extractor  InferenceConfig
	Intake     IntakeConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// InferenceConfig holds settings for one remote inference service.
type InferenceConfig struct {
	BaseURL      string  `mapstructure:"base_url"`
	APIKey       string  `mapstructure:"api_key"`
	TimeoutSecs  int     `mapstructure:"timeout_secs"`
	MaxRetries   int     `mapstructure:"max_retries"`
	RetryDelayMs int     `mapstructure:"retry_delay_ms"`
	RatePerSec   float64 `mapstructure:"rate_per_sec"`
	Burst        int     `mapstructure:"burst"`
}

// Timeout returns the per-call timeout, defaulting to 30s.
func (c *InferenceConfig) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// RetryDelay returns the pause between retry attempts.
func (c *InferenceConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// IntakeConfig holds intake pipeline settings.
type IntakeConfig struct {
	// ConfidenceFloor of 0 disables the classification confidence check.
	ConfidenceFloor   float64 `mapstructure:"confidence_floor"`
	MaxArtifactSizeMB int64   `mapstructure:"max_artifact_size_mb"`
	ProfilesPath      string  `mapstructure:"profiles_path"`
	ArchiveArtifacts  bool    `mapstructure:"archive_artifacts"`
	// DraftTTL of 0 keeps idle drafts until they are cancelled.
	DraftTTL time.Duration `mapstructure:"draft_ttl"`
}

// SweepInterval returns how often idle drafts are swept: a quarter of the
// draft TTL, but never more often than once a minute.
func (c *IntakeConfig) SweepInterval() time.Duration {
	interval := c.DraftTTL / 4
	if interval < time.Minute {
		return time.Minute
	}
	return interval
}

// MaxArtifactBytes returns the artifact size limit in bytes.
func (c *IntakeConfig) MaxArtifactBytes() int64 {
	return c.MaxArtifactSizeMB * 1024 * 1024
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
	// MigrationsPath is the directory cmd/migrate reads the claims schema from.
	MigrationsPath string `mapstructure:"migrations_path"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds settings for verifying tokens issued by the identity provider.
type JWTConfig struct {
	Secret   string `mapstructure:"secret"`
	Issuer   string `mapstructure:"issuer"`
	Audience string `mapstructure:"audience"`
}

// S3Config holds settings for the artifact archive bucket.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the CLAIMS_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CLAIMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "claims")
	v.SetDefault("db.password", "claims_secret")
	v.SetDefault("db.name", "claims_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)
	v.SetDefault("db.migrations_path", "db/migrations")

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "")
	v.SetDefault("jwt.audience", "")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "claim-artifacts")
	v.SetDefault("s3.endpoint", "")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Inference service defaults
	for _, svc := range []string{"classifier", "extractor"} {
		v.SetDefault(svc+".base_url", "")
		v.SetDefault(svc+".api_key", "")
		v.SetDefault(svc+".timeout_secs", 30)
		v.SetDefault(svc+".max_retries", 2)
		v.SetDefault(svc+".retry_delay_ms", 500)
		v.SetDefault(svc+".rate_per_sec", 5)
		v.SetDefault(svc+".burst", 10)
	}
	v.SetDefault("classifier.base_url", "http://localhost:5001")
	v.SetDefault("extractor.base_url", "http://localhost:5002")
	v.SetDefault("extractor.timeout_secs", 60)

	// Intake defaults
	v.SetDefault("intake.confidence_floor", 0)
	v.SetDefault("intake.max_artifact_size_mb", 10)
	v.SetDefault("intake.profiles_path", "")
	v.SetDefault("intake.archive_artifacts", true)
	v.SetDefault("intake.draft_ttl", "2h")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                 "CLAIMS_SERVER_PORT",
		"server.read_timeout":         "CLAIMS_SERVER_READ_TIMEOUT",
		"server.write_timeout":        "CLAIMS_SERVER_WRITE_TIMEOUT",
		"server.environment":          "CLAIMS_SERVER_ENVIRONMENT",
		"db.host":                     "CLAIMS_DB_HOST",
		"db.port":                     "CLAIMS_DB_PORT",
		"db.user":                     "CLAIMS_DB_USER",
		"db.password":                 "CLAIMS_DB_PASSWORD",
		"db.name":                     "CLAIMS_DB_NAME",
		"db.sslmode":                  "CLAIMS_DB_SSLMODE",
		"db.max_open":                 "CLAIMS_DB_MAX_OPEN",
		"db.max_idle":                 "CLAIMS_DB_MAX_IDLE",
		"db.migrations_path":          "CLAIMS_DB_MIGRATIONS_PATH",
		"jwt.secret":                  "CLAIMS_JWT_SECRET",
		"jwt.issuer":                  "CLAIMS_JWT_ISSUER",
		"jwt.audience":                "CLAIMS_JWT_AUDIENCE",
		"s3.region":                   "CLAIMS_S3_REGION",
		"s3.bucket":                   "CLAIMS_S3_BUCKET",
		"s3.endpoint":                 "CLAIMS_S3_ENDPOINT",
		"s3.access_key":               "CLAIMS_S3_ACCESS_KEY",
		"s3.secret_key":               "CLAIMS_S3_SECRET_KEY",
		"log.level":                   "CLAIMS_LOG_LEVEL",
		"log.format":                  "CLAIMS_LOG_FORMAT",
		"cors.allowed_origins":        "CLAIMS_CORS_ALLOWED_ORIGINS",
		"classifier.base_url":         "CLAIMS_CLASSIFIER_BASE_URL",
		"classifier.api_key":          "CLAIMS_CLASSIFIER_API_KEY",
		"classifier.timeout_secs":     "CLAIMS_CLASSIFIER_TIMEOUT_SECS",
		"classifier.max_retries":      "CLAIMS_CLASSIFIER_MAX_RETRIES",
		"classifier.retry_delay_ms":   "CLAIMS_CLASSIFIER_RETRY_DELAY_MS",
		"classifier.rate_per_sec":     "CLAIMS_CLASSIFIER_RATE_PER_SEC",
		"classifier.burst":            "CLAIMS_CLASSIFIER_BURST",
		"extractor.base_url":          "CLAIMS_EXTRACTOR_BASE_URL",
		"extractor.api_key":           "CLAIMS_EXTRACTOR_API_KEY",
		"extractor.timeout_secs":      "CLAIMS_EXTRACTOR_TIMEOUT_SECS",
		"extractor.max_retries":       "CLAIMS_EXTRACTOR_MAX_RETRIES",
		"extractor.retry_delay_ms":    "CLAIMS_EXTRACTOR_RETRY_DELAY_MS",
		"extractor.rate_per_sec":      "CLAIMS_EXTRACTOR_RATE_PER_SEC",
		"extractor.burst":             "CLAIMS_EXTRACTOR_BURST",
		"intake.confidence_floor":     "CLAIMS_INTAKE_CONFIDENCE_FLOOR",
		"intake.max_artifact_size_mb": "CLAIMS_INTAKE_MAX_ARTIFACT_SIZE_MB",
		"intake.profiles_path":        "CLAIMS_INTAKE_PROFILES_PATH",
		"intake.archive_artifacts":    "CLAIMS_INTAKE_ARCHIVE_ARTIFACTS",
		"intake.draft_ttl":            "CLAIMS_INTAKE_DRAFT_TTL",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if CLAIMS_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("CLAIMS_SERVER_PORT") == "" {
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

		MigrationsPath: v.GetString("db.migrations_path"),
	}
	cfg.JWT = JWTConfig{
		Secret:   v.GetString("jwt.secret"),
		Issuer:   v.GetString("jwt.issuer"),
		Audience: v.GetString("jwt.audience"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Classifier = loadInference(v, "classifier")
	cfg.Extractor = loadInference(v, "extractor")

	cfg.Intake = IntakeConfig{
		ConfidenceFloor:   v.GetFloat64("intake.confidence_floor"),
		MaxArtifactSizeMB: v.GetInt64("intake.max_artifact_size_mb"),
		ProfilesPath:      v.GetString("intake.profiles_path"),
		ArchiveArtifacts:  v.GetBool("intake.archive_artifacts"),
		DraftTTL:          v.GetDuration("intake.draft_ttl"),
	}
	if cfg.Intake.DraftTTL < 0 {
		return nil, fmt.Errorf("intake.draft_ttl must not be negative, got %s", cfg.Intake.DraftTTL)
	}
	if cfg.Intake.ConfidenceFloor < 0 || cfg.Intake.ConfidenceFloor > 1 {
		return nil, fmt.Errorf("intake.confidence_floor must be within [0,1], got %v", cfg.Intake.ConfidenceFloor)
	}

	return cfg, nil
}

func loadInference(v *viper.Viper, prefix string) InferenceConfig {
	return InferenceConfig{
		BaseURL:      strings.TrimRight(v.GetString(prefix+".base_url"), "/"),
		APIKey:       v.GetString(prefix + ".api_key"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
		MaxRetries:   v.GetInt(prefix + ".max_retries"),
		RetryDelayMs: v.GetInt(prefix + ".retry_delay_ms"),
		RatePerSec:   v.GetFloat64(prefix + ".rate_per_sec"),
		Burst:        v.GetInt(prefix + ".burst"),
	}
}
