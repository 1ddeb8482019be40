// Package config loads and validates the auditor configuration using Viper.
//
// Configuration is layered: built-in defaults < YAML config file < environment
// variables. Environment variables use the AUDITOR_ prefix (e.g.,
// AUDITOR_DATABASE_HOST overrides database.host in the YAML).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PGVectorDimensions is the width of the knowledge_chunks.embedding column.
const PGVectorDimensions = 768

// Config holds all application configuration
type Config struct {
	Server        ServerConfig         `mapstructure:"server"`
	Database      DatabaseConfig       `mapstructure:"database"`
	Knowledge     KnowledgeConfig      `mapstructure:"knowledge"`
	LLM           LLMConfig            `mapstructure:"llm"`
	Audit         AuditConfig          `mapstructure:"audit"`
	Ingest        IngestConfig         `mapstructure:"ingest"`
	Auth          AuthConfig           `mapstructure:"auth"`
	Identity      IdentityConfig       `mapstructure:"identity"`
	Security      SecurityConfig       `mapstructure:"security"`
	Logging       LoggingConfig        `mapstructure:"logging"`
	Telemetry     TelemetryConfig      `mapstructure:"telemetry"`
	Storage       StorageConfig        `mapstructure:"storage"`
	UsageShippers []UsageShipperConfig `mapstructure:"usage_shippers"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode"`
	MaxConnections     int    `mapstructure:"max_connections"`
	MinIdleConnections int    `mapstructure:"min_idle_connections"`
}

// KnowledgeConfig controls where statutory chunks live and how they are retrieved.
type KnowledgeConfig struct {
	// Backend is "pgvector" or "weaviate"
	Backend        string         `mapstructure:"backend"`
	MatchThreshold float64        `mapstructure:"match_threshold"`
	MatchCount     int            `mapstructure:"match_count"`
	ChunkCharCap   int            `mapstructure:"chunk_char_cap"`
	Weaviate       WeaviateConfig `mapstructure:"weaviate"`
}

// WeaviateConfig holds Weaviate connection settings
type WeaviateConfig struct {
	Host      string `mapstructure:"host"`
	Scheme    string `mapstructure:"scheme"`
	ClassName string `mapstructure:"class_name"`
}

// LLMConfig holds generation and embedding provider settings
type LLMConfig struct {
	Primary        ModelConfig     `mapstructure:"primary"`
	Fallback       ModelConfig     `mapstructure:"fallback"`
	Embedding      EmbeddingConfig `mapstructure:"embedding"`
	Gemini         GeminiConfig    `mapstructure:"gemini"`
	OpenAI         OpenAIConfig    `mapstructure:"openai"`
	RequestTimeout time.Duration   `mapstructure:"request_timeout"`
}

// ModelConfig names a provider/model pair and its published rate limits
type ModelConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	RPMLimit int    `mapstructure:"rpm_limit"`
	TPMLimit int    `mapstructure:"tpm_limit"`
}

// EmbeddingConfig holds embedding model settings
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// GeminiConfig holds Gemini API credentials
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// OpenAIConfig holds OpenAI-compatible API credentials
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// AuditConfig holds audit pipeline limits
type AuditConfig struct {
	MaxUploadBytes    int64         `mapstructure:"max_upload_bytes"`
	MinTextChars      int           `mapstructure:"min_text_chars"`
	PolicyCharCap     int           `mapstructure:"policy_char_cap"`
	EmbedCharCap      int           `mapstructure:"embed_char_cap"`
	StatsWindow       time.Duration `mapstructure:"stats_window"`
	DefaultDailyLimit int           `mapstructure:"default_daily_limit"`
}

// IngestConfig holds knowledge-base ingestion settings
type IngestConfig struct {
	MaxMarkdownBytes int64 `mapstructure:"max_markdown_bytes"`
	ChunkSize        int   `mapstructure:"chunk_size"`
	ChunkOverlap     int   `mapstructure:"chunk_overlap"`
	WordChunkChars   int   `mapstructure:"word_chunk_chars"`
	Concurrency      int   `mapstructure:"concurrency"`
}

// AuthConfig holds bearer-token verification settings
type AuthConfig struct {
	JWTSecret string     `mapstructure:"jwt_secret"`
	OIDC      OIDCConfig `mapstructure:"oidc"`
}

// OIDCConfig holds OpenID Connect verifier settings
type OIDCConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	IssuerURL string `mapstructure:"issuer_url"`
	ClientID  string `mapstructure:"client_id"`
}

// IdentityConfig points at the identity provider's admin API
type IdentityConfig struct {
	AdminURL   string `mapstructure:"admin_url"`
	ServiceKey string `mapstructure:"service_key"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting"`
	TLS          TLSConfig          `mapstructure:"tls"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitingConfig holds rate limiting configuration
type RateLimitingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	Burst             int    `mapstructure:"burst"`
	RedisAddr         string `mapstructure:"redis_addr"`
	RedisPassword     string `mapstructure:"redis_password"`
}

// TLSConfig holds TLS/HTTPS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	ServiceName string        `mapstructure:"service_name"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
	Tracing     TracingConfig `mapstructure:"tracing"`
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	PrometheusPort int  `mapstructure:"prometheus_port"`
}

// TracingConfig holds distributed tracing configuration
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Exporter is "otlp" or "stdout"
	Exporter string `mapstructure:"exporter"`
	Endpoint string `mapstructure:"endpoint"`
}

// StorageConfig holds document archive configuration
type StorageConfig struct {
	ArchiveEnabled bool               `mapstructure:"archive_enabled"`
	DefaultBackend string             `mapstructure:"default_backend"`
	Azure          AzureStorageConfig `mapstructure:"azure"`
	S3             S3StorageConfig    `mapstructure:"s3"`
	GCS            GCSStorageConfig   `mapstructure:"gcs"`
	Local          LocalStorageConfig `mapstructure:"local"`
}

// AzureStorageConfig holds Azure Blob Storage configuration
type AzureStorageConfig struct {
	AccountName   string `mapstructure:"account_name"`
	AccountKey    string `mapstructure:"account_key"`
	ContainerName string `mapstructure:"container_name"`
}

// S3StorageConfig holds S3-compatible storage configuration
type S3StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AuthMethod      string `mapstructure:"auth_method"` // default, static, assume_role
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	RoleARN         string `mapstructure:"role_arn"`
	ExternalID      string `mapstructure:"external_id"`
}

// GCSStorageConfig holds Google Cloud Storage configuration
type GCSStorageConfig struct {
	Bucket          string `mapstructure:"bucket"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Endpoint        string `mapstructure:"endpoint"`
}

// LocalStorageConfig holds local filesystem storage configuration
type LocalStorageConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// UsageShipperConfig configures one external sink for usage records
type UsageShipperConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Type    string `mapstructure:"type"` // webhook, file
	// Webhook
	URL               string            `mapstructure:"url"`
	Headers           map[string]string `mapstructure:"headers"`
	TimeoutSecs       int               `mapstructure:"timeout_secs"`
	BatchSize         int               `mapstructure:"batch_size"`
	FlushIntervalSecs int               `mapstructure:"flush_interval_secs"`
	// File
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

func bindEnvVars(v *viper.Viper) error {
	keys := []string{
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",

		// Database
		"database.host",
		"database.port",
		"database.name",
		"database.user",
		"database.password",
		"database.ssl_mode",
		"database.max_connections",
		"database.min_idle_connections",

		// Knowledge
		"knowledge.backend",
		"knowledge.match_threshold",
		"knowledge.match_count",
		"knowledge.chunk_char_cap",
		"knowledge.weaviate.host",
		"knowledge.weaviate.scheme",
		"knowledge.weaviate.class_name",

		// LLM
		"llm.primary.provider",
		"llm.primary.model",
		"llm.primary.rpm_limit",
		"llm.primary.tpm_limit",
		"llm.fallback.provider",
		"llm.fallback.model",
		"llm.fallback.rpm_limit",
		"llm.fallback.tpm_limit",
		"llm.embedding.provider",
		"llm.embedding.model",
		"llm.embedding.dimensions",
		"llm.gemini.api_key",
		"llm.openai.api_key",
		"llm.openai.base_url",
		"llm.request_timeout",

		// Audit
		"audit.max_upload_bytes",
		"audit.min_text_chars",
		"audit.policy_char_cap",
		"audit.embed_char_cap",
		"audit.stats_window",
		"audit.default_daily_limit",

		// Ingest
		"ingest.max_markdown_bytes",
		"ingest.chunk_size",
		"ingest.chunk_overlap",
		"ingest.word_chunk_chars",
		"ingest.concurrency",

		// Auth / identity
		"auth.jwt_secret",
		"auth.oidc.enabled",
		"auth.oidc.issuer_url",
		"auth.oidc.client_id",
		"identity.admin_url",
		"identity.service_key",

		// Security
		"security.rate_limiting.enabled",
		"security.rate_limiting.requests_per_minute",
		"security.rate_limiting.burst",
		"security.rate_limiting.redis_addr",
		"security.rate_limiting.redis_password",
		"security.tls.enabled",
		"security.tls.cert_file",
		"security.tls.key_file",

		// Logging / telemetry
		"logging.level",
		"logging.format",
		"telemetry.service_name",
		"telemetry.metrics.enabled",
		"telemetry.metrics.prometheus_port",
		"telemetry.tracing.enabled",
		"telemetry.tracing.exporter",
		"telemetry.tracing.endpoint",

		// Storage
		"storage.archive_enabled",
		"storage.default_backend",
		"storage.local.base_path",
		"storage.s3.endpoint",
		"storage.s3.region",
		"storage.s3.bucket",
		"storage.s3.auth_method",
		"storage.s3.access_key_id",
		"storage.s3.secret_access_key",
		"storage.s3.role_arn",
		"storage.s3.external_id",
		"storage.gcs.bucket",
		"storage.gcs.credentials_file",
		"storage.gcs.endpoint",
		"storage.azure.account_name",
		"storage.azure.account_key",
		"storage.azure.container_name",
	}

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env var %s: %w", key, err)
		}
	}
	return nil
}

// Load reads configuration from the given path (or the default search path)
// and the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/policy-auditor")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("AUDITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv() alone doesn't reach nested keys during Unmarshal()
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Database.Password = expandEnv(cfg.Database.Password)
	cfg.LLM.Gemini.APIKey = expandEnv(cfg.LLM.Gemini.APIKey)
	cfg.LLM.OpenAI.APIKey = expandEnv(cfg.LLM.OpenAI.APIKey)
	cfg.Auth.JWTSecret = expandEnv(cfg.Auth.JWTSecret)
	cfg.Identity.ServiceKey = expandEnv(cfg.Identity.ServiceKey)
	cfg.Security.RateLimiting.RedisPassword = expandEnv(cfg.Security.RateLimiting.RedisPassword)
	cfg.Storage.S3.AccessKeyID = expandEnv(cfg.Storage.S3.AccessKeyID)
	cfg.Storage.S3.SecretAccessKey = expandEnv(cfg.Storage.S3.SecretAccessKey)
	cfg.Storage.Azure.AccountKey = expandEnv(cfg.Storage.Azure.AccountKey)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "policy_auditor")
	v.SetDefault("database.user", "auditor")
	v.SetDefault("database.ssl_mode", "require")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_idle_connections", 5)

	// Knowledge defaults
	v.SetDefault("knowledge.backend", "pgvector")
	v.SetDefault("knowledge.match_threshold", 0.5)
	v.SetDefault("knowledge.match_count", 5)
	v.SetDefault("knowledge.chunk_char_cap", 2000)
	v.SetDefault("knowledge.weaviate.host", "localhost:8081")
	v.SetDefault("knowledge.weaviate.scheme", "http")
	v.SetDefault("knowledge.weaviate.class_name", "LabourLaw")

	// LLM defaults
	v.SetDefault("llm.primary.provider", "gemini")
	v.SetDefault("llm.primary.model", "gemini-2.5-flash")
	v.SetDefault("llm.primary.rpm_limit", 15)
	v.SetDefault("llm.primary.tpm_limit", 1000000)
	v.SetDefault("llm.fallback.provider", "gemini")
	v.SetDefault("llm.fallback.model", "gemini-2.0-flash")
	v.SetDefault("llm.fallback.rpm_limit", 15)
	v.SetDefault("llm.fallback.tpm_limit", 1000000)
	v.SetDefault("llm.embedding.provider", "gemini")
	v.SetDefault("llm.embedding.model", "gemini-embedding-001")
	v.SetDefault("llm.embedding.dimensions", 768)
	v.SetDefault("llm.request_timeout", "90s")

	// Audit defaults
	v.SetDefault("audit.max_upload_bytes", 10*1024*1024)
	v.SetDefault("audit.min_text_chars", 50)
	v.SetDefault("audit.policy_char_cap", 30000)
	v.SetDefault("audit.embed_char_cap", 5000)
	v.SetDefault("audit.stats_window", "60s")
	v.SetDefault("audit.default_daily_limit", 1)

	// Ingest defaults
	v.SetDefault("ingest.max_markdown_bytes", 5*1024*1024)
	v.SetDefault("ingest.chunk_size", 3000)
	v.SetDefault("ingest.chunk_overlap", 300)
	v.SetDefault("ingest.word_chunk_chars", 1000)
	v.SetDefault("ingest.concurrency", 4)

	// Auth defaults
	v.SetDefault("auth.oidc.enabled", false)

	// Security defaults
	v.SetDefault("security.cors.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("security.rate_limiting.enabled", true)
	v.SetDefault("security.rate_limiting.requests_per_minute", 60)
	v.SetDefault("security.rate_limiting.burst", 10)
	v.SetDefault("security.tls.enabled", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Telemetry defaults
	v.SetDefault("telemetry.service_name", "policy-auditor")
	v.SetDefault("telemetry.metrics.enabled", true)
	v.SetDefault("telemetry.metrics.prometheus_port", 9090)
	v.SetDefault("telemetry.tracing.enabled", false)
	v.SetDefault("telemetry.tracing.exporter", "otlp")
	v.SetDefault("telemetry.tracing.endpoint", "localhost:4317")

	// Storage defaults
	v.SetDefault("storage.archive_enabled", false)
	v.SetDefault("storage.default_backend", "local")
	v.SetDefault("storage.local.base_path", "./archive")
}

// expandEnv expands environment variables in the format ${VAR_NAME}
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

var validProviders = map[string]bool{"gemini": true, "openai": true}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}

	switch c.Knowledge.Backend {
	case "pgvector":
	case "weaviate":
		if c.Knowledge.Weaviate.Host == "" {
			return fmt.Errorf("knowledge.weaviate.host is required when using the weaviate backend")
		}
		if c.Knowledge.Weaviate.ClassName == "" {
			return fmt.Errorf("knowledge.weaviate.class_name is required when using the weaviate backend")
		}
	default:
		return fmt.Errorf("invalid knowledge backend: %s (must be pgvector or weaviate)", c.Knowledge.Backend)
	}
	if c.Knowledge.MatchCount < 1 {
		return fmt.Errorf("knowledge.match_count must be at least 1")
	}
	if c.Knowledge.MatchThreshold < 0 || c.Knowledge.MatchThreshold > 1 {
		return fmt.Errorf("knowledge.match_threshold must be between 0 and 1")
	}

	for name, m := range map[string]ModelConfig{"primary": c.LLM.Primary, "fallback": c.LLM.Fallback} {
		if !validProviders[m.Provider] {
			return fmt.Errorf("invalid llm.%s.provider: %s (must be gemini or openai)", name, m.Provider)
		}
		if m.Model == "" {
			return fmt.Errorf("llm.%s.model is required", name)
		}
	}
	if !validProviders[c.LLM.Embedding.Provider] {
		return fmt.Errorf("invalid llm.embedding.provider: %s (must be gemini or openai)", c.LLM.Embedding.Provider)
	}
	if c.LLM.Embedding.Dimensions < 1 {
		return fmt.Errorf("llm.embedding.dimensions must be positive")
	}
	if c.Knowledge.Backend == "pgvector" && c.LLM.Embedding.Dimensions != PGVectorDimensions {
		return fmt.Errorf("llm.embedding.dimensions must be %d with the pgvector backend", PGVectorDimensions)
	}

	if c.Audit.MaxUploadBytes <= 0 {
		return fmt.Errorf("audit.max_upload_bytes must be positive")
	}
	if c.Audit.PolicyCharCap <= 0 || c.Audit.EmbedCharCap <= 0 {
		return fmt.Errorf("audit.policy_char_cap and audit.embed_char_cap must be positive")
	}
	if c.Audit.DefaultDailyLimit < 0 {
		return fmt.Errorf("audit.default_daily_limit must not be negative")
	}

	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be positive")
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size)")
	}

	if c.Auth.OIDC.Enabled {
		if c.Auth.OIDC.IssuerURL == "" {
			return fmt.Errorf("auth.oidc.issuer_url is required when OIDC is enabled")
		}
		if c.Auth.OIDC.ClientID == "" {
			return fmt.Errorf("auth.oidc.client_id is required when OIDC is enabled")
		}
	}

	if c.Storage.ArchiveEnabled {
		switch c.Storage.DefaultBackend {
		case "local":
			if c.Storage.Local.BasePath == "" {
				return fmt.Errorf("storage.local.base_path is required when using local backend")
			}
		case "s3":
			if c.Storage.S3.Bucket == "" || c.Storage.S3.Region == "" {
				return fmt.Errorf("storage.s3.bucket and storage.s3.region are required when using S3 backend")
			}
		case "gcs":
			if c.Storage.GCS.Bucket == "" {
				return fmt.Errorf("storage.gcs.bucket is required when using GCS backend")
			}
		case "azure":
			if c.Storage.Azure.AccountName == "" || c.Storage.Azure.AccountKey == "" || c.Storage.Azure.ContainerName == "" {
				return fmt.Errorf("storage.azure account_name, account_key and container_name are required when using Azure backend")
			}
		default:
			return fmt.Errorf("invalid storage backend: %s (must be azure, s3, gcs, or local)", c.Storage.DefaultBackend)
		}
	}

	if c.Security.TLS.Enabled {
		if c.Security.TLS.CertFile == "" {
			return fmt.Errorf("security.tls.cert_file is required when TLS is enabled")
		}
		if c.Security.TLS.KeyFile == "" {
			return fmt.Errorf("security.tls.key_file is required when TLS is enabled")
		}
	}

	switch c.Telemetry.Tracing.Exporter {
	case "otlp", "stdout", "":
	default:
		return fmt.Errorf("invalid telemetry.tracing.exporter: %s (must be otlp or stdout)", c.Telemetry.Tracing.Exporter)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetAddress returns the server address in host:port format
func (c *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ProviderConfigured reports whether credentials exist for the named provider.
func (c *LLMConfig) ProviderConfigured(provider string) bool {
	switch provider {
	case "gemini":
		return c.Gemini.APIKey != ""
	case "openai":
		return c.OpenAI.APIKey != ""
	}
	return false
}
