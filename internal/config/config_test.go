package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a Config that passes Validate.
func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{Host: "localhost", Name: "policy_auditor", User: "auditor"},
		Knowledge: KnowledgeConfig{
			Backend:        "pgvector",
			MatchThreshold: 0.5,
			MatchCount:     5,
		},
		LLM: LLMConfig{
			Primary:   ModelConfig{Provider: "gemini", Model: "gemini-2.5-flash"},
			Fallback:  ModelConfig{Provider: "openai", Model: "gpt-4o-mini"},
			Embedding: EmbeddingConfig{Provider: "gemini", Model: "gemini-embedding-001", Dimensions: 768},
		},
		Audit:   AuditConfig{MaxUploadBytes: 1024, PolicyCharCap: 100, EmbedCharCap: 50},
		Ingest:  IngestConfig{ChunkSize: 3000, ChunkOverlap: 300},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Knowledge.Backend != "pgvector" {
		t.Errorf("Knowledge.Backend = %q, want pgvector", cfg.Knowledge.Backend)
	}
	if cfg.Knowledge.MatchThreshold != 0.5 || cfg.Knowledge.MatchCount != 5 {
		t.Errorf("match params = (%v, %d), want (0.5, 5)", cfg.Knowledge.MatchThreshold, cfg.Knowledge.MatchCount)
	}
	if cfg.LLM.Primary.Model != "gemini-2.5-flash" {
		t.Errorf("LLM.Primary.Model = %q, want gemini-2.5-flash", cfg.LLM.Primary.Model)
	}
	if cfg.LLM.Embedding.Dimensions != 768 {
		t.Errorf("LLM.Embedding.Dimensions = %d, want 768", cfg.LLM.Embedding.Dimensions)
	}
	if cfg.Audit.EmbedCharCap != 5000 {
		t.Errorf("Audit.EmbedCharCap = %d, want 5000", cfg.Audit.EmbedCharCap)
	}
	if cfg.Audit.StatsWindow != 60*time.Second {
		t.Errorf("Audit.StatsWindow = %v, want 60s", cfg.Audit.StatsWindow)
	}
	if cfg.Ingest.ChunkSize != 3000 || cfg.Ingest.ChunkOverlap != 300 {
		t.Errorf("ingest chunking = (%d, %d), want (3000, 300)", cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AUDITOR_SERVER_PORT", "9999")
	t.Setenv("AUDITOR_LLM_FALLBACK_PROVIDER", "openai")
	t.Setenv("AUDITOR_LLM_FALLBACK_MODEL", "gpt-4o-mini")
	t.Setenv("GEMINI_KEY_FOR_TEST", "abc123")
	t.Setenv("AUDITOR_LLM_GEMINI_API_KEY", "${GEMINI_KEY_FOR_TEST}")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.LLM.Fallback.Provider != "openai" || cfg.LLM.Fallback.Model != "gpt-4o-mini" {
		t.Errorf("fallback = %+v, want openai/gpt-4o-mini", cfg.LLM.Fallback)
	}
	if cfg.LLM.Gemini.APIKey != "abc123" {
		t.Errorf("Gemini.APIKey = %q, want expanded value", cfg.LLM.Gemini.APIKey)
	}
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv("AUDITOR_KNOWLEDGE_BACKEND", "elasticsearch")

	_, err := Load("")
	if err == nil {
		t.Fatal("Load() error = nil, want error for unknown backend")
	}
	if !strings.Contains(err.Error(), "knowledge backend") {
		t.Errorf("error = %v, want mention of knowledge backend", err)
	}
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, "database.host"},
		{"weaviate without host", func(c *Config) {
			c.Knowledge.Backend = "weaviate"
			c.Knowledge.Weaviate.ClassName = "LabourLaw"
		}, "knowledge.weaviate.host"},
		{"zero match count", func(c *Config) { c.Knowledge.MatchCount = 0 }, "match_count"},
		{"threshold above one", func(c *Config) { c.Knowledge.MatchThreshold = 1.5 }, "match_threshold"},
		{"unknown provider", func(c *Config) { c.LLM.Primary.Provider = "anthropic" }, "llm.primary.provider"},
		{"missing fallback model", func(c *Config) { c.LLM.Fallback.Model = "" }, "llm.fallback.model"},
		{"pgvector dimension mismatch", func(c *Config) { c.LLM.Embedding.Dimensions = 1536 }, "dimensions must be 768"},
		{"weaviate allows other dimensions", func(c *Config) {
			c.Knowledge.Backend = "weaviate"
			c.Knowledge.Weaviate.Host = "localhost:8081"
			c.Knowledge.Weaviate.ClassName = "LabourLaw"
			c.LLM.Embedding.Dimensions = 1536
		}, ""},
		{"overlap too large", func(c *Config) { c.Ingest.ChunkOverlap = 3000 }, "chunk_overlap"},
		{"negative default limit", func(c *Config) { c.Audit.DefaultDailyLimit = -1 }, "default_daily_limit"},
		{"oidc without issuer", func(c *Config) { c.Auth.OIDC.Enabled = true }, "issuer_url"},
		{"archive s3 without bucket", func(c *Config) {
			c.Storage.ArchiveEnabled = true
			c.Storage.DefaultBackend = "s3"
		}, "storage.s3.bucket"},
		{"archive disabled ignores backend", func(c *Config) { c.Storage.DefaultBackend = "ftp" }, ""},
		{"bad tracing exporter", func(c *Config) { c.Telemetry.Tracing.Exporter = "zipkin" }, "exporter"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestGetDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	want := "host=db port=5433 user=u password=p dbname=n sslmode=disable"
	if got := cfg.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}

func TestGetAddress(t *testing.T) {
	cfg := ServerConfig{Host: "localhost", Port: 3000}
	if got := cfg.GetAddress(); got != "localhost:3000" {
		t.Errorf("GetAddress() = %q, want localhost:3000", got)
	}
}

func TestProviderConfigured(t *testing.T) {
	cfg := LLMConfig{Gemini: GeminiConfig{APIKey: "k"}}
	if !cfg.ProviderConfigured("gemini") {
		t.Error("gemini should be configured")
	}
	if cfg.ProviderConfigured("openai") {
		t.Error("openai should not be configured")
	}
	if cfg.ProviderConfigured("unknown") {
		t.Error("unknown provider should not be configured")
	}
}
