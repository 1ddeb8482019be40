// wiring.go builds the repositories, services and background jobs behind the
// router from configuration.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/policy-auditor/policy-auditor/internal/api/access"
	"github.com/policy-auditor/policy-auditor/internal/api/admin"
	"github.com/policy-auditor/policy-auditor/internal/api/audit"
	"github.com/policy-auditor/policy-auditor/internal/auth"
	"github.com/policy-auditor/policy-auditor/internal/auth/oidc"
	"github.com/policy-auditor/policy-auditor/internal/config"
	"github.com/policy-auditor/policy-auditor/internal/db/repositories"
	"github.com/policy-auditor/policy-auditor/internal/jobs"
	"github.com/policy-auditor/policy-auditor/internal/knowledge"
	"github.com/policy-auditor/policy-auditor/internal/llm"
	"github.com/policy-auditor/policy-auditor/internal/middleware"
	"github.com/policy-auditor/policy-auditor/internal/services"
	"github.com/policy-auditor/policy-auditor/internal/shipper"
	"github.com/policy-auditor/policy-auditor/internal/storage"

	// Import storage backends to register them
	_ "github.com/policy-auditor/policy-auditor/internal/storage/azure"
	_ "github.com/policy-auditor/policy-auditor/internal/storage/gcs"
	_ "github.com/policy-auditor/policy-auditor/internal/storage/local"
	_ "github.com/policy-auditor/policy-auditor/internal/storage/s3"
)

// storageProbeKey is a known-absent key; Exists on it exercises credentials
// and connectivity without creating state.
const storageProbeKey = ".readiness-probe"

// BackgroundServices holds references to background jobs and resources that must
// be stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	gaugeJob     *jobs.UsageGaugeJob
	shippers     *shipper.MultiShipper
	rateLimiters []*middleware.RateLimiter
	redis        *redis.Client
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.gaugeJob != nil {
		bg.gaugeJob.Stop()
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	if bg.shippers != nil {
		if err := bg.shippers.Close(); err != nil {
			slog.Warn("failed to flush usage shippers", "error", err)
		}
	}
	if bg.redis != nil {
		if err := bg.redis.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
	slog.Info("all background services stopped")
}

// NewRouter builds every dependency from cfg and returns the configured
// router along with the background services it started.
func NewRouter(ctx context.Context, cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices, error) {
	bg := &BackgroundServices{}
	sqlxDB := sqlx.NewDb(db, "postgres")

	profileRepo := repositories.NewProfileRepository(sqlxDB)
	usageRepo := repositories.NewUsageRepository(db)
	accessRepo := repositories.NewAccessRequestRepository(sqlxDB)

	store, err := knowledge.NewStore(&cfg.Knowledge, sqlxDB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize knowledge store: %w", err)
	}
	if ws, ok := store.(*knowledge.WeaviateStore); ok {
		if err := ws.EnsureSchema(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to ensure weaviate schema: %w", err)
		}
	}
	log.Printf("Initialized knowledge store: %s", cfg.Knowledge.Backend)

	clients, err := llm.NewClients(ctx, &cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize model clients: %w", err)
	}
	embedder, err := clients.Embedder()
	if err != nil {
		return nil, nil, err
	}
	modelRouter, err := clients.Router()
	if err != nil {
		return nil, nil, err
	}

	probes := map[string]Pinger{"knowledge": PingFunc(store.Ping)}

	var archive storage.Storage
	if cfg.Storage.ArchiveEnabled {
		archive, err = storage.NewStorage(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize storage backend: %w", err)
		}
		probes["storage"] = PingFunc(func(ctx context.Context) error {
			_, err := archive.Exists(ctx, storageProbeKey)
			return err
		})
		log.Printf("Document archive enabled: %s", cfg.Storage.DefaultBackend)
	}

	var usageShipper services.UsageShipper
	if len(cfg.UsageShippers) > 0 {
		ms, err := shipper.New(cfg.UsageShippers)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize usage shippers: %w", err)
		}
		if ms.Len() > 0 {
			bg.shippers = ms
			usageShipper = ms
			log.Printf("Usage shipping enabled (%d sinks)", ms.Len())
		}
	}

	gate := services.NewQuotaGate(profileRepo, usageRepo)
	auditor := services.NewAuditor(cfg.Audit, services.AuditorDeps{
		Gate:      gate,
		Embedder:  embedder,
		Retriever: knowledge.NewRetriever(store, cfg.Knowledge.MatchThreshold, cfg.Knowledge.MatchCount, cfg.Knowledge.ChunkCharCap),
		Generator: modelRouter,
		Usage:     usageRepo,
		Shipper:   usageShipper,
		Archive:   archive,
	})
	ingester := services.NewIngester(cfg.Ingest, embedder, store)
	stats := services.NewStatsAggregator(&cfg.LLM, usageRepo, cfg.Audit.StatsWindow)

	var identity services.IdentityAdmin
	if ia := auth.NewIdentityAdmin(&cfg.Identity); ia != nil {
		identity = ia
	} else {
		log.Println("Identity admin API not configured; POST /admin/users and password resets are disabled")
	}
	accounts := services.NewAccounts(profileRepo, identity, cfg.Audit.DefaultDailyLimit)
	accessRequests := services.NewAccessRequests(accessRepo)

	verifier, err := newVerifier(ctx, &cfg.Auth)
	if err != nil {
		return nil, nil, err
	}

	limiter, publicLimiter := newRateLimiters(&cfg.Security.RateLimiting, bg)

	if cfg.Telemetry.Metrics.Enabled {
		bg.gaugeJob = jobs.NewUsageGaugeJob(stats, jobs.DefaultGaugeInterval)
		bg.gaugeJob.Start(context.Background())
		log.Println("Model usage gauge job started")
	}

	router := NewEngine(cfg, Handlers{
		Database:      db,
		Probes:        probes,
		Verifier:      verifier,
		Accounts:      gate,
		Limiter:       limiter,
		PublicLimiter: publicLimiter,
		Audit:         audit.NewHandlers(auditor, gate, usageRepo, cfg.Audit.MaxUploadBytes),
		Access:        access.NewHandlers(accessRequests),
		Users:         admin.NewUserHandlers(accounts),
		Stats:         admin.NewStatsHandler(stats),
		Ingest:        admin.NewIngestHandlers(ingester, cfg.Ingest.MaxMarkdownBytes),
		AccessAdmin:   admin.NewAccessRequestHandlers(accessRequests),
	})
	return router, bg, nil
}

// newVerifier selects OIDC discovery when enabled and the shared-secret
// verifier otherwise.
func newVerifier(ctx context.Context, cfg *config.AuthConfig) (auth.Verifier, error) {
	if cfg.OIDC.Enabled {
		v, err := oidc.NewVerifier(ctx, &cfg.OIDC)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OIDC verifier: %w", err)
		}
		log.Printf("Verifying tokens via OIDC issuer %s", cfg.OIDC.IssuerURL)
		return v, nil
	}
	v, err := auth.NewSecretVerifier(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token verifier: %w", err)
	}
	return v, nil
}

// newRateLimiters returns the authenticated and public limiters, or nils when
// rate limiting is disabled. Redis-backed limiters are shared across replicas.
func newRateLimiters(cfg *config.RateLimitingConfig, bg *BackgroundServices) (middleware.Limiter, middleware.Limiter) {
	if !cfg.Enabled {
		return nil, nil
	}

	general := middleware.DefaultRateLimitConfig()
	if cfg.RequestsPerMinute > 0 {
		general.RequestsPerMinute = cfg.RequestsPerMinute
	}
	if cfg.Burst > 0 {
		general.BurstSize = cfg.Burst
	}
	public := middleware.PublicRateLimitConfig()

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		bg.redis = client
		log.Printf("Rate limiting via redis at %s", cfg.RedisAddr)
		return middleware.NewRedisRateLimiter(client, "ratelimit:api:", general),
			middleware.NewRedisRateLimiter(client, "ratelimit:public:", public)
	}

	generalLimiter := middleware.NewRateLimiter(general)
	publicLimiter := middleware.NewRateLimiter(public)
	bg.rateLimiters = append(bg.rateLimiters, generalLimiter, publicLimiter)
	return generalLimiter, publicLimiter
}
