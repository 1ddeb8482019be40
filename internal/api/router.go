// Package api wires together all HTTP routes for the policy auditor.
//
// Route groups:
//   - /health, /ready and /version are unauthenticated probes.
//   - /access-requests is public and rate limited per client IP.
//   - /audit, /logs and /profile require a bearer token.
//   - /admin additionally requires the admin role on the caller's profile.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/policy-auditor/policy-auditor/internal/api/access"
	"github.com/policy-auditor/policy-auditor/internal/api/admin"
	"github.com/policy-auditor/policy-auditor/internal/api/audit"
	"github.com/policy-auditor/policy-auditor/internal/auth"
	"github.com/policy-auditor/policy-auditor/internal/config"
	"github.com/policy-auditor/policy-auditor/internal/db/models"
	"github.com/policy-auditor/policy-auditor/internal/middleware"
)

// Version is the build version, overridden at link time.
var Version = "0.1.0"

// Pinger is a dependency the readiness probe can check
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// PingContext calls f
func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Handlers bundles everything the router mounts
type Handlers struct {
	// Database backs /health and /ready
	Database Pinger
	// Probes are extra readiness checks keyed by name
	Probes map[string]Pinger

	Verifier auth.Verifier
	Accounts middleware.AccountChecker

	// Limiter and PublicLimiter may be nil when rate limiting is disabled
	Limiter       middleware.Limiter
	PublicLimiter middleware.Limiter

	Audit       *audit.Handlers
	Access      *access.Handlers
	Users       *admin.UserHandlers
	Stats       *admin.StatsHandler
	Ingest      *admin.IngestHandlers
	AccessAdmin *admin.AccessRequestHandlers
}

// NewEngine creates and configures the Gin router
func NewEngine(cfg *config.Config, h Handlers) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	if cfg.Telemetry.Tracing.Enabled {
		router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig(cfg.Security.TLS.Enabled)))

	router.GET("/health", healthCheckHandler(h.Database))
	router.GET("/ready", readinessHandler(h.Database, h.Probes))
	router.GET("/version", versionHandler())

	public := router.Group("/access-requests")
	if h.PublicLimiter != nil {
		public.Use(middleware.RateLimitMiddleware(h.PublicLimiter))
	}
	{
		public.POST("", h.Access.SubmitHandler())
		public.GET("/status", h.Access.StatusHandler())
	}

	authenticated := router.Group("")
	authenticated.Use(middleware.AuthMiddleware(h.Verifier))
	if h.Limiter != nil {
		authenticated.Use(middleware.RateLimitMiddleware(h.Limiter))
	}
	{
		authenticated.POST("/audit", h.Audit.AuditHandler())
		authenticated.GET("/audit/status", h.Audit.StatusHandler())
		authenticated.GET("/logs", h.Audit.LogsHandler())
		authenticated.GET("/profile", h.Audit.ProfileHandler())

		adminGroup := authenticated.Group("/admin")
		adminGroup.Use(middleware.RequireRole(h.Accounts, models.RoleAdmin))
		{
			adminGroup.POST("/ingest-md", h.Ingest.IngestMarkdownHandler())
			adminGroup.GET("/stats", h.Stats.GetStats)

			adminGroup.POST("/users", h.Users.CreateUserHandler())
			adminGroup.PUT("/users/:id/password", h.Users.UpdatePasswordHandler())

			adminGroup.GET("/profiles", h.Users.ListProfilesHandler())
			adminGroup.GET("/profiles/:id", h.Users.GetProfileHandler())
			adminGroup.PUT("/profiles/:id/lock", h.Users.SetLockedHandler())
			adminGroup.PUT("/profiles/:id/limit", h.Users.SetDailyLimitHandler())
			adminGroup.DELETE("/profiles/:id", h.Users.DeleteProfileHandler())

			adminGroup.GET("/access-requests", h.AccessAdmin.ListHandler())
			adminGroup.PUT("/access-requests/:id", h.AccessAdmin.SetStatusHandler())
		}
	}

	return router
}

// @Summary      Health check
// @Description  Returns the health status of the service, including database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      Readiness check
// @Description  Returns whether the service is ready to accept traffic. Checks the database, the knowledge store and, when enabled, the document archive.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ready: true, checks, time"
// @Failure      503  {object}  map[string]interface{}  "ready: false, checks, error"
// @Router       /ready [get]
// readinessHandler returns the readiness status of the service.
// Unlike /health it also probes the knowledge store, so a readiness gate
// fails when audits could not retrieve legal context.
func readinessHandler(db Pinger, probes map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		checks := gin.H{}

		if err := db.PingContext(ctx); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		for name, p := range probes {
			if err := p.PingContext(ctx); err != nil {
				slog.Warn("readiness probe failed", "check", name, "error", err)
				checks[name] = "unhealthy"
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"ready":  false,
					"checks": checks,
					"error":  fmt.Sprintf("%s not ready", name),
				})
				return
			}
			checks[name] = "healthy"
		}

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Description  Returns the service build version.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "version, api_version"
// @Router       /version [get]
// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     Version,
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		requestID, _ := c.Get(middleware.RequestIDKey)
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
		}
		if query != "" {
			attrs = append(attrs, slog.String("query", query))
		}
		if userID := middleware.UserID(c); userID != "" {
			attrs = append(attrs, slog.String("user_id", userID))
		}
		// The handler installed by telemetry.SetupLogger decides json or text.
		if cfg.Logging.Format == "json" {
			attrs = append(attrs, slog.String("user_agent", c.Request.UserAgent()))
		}
		slog.LogAttrs(c.Request.Context(), level, "http request", attrs...)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
