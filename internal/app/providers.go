package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	mediahttp "github.com/omnimedia/server/internal/adapter/inbound/http/media"
	"github.com/omnimedia/server/internal/adapter/outbound/localfs"
	"github.com/omnimedia/server/internal/adapter/outbound/mediaprovider"
	redisadapter "github.com/omnimedia/server/internal/adapter/outbound/redis"
	"github.com/omnimedia/server/internal/adapter/outbound/s3"
	"github.com/omnimedia/server/internal/infra/audit"
	"github.com/omnimedia/server/internal/infra/httpclient"
	"github.com/omnimedia/server/internal/module/auth"
	"github.com/omnimedia/server/internal/module/generation"
	"github.com/omnimedia/server/internal/module/media"
	"github.com/omnimedia/server/internal/module/planner"
	"github.com/omnimedia/server/internal/port/outbound"
	"github.com/omnimedia/server/internal/shared/cache"
	"github.com/omnimedia/server/internal/shared/config"
	"github.com/omnimedia/server/internal/shared/logger"
	"github.com/omnimedia/server/internal/utils/metrics"
	"github.com/omnimedia/server/internal/utils/middleware"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideHTTPClient,
	ProvideRedis,
	ProvideRateLimiter,
	ProvideAudit,
)

// ProvideLogger builds the root logger from config.
func ProvideLogger(cfg *config.Config) *zap.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideRegistry creates the registry served on the metrics endpoint.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics registers application metrics on reg.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New("omnimedia", reg)
}

// ProvideHTTPClient provides the shared outbound HTTP client.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	return httpclient.New(&cfg.HTTPClient)
}

// ProvideRedis connects to Redis when the limiter needs it. The memory
// backend gets a nil client.
func ProvideRedis(cfg *config.Config) (goredis.UniversalClient, func(), error) {
	if cfg.RateLimit.Backend != "redis" {
		return nil, func() {}, nil
	}
	client, err := cache.NewRedisClient(context.Background(), &cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideRateLimiter selects the limiter backend.
func ProvideRateLimiter(client goredis.UniversalClient) outbound.RateLimiterPort {
	if client == nil {
		return auth.NewMemoryLimiter(nil)
	}
	return redisadapter.NewRateLimiter(client, nil)
}

// ProvideAudit opens the audit log when enabled.
func ProvideAudit(cfg *config.Config) (*audit.Logger, func(), error) {
	if !cfg.Audit.Enabled {
		return audit.Disabled(), func() {}, nil
	}
	l, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}
	return l, func() { _ = l.Close() }, nil
}

// ===== Admission Providers =====

// AuthSet provides admission dependencies.
var AuthSet = wire.NewSet(
	ProvideGate,
	ProvideAdminAllowlist,
)

// ProvideGate builds the key verifier and rate limit gate.
func ProvideGate(cfg *config.Config, limiter outbound.RateLimiterPort, log *zap.Logger) *auth.Gate {
	return auth.NewGate(&auth.GateConfig{
		Auth: auth.NewAPIKeyAuth(&auth.APIKeyConfig{
			Keys:        cfg.Auth.Keys,
			RequireKeys: cfg.Auth.RequireKeys,
		}),
		Limiter: limiter,
		Limits:  cfg.RateLimit.Buckets,
		Logger:  log.Named("gate"),
	})
}

// ProvideAdminAllowlist parses the admin allowlist. Unparseable entries are
// logged and skipped.
func ProvideAdminAllowlist(cfg *config.Config, log *zap.Logger) *auth.IPAllowlist {
	list, invalid := auth.NewIPAllowlist(cfg.Auth.AdminIPAllowlist)
	for _, entry := range invalid {
		log.Warn("ignoring invalid admin allowlist entry", zap.String("entry", entry))
	}
	return list
}

// ===== Media Providers =====

// MediaSet provides the generation pipeline.
var MediaSet = wire.NewSet(
	ProvideStorage,
	ProvideBackend,
	ProvideVideoProvider,
	ProvideOrchestrator,
	ProvideGenerationService,
)

// ProvideStorage selects the media storage backend.
func ProvideStorage(cfg *config.Config, log *zap.Logger) (outbound.MediaStoragePort, error) {
	switch cfg.Storage.Backend {
	case "s3":
		client, err := s3.NewClient(context.Background(), &cfg.Storage.S3)
		if err != nil {
			return nil, fmt.Errorf("create s3 client: %w", err)
		}
		return s3.NewMediaStorage(client, &cfg.Storage.S3, log), nil
	default:
		return localfs.NewMediaStorage(&cfg.Storage.Local)
	}
}

// ProvideBackend provides the HTTP generation backend.
func ProvideBackend(cfg *config.Config, client *http.Client, log *zap.Logger) media.Backend {
	return mediaprovider.NewHTTPBackend(&cfg.Backend, client, log)
}

// ProvideVideoProvider provides the external provider used by the video
// fallback chain. It stays inert until provider.video_url is set.
func ProvideVideoProvider(cfg *config.Config, log *zap.Logger) outbound.VideoProviderPort {
	return mediaprovider.NewVideoProvider(&cfg.Provider, nil, log)
}

// ProvideOrchestrator wires the planner, profiles and backend together.
func ProvideOrchestrator(cfg *config.Config, backend media.Backend, m *metrics.Metrics, log *zap.Logger) *media.Orchestrator {
	profiles := cfg.Profiles
	if len(profiles) == 0 {
		profiles = media.DefaultProfiles()
	}
	return media.NewOrchestrator(&media.OrchestratorConfig{
		Backend:  backend,
		Profiles: media.NewProfileRegistry(profiles...),
		Planner:  planner.New(planner.NewKeywordClassifier()),
		GIF:      media.NewFrameGIFEncoder(),
		Upscaler: media.LogicalUpscaler{},
		Observer: m,
		Config:   &cfg.Orchestrator,
		Logger:   log,
	})
}

// ProvideGenerationService builds the service facade and its worker pool.
func ProvideGenerationService(
	cfg *config.Config,
	orchestrator *media.Orchestrator,
	storage outbound.MediaStoragePort,
	provider outbound.VideoProviderPort,
	m *metrics.Metrics,
	log *zap.Logger,
) (*generation.Service, error) {
	fallback := cfg.Fallback
	if len(fallback.Catalog) == 0 {
		fallback.Catalog = generation.DefaultCatalog()
	}
	return generation.NewService(&generation.ServiceConfig{
		Orchestrator: orchestrator,
		Storage:      storage,
		Hooks:        media.NewDefaultHooks(&cfg.Hooks),
		Provider:     provider,
		Fallback:     &fallback,
		Worker:       &cfg.Worker,
		SignedURLTTL: cfg.Storage.SignedURLTTL,
		Recorder:     m,
		Logger:       log,
	})
}

// ===== HTTP Providers =====

// HTTPSet provides the HTTP surface.
var HTTPSet = wire.NewSet(
	ProvideHandler,
	ProvideRouter,
)

// ProvideHandler provides the media API handler.
func ProvideHandler(
	svc *generation.Service,
	gate *auth.Gate,
	allowlist *auth.IPAllowlist,
	auditLog *audit.Logger,
	m *metrics.Metrics,
) *mediahttp.Handler {
	return mediahttp.NewHandler(&mediahttp.Config{
		Service:        svc,
		Gate:           gate,
		AdminAllowlist: allowlist,
		Audit:          auditLog,
		Recorder:       m,
	})
}

// ProvideRouter builds the gin engine with global middleware, the metrics
// and docs endpoints and the /v1 API.
func ProvideRouter(
	cfg *config.Config,
	handler *mediahttp.Handler,
	reg *prometheus.Registry,
	m *metrics.Metrics,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.Server.CORSOrigins

	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(log))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.Metrics(m))

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	}
	if cfg.Server.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
	}

	handler.RegisterRoutes(r.Group("/v1"))
	return r
}

// AppSet is the full provider graph.
var AppSet = wire.NewSet(
	InfraSet,
	AuthSet,
	MediaSet,
	HTTPSet,
	NewApp,
)
