package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ZanzyTHEbar/neuropredict/docs"
	"github.com/ZanzyTHEbar/neuropredict/internal/analysis"
	"github.com/ZanzyTHEbar/neuropredict/internal/cache"
	"github.com/ZanzyTHEbar/neuropredict/internal/config"
	apperrors "github.com/ZanzyTHEbar/neuropredict/internal/errors"
	"github.com/ZanzyTHEbar/neuropredict/internal/frontend"
	"github.com/ZanzyTHEbar/neuropredict/internal/media"
	"github.com/ZanzyTHEbar/neuropredict/internal/middleware"
	"github.com/ZanzyTHEbar/neuropredict/internal/monitoring"
	"github.com/ZanzyTHEbar/neuropredict/internal/privacy"
	"github.com/ZanzyTHEbar/neuropredict/internal/ratelimit"
	"github.com/ZanzyTHEbar/neuropredict/internal/security"
)

const questionnairePath = "/api/assess/questionnaire"

// multipartOverhead is allowed on top of the clip limit for form boundaries and headers.
const multipartOverhead = 1 << 20

type server struct {
	cfg         config.Config
	analyzer    *analysis.Analyzer
	recorder    *media.Recorder
	cache       *cache.Cache
	redis       *ratelimit.RedisClient
	limiter     *ratelimit.RateLimiter
	metrics     *monitoring.Metrics
	prom        *monitoring.Prometheus
	logger      *monitoring.Logger
	privacy     *privacy.Service
	security    *security.SecurityMiddleware
	compression *middleware.CompressionMiddleware
}

func newServer(cfg config.Config, analyzer *analysis.Analyzer, priv *privacy.Service, logger *monitoring.Logger) *server {
	s := &server{
		cfg:      cfg,
		analyzer: analyzer,
		privacy:  priv,
		logger:   logger,
		metrics:  monitoring.NewMetrics(),
		cache:    cache.NewCache(cfg.CacheTTL),
		recorder: media.NewRecorder(media.Config{
			TTL:          cfg.CaptureTTL,
			MaxClipBytes: cfg.MaxClipBytes,
		}),
		compression: middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
	}
	s.prom = monitoring.NewPrometheus(s.recorder)

	redisClient, err := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("Redis unavailable, continuing with in-memory rate limiting", "error", err)
	}
	s.redis = redisClient
	s.limiter = ratelimit.NewRateLimiter(redisClient, ratelimit.Config{IPLimit: cfg.RateLimitPerMin}, s.metrics, s.prom)

	secCfg := security.DefaultSecurityConfig()
	secCfg.MaxBodyBytes = cfg.MaxClipBytes + multipartOverhead
	secCfg.AllowedOrigins = cfg.AllowedOrigins
	secCfg.EnableHSTS = cfg.EnableHSTS
	s.security = security.NewSecurityMiddleware(secCfg)

	return s
}

func (s *server) router() (*gin.Engine, error) {
	spa, err := frontend.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load frontend: %w", err)
	}

	secCfg := s.security.Config()

	r := gin.New()
	if err := r.SetTrustedProxies(secCfg.TrustedProxies); err != nil {
		return nil, apperrors.NewConfigurationError("invalid trusted proxies", err)
	}

	// Compression wraps the error handler so error bodies are compressed too.
	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.prom, s.logger))
	r.Use(s.compression.Handler())
	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())
	r.Use(monitoring.SecurityMonitoringMiddleware(s.logger, secCfg.MaxBodyBytes))
	r.Use(security.SecurityHeadersMiddleware(secCfg.EnableHSTS))
	r.Use(security.CSPMiddleware(secCfg.CSPReportURI))
	r.Use(s.security.CORS())
	r.Use(s.security.RequestTimeout)
	r.Use(s.security.LimitBody)
	r.Use(s.security.ValidateContentType)
	r.Use(s.limiter.IPRateLimitMiddleware())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.prom.Handler()))
	r.GET("/stats", s.handleStats)
	r.GET("/cache/stats", s.handleCacheStats)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	api.GET("/modalities", s.handleModalities)
	api.GET("/questionnaire", s.handleQuestionnaire)
	api.GET("/privacy", s.handlePrivacy)
	api.GET("/rate-limit", s.limiter.HandleRateLimitStatus(map[string]int{"assess": s.cfg.AssessPerMin}))

	assess := api.Group("/assess", s.limiter.EndpointRateLimitMiddleware("assess", s.cfg.AssessPerMin))
	assess.POST("/questionnaire", s.cache.Middleware(s.metrics, s.recordCachedAssessment, questionnairePath), s.handleAssessQuestionnaire)
	assess.POST("/audio", s.handleAssessMedia(analysis.ModalityAudio))
	assess.POST("/drawing", s.handleAssessMedia(analysis.ModalityDrawing))

	mediaGroup := api.Group("/media")
	mediaGroup.POST("/sessions", s.handleStartSession)
	mediaGroup.PUT("/sessions/:id/chunks", s.handleAppendChunk)
	mediaGroup.POST("/sessions/:id/stop", s.handleStopSession)
	mediaGroup.DELETE("/sessions/:id", s.handleResetSession)
	mediaGroup.POST("/uploads/:modality", s.handleUpload)
	mediaGroup.GET("/clips/:id", s.handleGetClip)
	mediaGroup.DELETE("/clips/:id", s.handleReleaseClip)

	r.NoRoute(spa)

	return r, nil
}

// run serves until ctx is cancelled, then drains requests and releases every
// held resource.
func (s *server) run(ctx context.Context) error {
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.close(closeCtx); err != nil {
			slog.Error("Failed to release resources", "error", err)
		}
	}()

	r, err := s.router()
	if err != nil {
		return err
	}

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	go monitoring.NewMemoryMonitor(10*time.Second, s.metrics, s.logger).Run(monitorCtx)

	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", s.cfg.Port, "version", version)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server exited")
	return nil
}

// close releases captures, caches and connections.
func (s *server) close(ctx context.Context) error {
	return errors.Join(
		s.recorder.Close(ctx),
		s.cache.Close(ctx),
		s.limiter.Close(),
		s.redis.Close(),
	)
}
