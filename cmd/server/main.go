package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ofertas/internal/access"
	"ofertas/internal/cache"
	"ofertas/internal/config"
	"ofertas/internal/crawler"
	"ofertas/internal/db"
	"ofertas/internal/extraction"
	"ofertas/internal/logging"
	"ofertas/internal/observability"
	"ofertas/internal/repository"
	"ofertas/internal/storage"
	"ofertas/internal/vision"
	"ofertas/internal/web"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	visionClient, err := vision.NewClient(vision.Options{APIKey: cfg.OpenAIKey, BaseURL: cfg.OpenAIBaseURL}, logger)
	if err != nil {
		logger.Fatal("erro ao criar cliente OpenAI", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	svc := &extraction.Service{
		Vision:       visionClient,
		Metrics:      metrics,
		Logger:       logger,
		DefaultModel: cfg.OpenAIModel,
	}

	if cfg.RedisURL != "" {
		store, err := cache.NewResponseStore(cfg.RedisURL, cfg.CacheTTL, logger)
		if err != nil {
			logger.Fatal("erro ao configurar Redis", zap.Error(err))
		}
		defer store.Close()
		svc.Cache = store
	} else {
		logger.Info("REDIS_URL vazia, usando cache em memória")
		svc.Cache = cache.NewMemoryStore(cfg.CacheTTL)
	}

	if cfg.DatabaseURL != "" {
		sqlDB, err := db.New(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("erro ao conectar no Postgres", zap.Error(err))
		}
		defer sqlDB.Close()
		if err := db.Migrate(ctx, sqlDB); err != nil {
			logger.Fatal("erro ao criar tabelas", zap.Error(err))
		}

		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("erro ao conectar no Postgres (pgxpool)", zap.Error(err))
		}
		defer pool.Close()

		svc.Runs = &repository.RunRepository{DB: sqlDB}
		svc.Products = &repository.ProductRepository{DB: pool}
	} else {
		logger.Info("DATABASE_URL vazia, persistência desabilitada")
	}

	if cfg.R2Bucket != "" {
		archive, err := storage.NewR2Archive(ctx, storage.R2Options{
			Endpoint:  cfg.R2Endpoint,
			AccessKey: cfg.R2AccessKey,
			SecretKey: cfg.R2SecretKey,
			Bucket:    cfg.R2Bucket,
			PublicURL: cfg.R2PublicURL,
		})
		if err != nil {
			logger.Fatal("erro ao configurar R2", zap.Error(err))
		}
		svc.Archive = archive
	}

	allow := access.NewAllowlist(cfg.AllowedEmails)
	if !allow.Enabled() {
		logger.Warn("ALLOWED_EMAILS vazia, controle de acesso desabilitado")
	}

	maxBytes := cfg.MaxUploadMB << 20
	handler := web.NewHandler(svc, crawler.NewFetcher(maxBytes), logger, web.Options{
		Models:    vision.Models,
		MaxBytes:  maxBytes,
		SampleDir: cfg.SampleDir,
	})

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           web.NewRouter(handler, allow, access.NewLimiter(cfg.RateLimitPerMinute), metrics.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.MetricsPort != "" && cfg.MetricsPort != cfg.HTTPPort {
		metrics.Start(cfg.MetricsPort)
	}

	go func() {
		logger.Info("Leitor de Ofertas rodando", zap.String("port", cfg.HTTPPort), zap.String("model", cfg.OpenAIModel))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("erro no servidor HTTP", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("sinal de encerramento recebido")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("erro ao encerrar servidor", zap.Error(err))
	}
}
