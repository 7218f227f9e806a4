package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetx/internal/advisor"
	"budgetx/internal/backend"
	"budgetx/internal/cache"
	"budgetx/internal/cli"
	"budgetx/internal/config"
	apphttp "budgetx/internal/http"
	"budgetx/internal/llm/gemini"
	applog "budgetx/internal/log"
	"budgetx/internal/middleware/ratelimit"
	"budgetx/internal/receipt"
	"budgetx/internal/services"
	"budgetx/internal/stats"
	"budgetx/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	ctx, cancel := cli.GracefulShutdown(logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend)).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	repo := store.Open(ctx, store.New(res.KV, logger.WithComponent(applog.ComponentStore)))

	summaries := cache.NewLRUCache[stats.Summary](16, 10*time.Minute)
	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	caches.Register(summaries)
	caches.StartCleanup(5 * time.Minute)
	defer caches.Stop()

	var notifier services.Notifier
	if res.Notifier != nil {
		notifier = res.Notifier
	}
	budget := services.NewBudgetService(repo, summaries, notifier, logger.WithComponent(applog.ComponentStore))

	model, err := gemini.New(ctx, gemini.Options{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
		Logger: logger.WithComponent(applog.ComponentModel),
	})
	if err != nil {
		return err
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:     ":" + cfg.Port,
		Budget:   budget,
		Receipts: receipt.NewGateway(model, logger.WithComponent(applog.ComponentReceipt)),
		Advisor:  advisor.NewGateway(model, logger.WithComponent(applog.ComponentAdvisor)),
		Storage:  res.KV,
		Logger:   logger.WithComponent(applog.ComponentHTTP),
		RateLimit: ratelimit.Config{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
		TrustedProxies: cfg.TrustedProxies,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting budgetx server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			applog.FieldModel, cfg.GeminiModel,
			"notifications", notifier != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := cli.ShutdownContext(30 * time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
			return err
		}
		return nil
	})

	return g.Wait()
}
