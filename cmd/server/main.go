package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"autosite/internal/common/config"
	"autosite/internal/common/logger"
	"autosite/internal/common/observability"
	"autosite/internal/generator"
	"autosite/internal/notify"
	"autosite/internal/publisher"
	"autosite/internal/server"
	"autosite/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := logger.NewZapAdapter(zapLogger)

	if err := cfg.Validate(); err != nil {
		// Startup-time hard failure surfaced to the operator, no retry.
		zapLogger.Fatal("invalid configuration", zap.Error(err))
	}
	if !cfg.GenerationReady() {
		zapLogger.Warn("selected llm provider has no api key; generation requests will be refused",
			zap.String("provider", cfg.LLM.Provider))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	llmSettings := generator.Settings{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.SelectedAPIKey(),
	}
	if cfg.LLM.Provider == "anthropic" {
		llmSettings.BaseURL = cfg.LLM.Anthropic.BaseURL
	} else {
		llmSettings.BaseURL = cfg.LLM.OpenAI.BaseURL
	}

	var gen workflow.SiteGenerator
	if cfg.GenerationReady() {
		backend, err := generator.NewBackend(llmSettings)
		if err != nil {
			zapLogger.Fatal("failed to build text backend", zap.Error(err))
		}
		gen = generator.New(backend, generator.Config{
			Timeout:       time.Duration(cfg.LLM.Timeout) * time.Millisecond,
			RequiredFiles: cfg.Workflow.SiteFiles,
		}, log)
	}

	pub := publisher.NewClient(publisher.Config{
		Token:   cfg.GitHub.Token,
		Owner:   cfg.GitHub.Owner,
		BaseURL: cfg.GitHub.BaseURL,
		Timeout: time.Duration(cfg.GitHub.Timeout) * time.Millisecond,
	}, log)

	store, err := buildStore(cfg)
	if err != nil {
		zapLogger.Fatal("failed to build status store", zap.Error(err))
	}
	defer store.Close()

	queue := workflow.NewQueue(cfg.Workflow.Workers, cfg.Workflow.QueueSize, log)
	queue.Start()

	notifier, err := buildNotifier(cfg, log)
	if err != nil {
		zapLogger.Fatal("failed to build notifiers", zap.Error(err))
	}

	coord := workflow.NewCoordinator(workflow.Config{
		SharedSecret: cfg.Auth.SharedSecret,
		MaxRetries:   cfg.Workflow.MaxRetries,
		Backoff:      cfg.Workflow.Backoff(),
	}, gen, pub, store, queue, notifier, obs, log)

	srv, err := server.New(cfg, coord, queue, store, log)
	if err != nil {
		zapLogger.Fatal("failed to build server", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLogger.Info("server listening",
			zap.String("address", cfg.Server.Address),
			zap.String("llm_provider", cfg.LLM.Provider),
			zap.String("store", cfg.Store.Backend))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("http shutdown error", zap.Error(err))
	}
	if err := queue.Stop(shutdownCtx); err != nil {
		zapLogger.Warn("queue drain incomplete, in-flight workflows abandoned", zap.Error(err))
	}
	zapLogger.Info("shutdown complete")
}

func buildStore(cfg *config.Config) (workflow.StatusStore, error) {
	switch cfg.Store.Backend {
	case "redis":
		return workflow.NewRedisStore(workflow.RedisOptions{
			Address:   cfg.Store.Redis.Address,
			Password:  cfg.Store.Redis.Password,
			DB:        cfg.Store.Redis.DB,
			Retention: time.Duration(cfg.Store.Retention) * time.Second,
		}), nil
	case "postgres":
		return workflow.NewPostgresStore(cfg.Store.GetDSN())
	default:
		return workflow.NewMemoryStore(), nil
	}
}

func buildNotifier(cfg *config.Config, log logger.Logger) (workflow.Notifier, error) {
	notifiers := []workflow.Notifier{
		notify.NewCallbackNotifier(notify.CallbackConfig{
			MaxRetries: cfg.Notify.Callback.MaxRetries,
			Timeout:    time.Duration(cfg.Notify.Callback.Timeout) * time.Millisecond,
		}, log),
	}

	ctx := context.Background()
	if cfg.Notify.Email.Enabled {
		email, err := notify.NewEmailNotifier(ctx, cfg.Notify.AWS.Region, cfg.Notify.Email.FromEmail, log)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, email)
	}
	if cfg.Notify.OpsAlert.Enabled {
		alert, err := notify.NewOpsAlertNotifier(ctx, cfg.Notify.AWS.Region, cfg.Notify.OpsAlert.TopicARN, log)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, alert)
	}

	return notify.NewMulti(notifiers...), nil
}
