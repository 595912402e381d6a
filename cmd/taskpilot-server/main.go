package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	server "taskpilot/internal"
	"taskpilot/internal/agent"
	"taskpilot/internal/config"
	"taskpilot/internal/eventbus"
	"taskpilot/internal/llm"
	"taskpilot/internal/pushnotification"
	pushsubrepo "taskpilot/internal/pushsubscription/repositoryimpl"
	"taskpilot/internal/task"
	taskrepo "taskpilot/internal/task/repositoryimpl"
	"taskpilot/internal/tool"
	"taskpilot/internal/ws"
	"taskpilot/pkg/clog"
	"taskpilot/pkg/storage"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage for push subscriptions
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	// Setup repositories
	taskRepo, err := taskrepo.NewSQLiteRepository(env.DBEnv.DataDir)
	if err != nil {
		slog.Error("failed to open task database", "error", err)
		os.Exit(1)
	}
	defer taskRepo.Close()
	pushSubRepo := pushsubrepo.NewYAMLRepository(store)

	// Setup event bus
	bus := eventbus.New()

	// Setup agent
	registry, err := tool.NewTaskRegistry(taskRepo, bus)
	if err != nil {
		slog.Error("failed to build tool registry", "error", err)
		os.Exit(1)
	}
	chatAgent := agent.New(llm.NewOpenAIClient(&env.OpenAIEnv), registry)

	// Setup servers
	taskServer := task.NewServer(taskRepo, bus)
	wsManager := ws.NewManager()
	wsHandler := ws.NewHandler(wsManager, chatAgent, env.AllowedOrigins)

	// Setup push notification
	vapidEnv := config.VAPIDEnvFromEnv(env)
	pushSender := pushnotification.NewSender(vapidEnv, pushSubRepo)
	pushServer := pushnotification.NewServer(vapidEnv, pushSubRepo)
	pushDispatcher := pushnotification.NewDispatcher(bus, pushSender)

	srv := server.NewServer(env, taskServer, pushServer, wsHandler)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	go pushDispatcher.Start(ctx)

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
