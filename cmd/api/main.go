package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogchat/internal/blog"
	"blogchat/internal/chat"
	"blogchat/internal/config"
	"blogchat/internal/http"
	"blogchat/internal/llm"
	"blogchat/internal/service"
	"blogchat/internal/web"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postsFS := web.Posts()
	if cfg.PostsDir != "" {
		postsFS = os.DirFS(cfg.PostsDir)
	}
	posts, err := blog.Load(postsFS)
	if err != nil {
		log.Fatalf("Failed to load posts: %v", err)
	}
	slog.Info("Posts loaded", "count", len(posts.List()), "dir", cfg.PostsDir)

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(nil)

	sessions := service.NewSessions(llmClient, service.Settings{
		Chat: chat.Config{
			Endpoint: cfg.ChatEndpoint,
			Model:    cfg.ChatModel,
			APIKey:   cfg.ChatAPIKey,
		},
		Greeting: cfg.Greeting,
		Apology:  cfg.Apology,
		TTL:      cfg.SessionTTL,
	})
	go sessions.Run(ctx)
	if cfg.ChatAPIKey == "" {
		slog.Warn("No chat API key configured; the assistant will answer with the apology message")
	}

	// Create router with dependencies
	router := http.NewRouter(&http.Deps{
		Sessions:       sessions,
		Posts:          posts,
		WidgetJS:       web.WidgetJS,
		AllowedOrigins: cfg.Origins(),
	})

	srv := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Shutdown failed", "error", err)
		}
	}()

	// Start API server
	slog.Info("Starting API server", "addr", srv.Addr)
	slog.Debug("Chat configuration", "endpoint", cfg.ChatEndpoint, "model", cfg.ChatModel)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
	slog.Info("API server stopped")
}
