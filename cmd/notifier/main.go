package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nyashahama/lead-capture-backend/internal/ai"
	"github.com/nyashahama/lead-capture-backend/internal/config"
	"github.com/nyashahama/lead-capture-backend/internal/confirm"
	"github.com/nyashahama/lead-capture-backend/internal/email"
)

func main() {
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.LoadNotifier()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port, "transport", cfg.EmailTransport)

	// ── AI ────────────────────────────────────────────────────────────────────
	// Anthropic is primary, DeepSeek the fallback. With neither key set the
	// static industry intro is used for every email.
	var primary, secondary ai.Personalizer
	if cfg.AnthropicAPIKey != "" {
		primary = ai.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	}
	if cfg.DeepSeekAPIKey != "" {
		secondary = ai.NewDeepSeekClient(cfg.DeepSeekAPIKey, cfg.DeepSeekModel)
	}
	personalizer := ai.NewFallbackPersonalizer(primary, secondary, logger)
	logger.Info("ai personalization",
		"anthropic", primary != nil,
		"deepseek", secondary != nil,
	)

	// ── Email ─────────────────────────────────────────────────────────────────
	var sender email.Sender
	switch cfg.EmailTransport {
	case config.TransportSMTP:
		sender = email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFromAddr, cfg.EmailFromName)
		if cfg.SMTPHost == "" {
			logger.Warn("SMTP_HOST is not set; every send will fail")
		}
	default:
		sender = email.NewResendClient(cfg.ResendAPIKey, cfg.EmailFromAddr, cfg.EmailFromName)
		if cfg.ResendAPIKey == "" {
			logger.Warn("RESEND_API_KEY is not set; every send will fail")
		}
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	svc := confirm.NewService(sender, personalizer, confirm.ServiceConfig{
		ProductName:        cfg.ProductName,
		PersonalizeTimeout: cfg.PersonalizeTimeout,
	}, logger)

	handler := confirm.NewHandler(svc, confirm.HandlerConfig{
		Token:          cfg.Token,
		AllowedOrigins: cfg.AllowedOrigins,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("notifier listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
