package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vadimbarashkov/shortcode/internal/app"
	"github.com/vadimbarashkov/shortcode/internal/config"
	"github.com/vadimbarashkov/shortcode/internal/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log, closeLog := logger.New(cfg.Log, cfg.Env)
	defer closeLog()

	if err := app.Run(ctx, cfg, log); err != nil {
		log.Error("service stopped with error", slog.Any("err", err))
		closeLog()
		os.Exit(1)
	}

	log.Info("service stopped")
}
