// Package logger builds the structured request logger shared by the service.
package logger

import (
	"io"
	"os"

	"github.com/go-chi/httplog/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vadimbarashkov/shortcode/internal/config"
)

const serviceName = "shortcode"

// New returns a logger writing to stdout and, when cfg.File is set, to a
// size-rotated file. The returned close func releases the file.
func New(cfg config.Log, env string) (*httplog.Logger, func() error) {
	return newWithWriter(cfg, env, os.Stdout)
}

func newWithWriter(cfg config.Log, env string, stdout io.Writer) (*httplog.Logger, func() error) {
	w := stdout
	closeFn := func() error { return nil }

	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		w = io.MultiWriter(stdout, file)
		closeFn = file.Close
	}

	logger := httplog.NewLogger(serviceName, httplog.Options{
		JSON:           cfg.JSON || env == config.EnvProd,
		LogLevel:       cfg.SlogLevel(),
		Concise:        env == config.EnvDev,
		RequestHeaders: env != config.EnvProd,
		Tags: map[string]string{
			"env": env,
		},
		Writer: w,
	})

	return logger, closeFn
}
