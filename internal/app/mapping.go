package app

import (
	"time"

	"formrelay/internal/config"
	"formrelay/internal/server"
	"formrelay/internal/transport/telegram/adapter"
	logx "formrelay/pkg/logx"
)

func mapAdapterConfig(cfg *config.Config) (adapter.Config, error) {
	timeout, err := config.ParseDurationOrDefault("telegram.http_timeout", cfg.Telegram.HTTPTimeout, 10*time.Second)
	if err != nil {
		return adapter.Config{}, err
	}
	return adapter.Config{
		Token:       cfg.Telegram.Token,
		APIURL:      cfg.Telegram.APIURL,
		HTTPTimeout: timeout,
	}, nil
}

func mapLogConfig(cfg *config.Config) (logx.Config, error) {
	chatID, err := cfg.LogChatID()
	if err != nil {
		return logx.Config{}, err
	}
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			ChatID:     chatID,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}, nil
}

func mapCORSConfig(cfg *config.Config) server.CORSConfig {
	c := cfg.HTTP.CORS
	return server.CORSConfig{
		AllowedOrigins: c.AllowedOrigins,
		AllowedMethods: c.AllowedMethods,
		AllowedHeaders: c.AllowedHeaders,
		MaxAge:         c.MaxAge,
	}
}

func mapServerConfig(cfg *config.Config) (server.Config, error) {
	h := cfg.HTTP
	read, err := config.ParseDurationOrDefault("http.read_timeout", h.ReadTimeout, 10*time.Second)
	if err != nil {
		return server.Config{}, err
	}
	write, err := config.ParseDurationOrDefault("http.write_timeout", h.WriteTimeout, 30*time.Second)
	if err != nil {
		return server.Config{}, err
	}
	idle, err := config.ParseDurationOrDefault("http.idle_timeout", h.IdleTimeout, 60*time.Second)
	if err != nil {
		return server.Config{}, err
	}
	return server.Config{
		Addr:         h.Addr,
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  idle,
		StaticDir:    h.StaticDir,
		Pprof:        h.Pprof,
		CORS:         mapCORSConfig(cfg),
	}, nil
}

func mapShutdownTimeout(cfg *config.Config) (time.Duration, error) {
	return config.ParseDurationOrDefault("http.shutdown_timeout", cfg.HTTP.ShutdownTimeout, 5*time.Second)
}
