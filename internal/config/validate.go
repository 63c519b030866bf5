package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	logx "formrelay/pkg/logx"
)

// Destination returns the numeric chat all form notifications go to.
func (c *Config) Destination() (int64, error) {
	id, err := ParseChatID(c.Telegram.ChatID)
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", EnvChatID, err)
	}
	return id, nil
}

// LogChatID returns the operator log chat, or 0 when unset.
func (c *Config) LogChatID() (int64, error) {
	if strings.TrimSpace(string(c.Logging.Telegram.ChatID)) == "" {
		return 0, nil
	}
	id, err := ParseChatID(string(c.Logging.Telegram.ChatID))
	if err != nil {
		return 0, fmt.Errorf("logging.telegram.chat_id: %w", err)
	}
	return id, nil
}

// Validate reports every problem in cfg at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Telegram.Token) == "" {
		errs = append(errs, fmt.Errorf("env %s: bot token is required", EnvBotToken))
	}
	if _, err := c.Destination(); err != nil {
		errs = append(errs, err)
	}
	if u, err := url.Parse(c.Telegram.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("telegram.api_url: invalid url %q", c.Telegram.APIURL))
	}

	durations := []struct{ path, raw string }{
		{"http.read_timeout", c.HTTP.ReadTimeout},
		{"http.write_timeout", c.HTTP.WriteTimeout},
		{"http.idle_timeout", c.HTTP.IdleTimeout},
		{"http.shutdown_timeout", c.HTTP.ShutdownTimeout},
		{"telegram.http_timeout", c.Telegram.HTTPTimeout},
	}
	for _, d := range durations {
		if _, err := ParseDurationField(d.path, d.raw); err != nil {
			errs = append(errs, err)
		}
	}

	if strings.TrimSpace(c.HTTP.Addr) == "" {
		errs = append(errs, errors.New("http.addr: listen address is required"))
	}
	if c.HTTP.CORS.MaxAge < 0 {
		errs = append(errs, errors.New("http.cors.max_age: must be >= 0"))
	}
	for _, o := range c.HTTP.CORS.AllowedOrigins {
		if strings.TrimSpace(o) == "" {
			errs = append(errs, errors.New("http.cors.allowed_origins: empty origin"))
			break
		}
	}

	if !logx.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	if !logx.ValidLevel(c.Logging.Telegram.MinLevel) {
		errs = append(errs, fmt.Errorf("logging.telegram.min_level: unknown level %q", c.Logging.Telegram.MinLevel))
	}
	if _, err := c.LogChatID(); err != nil {
		errs = append(errs, err)
	}
	if c.Logging.Telegram.RatePerSec < 0 {
		errs = append(errs, errors.New("logging.telegram.rate_per_sec: must be >= 0"))
	}

	return errors.Join(errs...)
}
