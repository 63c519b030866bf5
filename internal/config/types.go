package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Config is the on-disk configuration (JSON or YAML).
//
// Secrets never live in the file: the bot token and destination chat come
// from the environment (or a .env file) and are filled in by ApplyEnv.
type Config struct {
	HTTP     HTTPConfig     `json:"http"`
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
}

// HTTPConfig controls the form endpoint listener.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
//
// Defaults (when fields are omitted/zero):
//   - addr: ":8000"
//   - read_timeout: "10s"
//   - write_timeout: "30s"
//   - idle_timeout: "60s"
//   - shutdown_timeout: "5s"
type HTTPConfig struct {
	Addr            string `json:"addr,omitempty"`
	ReadTimeout     string `json:"read_timeout,omitempty"`
	WriteTimeout    string `json:"write_timeout,omitempty"`
	IdleTimeout     string `json:"idle_timeout,omitempty"`
	ShutdownTimeout string `json:"shutdown_timeout,omitempty"`

	// StaticDir, when set, is served at "/" (the landing page with the form).
	StaticDir string `json:"static_dir,omitempty"`

	// Pprof mounts the runtime profiler under /debug. Keep it off on
	// public listeners.
	Pprof bool `json:"pprof,omitempty"`

	CORS CORSConfig `json:"cors"`
}

// CORSConfig is the cross-origin allow-list. Empty AllowedOrigins disables
// cross-origin access entirely.
type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
	AllowedMethods []string `json:"allowed_methods,omitempty"`
	AllowedHeaders []string `json:"allowed_headers,omitempty"`
	MaxAge         int      `json:"max_age,omitempty"`
}

type TelegramConfig struct {
	// APIURL points at the Bot API server (default https://api.telegram.org).
	APIURL string `json:"api_url,omitempty"`
	// HTTPTimeout is a Go duration string (default "10s").
	HTTPTimeout string `json:"http_timeout,omitempty"`

	// Token and ChatID come from BOT_TOKEN and CHAT_ID.
	Token  string `json:"-"`
	ChatID string `json:"-"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingTelegram mirrors log records into an operator chat.
type LoggingTelegram struct {
	Enabled    bool    `json:"enabled"`
	ChatID     ChatRef `json:"chat_id"`
	MinLevel   string  `json:"min_level"`
	RatePerSec int     `json:"rate_per_sec"`
}

// ChatRef is a chat identity as written in config. It accepts both a JSON
// number and a string, since YAML users write ids either way. It is
// coerced with ParseChatID before use.
type ChatRef string

func (c *ChatRef) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*c = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*c = ChatRef(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("chat id: %w", err)
	}
	*c = ChatRef(n.String())
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr: ":8000",
			CORS: CORSConfig{
				AllowedMethods: []string{"POST"},
				AllowedHeaders: []string{"*"},
			},
		},
		Telegram: TelegramConfig{
			APIURL: "https://api.telegram.org",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// withDefaults fills zero values that have a sensible default.
func (c *Config) withDefaults() {
	d := Default()
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = d.HTTP.Addr
	}
	if len(c.HTTP.CORS.AllowedMethods) == 0 {
		c.HTTP.CORS.AllowedMethods = d.HTTP.CORS.AllowedMethods
	}
	if len(c.HTTP.CORS.AllowedHeaders) == 0 {
		c.HTTP.CORS.AllowedHeaders = d.HTTP.CORS.AllowedHeaders
	}
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = d.Telegram.APIURL
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}
