package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvBotToken = "BOT_TOKEN"
	EnvChatID   = "CHAT_ID"
	EnvHTTPAddr = "HTTP_ADDR"
	EnvLogLevel = "LOG_LEVEL"
)

// DefaultEnvFile is loaded when no explicit env file is given.
const DefaultEnvFile = ".env"

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing default
// file is not an error; a missing explicit file is.
func LoadEnvFile(path string) error {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays process environment onto cfg.
func ApplyEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Telegram.Token = strings.TrimSpace(os.Getenv(EnvBotToken))
	cfg.Telegram.ChatID = strings.TrimSpace(os.Getenv(EnvChatID))
	if v := strings.TrimSpace(os.Getenv(EnvHTTPAddr)); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = v
	}
}

// ParseChatID coerces a textual chat identity into its numeric form.
// Group and channel ids are negative ("-100...").
func ParseChatID(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errors.New("chat id is empty")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q: %w", raw, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid chat id %q: must not be zero", raw)
	}
	return id, nil
}
