package config

import (
	"reflect"
	"strings"

	logx "formrelay/pkg/logx"
)

// SummarizeConfigChange returns (1) a compact list of changed sections and
// (2) safe structured attrs for logging (never includes the bot token).
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 12)

	if !reflect.DeepEqual(oldCfg.HTTP.CORS, newCfg.HTTP.CORS) {
		changed = append(changed, "http.cors")
		attrs = append(attrs,
			logx.Int("cors.origins", len(newCfg.HTTP.CORS.AllowedOrigins)),
			logx.String("cors.methods", strings.Join(newCfg.HTTP.CORS.AllowedMethods, ",")),
		)
	}

	if oldCfg.HTTP.Addr != newCfg.HTTP.Addr ||
		oldCfg.HTTP.ReadTimeout != newCfg.HTTP.ReadTimeout ||
		oldCfg.HTTP.WriteTimeout != newCfg.HTTP.WriteTimeout ||
		oldCfg.HTTP.IdleTimeout != newCfg.HTTP.IdleTimeout ||
		oldCfg.HTTP.ShutdownTimeout != newCfg.HTTP.ShutdownTimeout ||
		oldCfg.HTTP.StaticDir != newCfg.HTTP.StaticDir ||
		oldCfg.HTTP.Pprof != newCfg.HTTP.Pprof {
		changed = append(changed, "http")
		attrs = append(attrs,
			logx.String("http.addr", newCfg.HTTP.Addr),
			logx.Bool("http.static", strings.TrimSpace(newCfg.HTTP.StaticDir) != ""),
			logx.Bool("http.pprof", newCfg.HTTP.Pprof),
		)
	}

	if oldCfg.Telegram.APIURL != newCfg.Telegram.APIURL ||
		oldCfg.Telegram.HTTPTimeout != newCfg.Telegram.HTTPTimeout ||
		oldCfg.Telegram.Token != newCfg.Telegram.Token ||
		oldCfg.Telegram.ChatID != newCfg.Telegram.ChatID {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.String("telegram.api_url", newCfg.Telegram.APIURL),
			logx.Bool("telegram.token_changed", oldCfg.Telegram.Token != newCfg.Telegram.Token),
			logx.String("telegram.chat_id", newCfg.Telegram.ChatID),
		)
	}

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.telegram_enabled", newCfg.Logging.Telegram.Enabled),
		)
	}

	return changed, attrs
}

// RestartRequired lists changed sections that a running process cannot
// apply. Only CORS and logging are hot-reloadable.
func RestartRequired(changed []string) []string {
	var out []string
	for _, c := range changed {
		switch c {
		case "http.cors", "logging":
		default:
			out = append(out, c)
		}
	}
	return out
}
