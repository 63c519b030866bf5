package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func setSecrets(t *testing.T, token, chatID string) {
	t.Helper()
	t.Setenv(EnvBotToken, token)
	t.Setenv(EnvChatID, chatID)
	t.Setenv(EnvHTTPAddr, "")
	t.Setenv(EnvLogLevel, "")
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

const jsonConfig = `{
  "http": {
    "addr": "127.0.0.1:9000",
    "read_timeout": "5s",
    "cors": {"allowed_origins": ["https://example.github.io"], "allowed_methods": ["POST"]}
  },
  "telegram": {"http_timeout": "3s"},
  "logging": {"level": "debug", "console": true, "file": {"enabled": false, "path": ""},
              "telegram": {"enabled": false, "chat_id": "-100200", "min_level": "error", "rate_per_sec": 1}}
}`

const yamlConfig = `
http:
  addr: 127.0.0.1:9000
  read_timeout: 5s
  cors:
    allowed_origins: ["https://example.github.io"]
    allowed_methods: [POST]
telegram:
  http_timeout: 3s
logging:
  level: debug
  console: true
  file: {enabled: false, path: ""}
  telegram: {enabled: false, chat_id: -100200, min_level: error, rate_per_sec: 1}
`

func TestJSONAndYAMLDecodeAlike(t *testing.T) {
	setSecrets(t, "123:abc", "123456")
	dir := t.TempDir()

	jc, err := NewConfigManager(writeFile(t, dir, "config.json", jsonConfig)).Load()
	if err != nil {
		t.Fatalf("json load: %v", err)
	}
	yc, err := NewConfigManager(writeFile(t, dir, "config.yaml", yamlConfig)).Load()
	if err != nil {
		t.Fatalf("yaml load: %v", err)
	}
	if !reflect.DeepEqual(jc, yc) {
		t.Fatalf("configs differ:\njson=%+v\nyaml=%+v", jc, yc)
	}
	if jc.HTTP.Addr != "127.0.0.1:9000" {
		t.Fatalf("addr = %q", jc.HTTP.Addr)
	}
	if got := jc.HTTP.CORS.AllowedHeaders; len(got) != 1 || got[0] != "*" {
		t.Fatalf("default headers not applied: %v", got)
	}
	if id, err := yc.LogChatID(); err != nil || id != -100200 {
		t.Fatalf("log chat id = %d, %v", id, err)
	}
}

func TestUnknownKeysRejected(t *testing.T) {
	setSecrets(t, "123:abc", "1")
	p := writeFile(t, t.TempDir(), "config.json", `{"http": {"adr": ":8000"}}`)
	if _, err := NewConfigManager(p).Load(); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestTokenNotAcceptedFromFile(t *testing.T) {
	setSecrets(t, "123:abc", "1")
	p := writeFile(t, t.TempDir(), "config.json", `{"telegram": {"token": "leaked"}}`)
	if _, err := NewConfigManager(p).Load(); err == nil {
		t.Fatal("expected token in file to be rejected")
	}
}

func TestDefaultsWithoutFile(t *testing.T) {
	setSecrets(t, "123:abc", "123456")
	cfg, err := NewConfigManager("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":8000" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Telegram.APIURL != "https://api.telegram.org" {
		t.Fatalf("api url = %q", cfg.Telegram.APIURL)
	}
}

func TestOmittedKeysKeepDefaults(t *testing.T) {
	setSecrets(t, "123:abc", "123456")
	p := writeFile(t, t.TempDir(), "formrelay.yaml", "logging:\n  level: debug\n  file: {enabled: true, path: ./formrelay.log}\n")
	cfg, err := NewConfigManager(p).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Logging.Console {
		t.Fatal("console output disabled by omitting logging.console")
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.File.Enabled {
		t.Fatalf("file values not applied: %+v", cfg.Logging)
	}

	p = writeFile(t, t.TempDir(), "formrelay.yaml", "logging:\n  console: false\n")
	cfg, err = NewConfigManager(p).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Console {
		t.Fatal("explicit console: false ignored")
	}
}

func TestEnvOverrides(t *testing.T) {
	setSecrets(t, "123:abc", "1")
	t.Setenv(EnvHTTPAddr, ":9999")
	t.Setenv(EnvLogLevel, "warn")
	cfg, err := NewConfigManager("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":9999" || cfg.Logging.Level != "warn" {
		t.Fatalf("overrides not applied: addr=%q level=%q", cfg.HTTP.Addr, cfg.Logging.Level)
	}
}

func TestDestinationIsCoercedToNumber(t *testing.T) {
	setSecrets(t, "123:abc", " 123456 ")
	cfg, err := NewConfigManager("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	id, err := cfg.Destination()
	if err != nil {
		t.Fatalf("Destination: %v", err)
	}
	if id != 123456 {
		t.Fatalf("destination = %d, want 123456", id)
	}
}

func TestLoadRejectsBadSecrets(t *testing.T) {
	tests := []struct {
		name, token, chat, want string
	}{
		{"missing token", "", "1", EnvBotToken},
		{"missing chat", "123:abc", "", EnvChatID},
		{"text chat", "123:abc", "my-chat", EnvChatID},
		{"zero chat", "123:abc", "0", EnvChatID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setSecrets(t, tt.token, tt.chat)
			_, err := NewConfigManager("").Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestParseChatID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"123456", 123456, false},
		{"-1001234567890", -1001234567890, false},
		{"", 0, true},
		{"12a", 0, true},
		{"0", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseChatID(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseChatID(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.HTTP.ReadTimeout = "soon"
	cfg.Logging.Level = "loud"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{EnvBotToken, EnvChatID, "http.read_timeout", "logging.level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error lacks %q: %v", want, err)
		}
	}
}

func TestReloadRejectsInvalidAndKeepsCurrent(t *testing.T) {
	setSecrets(t, "123:abc", "1")
	p := writeFile(t, t.TempDir(), "config.json", `{"http": {"addr": ":8001"}}`)
	m := NewConfigManager(p)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sub := m.Subscribe(1)

	writeFile(t, filepath.Dir(p), "config.json", `{"http": {"addr": ":8001", "read_timeout": "-1s"}}`)
	if published, err := m.Reload(context.Background()); err == nil || published {
		t.Fatalf("expected rejection, got published=%v err=%v", published, err)
	}
	if got := m.Get().HTTP.ReadTimeout; got != "" {
		t.Fatalf("current config changed: read_timeout=%q", got)
	}
	select {
	case <-sub:
		t.Fatal("rejected config was published")
	default:
	}

	m.SetValidator(func(context.Context, *Config) error { return errors.New("vetoed") })
	writeFile(t, filepath.Dir(p), "config.json", `{"http": {"addr": ":8002"}}`)
	if _, err := m.Reload(context.Background()); err == nil {
		t.Fatal("expected validator veto")
	}
	if m.Get().HTTP.Addr != ":8001" {
		t.Fatalf("vetoed config committed: %q", m.Get().HTTP.Addr)
	}
}

func TestReloadSkipsUnchanged(t *testing.T) {
	setSecrets(t, "123:abc", "1")
	p := writeFile(t, t.TempDir(), "config.json", `{"http": {"addr": ":8001"}}`)
	m := NewConfigManager(p)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	published, err := m.Reload(context.Background())
	if err != nil || published {
		t.Fatalf("unchanged reload: published=%v err=%v", published, err)
	}
}

func TestWatchPublishesChanges(t *testing.T) {
	setSecrets(t, "123:abc", "1")
	dir := t.TempDir()
	p := writeFile(t, dir, "config.json", `{"logging": {"level": "info", "console": true}}`)
	m := NewConfigManager(p)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sub := m.Subscribe(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Watch(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher a moment to register before writing.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(300 * time.Millisecond)
	defer tick.Stop()
	writeFile(t, dir, "config.json", `{"logging": {"level": "debug", "console": true}}`)
	for {
		select {
		case cfg := <-sub:
			if cfg.Logging.Level != "debug" {
				t.Fatalf("published level = %q", cfg.Logging.Level)
			}
			return
		case <-tick.C:
			// Touch again in case the first write raced watcher startup.
			writeFile(t, dir, "config.json", `{"logging": {"level": "debug", "console": true}}`)
		case <-deadline:
			t.Fatal("config change was not published")
		}
	}
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "test.env", "FORMRELAY_TEST_A=from-file\nFORMRELAY_TEST_B=from-file\n")

	t.Setenv("FORMRELAY_TEST_A", "from-env")
	t.Setenv("FORMRELAY_TEST_B", "placeholder")
	_ = os.Unsetenv("FORMRELAY_TEST_B")

	if err := LoadEnvFile(p); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("FORMRELAY_TEST_A"); got != "from-env" {
		t.Fatalf("A = %q, want from-env", got)
	}
	if got := os.Getenv("FORMRELAY_TEST_B"); got != "from-file" {
		t.Fatalf("B = %q, want from-file", got)
	}
	if err := LoadEnvFile(filepath.Join(dir, "missing.env")); err == nil {
		t.Fatal("expected error for missing explicit env file")
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	oldCfg := Default()
	newCfg := Default()
	newCfg.Logging.Level = "debug"
	newCfg.HTTP.CORS.AllowedOrigins = []string{"https://a.example"}
	newCfg.HTTP.Addr = ":9000"

	changed, attrs := SummarizeConfigChange(oldCfg, newCfg)
	if len(attrs) == 0 {
		t.Fatal("expected attrs")
	}
	want := []string{"http.cors", "http", "logging"}
	if !reflect.DeepEqual(changed, want) {
		t.Fatalf("changed = %v, want %v", changed, want)
	}
	if got := RestartRequired(changed); !reflect.DeepEqual(got, []string{"http"}) {
		t.Fatalf("restart required = %v", got)
	}
}
