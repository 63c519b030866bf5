package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"formrelay/internal/config"
)

type botAPI struct {
	mu    sync.Mutex
	fail  bool
	calls []map[string]any
	paths []string
}

func (b *botAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	b.mu.Lock()
	b.calls = append(b.calls, body)
	b.paths = append(b.paths, r.URL.Path)
	fail := b.fail
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":123456,"type":"private"}}}`))
}

func (b *botAPI) snapshot() ([]map[string]any, []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.calls...), append([]string(nil), b.paths...)
}

func configYAML(apiURL string, origins ...string) string {
	var sb strings.Builder
	sb.WriteString("http:\n  shutdown_timeout: 2s\n")
	if len(origins) > 0 {
		sb.WriteString("  cors:\n    allowed_origins: [" + strings.Join(origins, ", ") + "]\n")
	}
	sb.WriteString("telegram:\n  api_url: " + apiURL + "\n  http_timeout: 2s\n")
	sb.WriteString("logging:\n  level: warn\n  console: false\n")
	return sb.String()
}

func startApp(t *testing.T, api *botAPI, origins ...string) (*App, string) {
	t.Helper()
	botSrv := httptest.NewServer(api)
	t.Cleanup(botSrv.Close)

	t.Setenv(config.EnvBotToken, "123:abc")
	t.Setenv(config.EnvChatID, " 123456 ")
	t.Setenv(config.EnvHTTPAddr, "127.0.0.1:0")
	t.Setenv(config.EnvLogLevel, "")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "formrelay.yaml")
	if err := os.WriteFile(cfgPath, []byte(configYAML(botSrv.URL, origins...)), 0o644); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := New(Options{ConfigPath: cfgPath, EnvFile: envPath})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = a.Stop(context.Background()) })
	return a, cfgPath
}

func submit(t *testing.T, addr string, form url.Values) (int, map[string]any) {
	t.Helper()
	resp, err := http.PostForm("http://"+addr+"/send_form", form)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, body
}

func TestFormReachesTelegram(t *testing.T) {
	api := &botAPI{}
	a, _ := startApp(t, api)

	code, body := submit(t, a.Addr(), url.Values{
		"name":    {"Anna"},
		"phone":   {"+7 900 000-00-00"},
		"date":    {"2024-05-01"},
		"comment": {"после обеда"},
	})
	if code != http.StatusOK || body["status"] != "ok" || body["message"] != "Заявка отправлена" {
		t.Fatalf("response = %d %v", code, body)
	}

	calls, paths := api.snapshot()
	if len(calls) != 1 {
		t.Fatalf("bot api calls = %d, want 1", len(calls))
	}
	if !strings.HasSuffix(paths[0], "/bot123:abc/sendMessage") {
		t.Fatalf("path = %q", paths[0])
	}
	if got := fmt.Sprint(calls[0]["chat_id"]); got != "123456" {
		t.Fatalf("chat_id = %q, want 123456", got)
	}
	if calls[0]["parse_mode"] != "HTML" {
		t.Fatalf("parse_mode = %v", calls[0]["parse_mode"])
	}
	text, _ := calls[0]["text"].(string)
	want := "<b>Новая заявка с сайта!</b>\n\n<b>Имя:</b> Anna\n<b>Телефон:</b> +7 900 000-00-00\n<b>Дата:</b> 2024-05-01\n<b>Комментарий:</b> после обеда"
	if text != want {
		t.Fatalf("text = %q", text)
	}
}

func TestFormDeliveryFailure(t *testing.T) {
	api := &botAPI{fail: true}
	a, _ := startApp(t, api)

	code, body := submit(t, a.Addr(), url.Values{"name": {"Anna"}, "phone": {"1"}, "date": {"today"}})
	if code != http.StatusOK || body["status"] != "error" || body["message"] != "Не удалось отправить заявку" {
		t.Fatalf("response = %d %v", code, body)
	}
	if calls, _ := api.snapshot(); len(calls) != 1 {
		t.Fatalf("bot api calls = %d, want 1", len(calls))
	}
}

func TestCORSReloadsFromFile(t *testing.T) {
	api := &botAPI{}
	a, cfgPath := startApp(t, api)

	origin := "https://example.github.io"
	allowed := func() bool {
		req, _ := http.NewRequest(http.MethodOptions, "http://"+a.Addr()+"/send_form", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("preflight: %v", err)
		}
		resp.Body.Close()
		return resp.Header.Get("Access-Control-Allow-Origin") == origin
	}
	if allowed() {
		t.Fatal("origin allowed before reload")
	}

	cfg := a.cfgm.Get()
	if err := os.WriteFile(cfgPath, []byte(configYAML(cfg.Telegram.APIURL, `"`+origin+`"`)), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !allowed() {
		if time.Now().After(deadline) {
			t.Fatal("CORS change was not applied")
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func TestNewRejectsMissingSecrets(t *testing.T) {
	t.Setenv(config.EnvBotToken, "")
	t.Setenv(config.EnvChatID, "abc")
	t.Setenv(config.EnvHTTPAddr, "")
	t.Setenv(config.EnvLogLevel, "")
	envPath := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(Options{EnvFile: envPath}); err == nil {
		t.Fatal("expected error without BOT_TOKEN and with a non-numeric CHAT_ID")
	}
}

func TestStopEndsApp(t *testing.T) {
	a, _ := startApp(t, &botAPI{})
	if err := a.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done not closed after Stop")
	}
	if err := a.Err(); err != nil {
		t.Fatalf("Err = %v", err)
	}
}
