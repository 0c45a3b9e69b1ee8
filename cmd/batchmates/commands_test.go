package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/batchmates/batchmates/internal/config"
)

var ctx = context.Background()

func TestColorize(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if got := colorize(colorGreen, "hello"); got != "hello" {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", got)
	}

	noColor = false
	if got := colorize(colorGreen, "hello"); !strings.Contains(got, "\033[32m") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", got)
	}
}

func TestArtifactPath(t *testing.T) {
	var cfg config.Config
	cfg.Storage.DataDir = "/data/batchmates"
	if got := artifactPath(cfg, profilesFile); got != "/data/batchmates/profiles.json" {
		t.Errorf("artifactPath = %q", got)
	}
}

func TestAPIClientAuthAndErrors(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(`{"data": "fine"}`))
		case "/fail":
			http.Error(w, `{"error": {"type": "api_error", "message": "broken"}}`, http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client := &apiClient{
		baseURL:    srv.URL,
		token:      "test-token",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}

	resp, err := client.get(ctx, "/ok")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var body map[string]string
	if err := decodeJSON(resp, &body); err != nil {
		t.Fatalf("decodeJSON: %v", err)
	}
	if body["data"] != "fine" {
		t.Errorf("data = %q, want fine", body["data"])
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", gotAuth)
	}

	resp, err = client.get(ctx, "/fail")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := decodeJSON(resp, &body); err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("decodeJSON on 500 = %v, want status surfaced", err)
	}
}

func TestConfigSetAndShow(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"config", "set", "zulip.channel", "98 batch"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config set: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if cfg.Zulip.Channel != "98 batch" {
		t.Errorf("Zulip.Channel = %q, want 98 batch", cfg.Zulip.Channel)
	}
}

func TestConfigSetRejectsUnknownKey(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"config", "set", "bogus.key", "x"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for unknown config key")
	}
}

func TestConfigSetRejectsSecret(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"config", "set", "openai.api_key", "sk-x"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error when setting a secret via config")
	}
	if !strings.Contains(err.Error(), "environment variable") {
		t.Errorf("error = %q, want pointer to the env var", err.Error())
	}
}

func TestPIDFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := pidFilePath(dir)

	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	pid, err := readPIDFile(path)
	if err != nil {
		t.Fatalf("readPIDFile: %v", err)
	}
	if pid <= 0 {
		t.Errorf("pid = %d, want positive", pid)
	}

	removePIDFile(path)
	if _, err := readPIDFile(path); err == nil {
		t.Error("readPIDFile after remove should fail")
	}
}
