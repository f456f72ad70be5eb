package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"agencyboard/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("AGENCYBOARD_API_TOKEN", "env-token")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "agencyboard")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "agencyboard.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Paths.APIBind != "127.0.0.1:7390" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Paths.APIToken != "env-token" {
		t.Fatalf("expected api token from env, got %q", cfg.Paths.APIToken)
	}
	if cfg.RefreshInterval() != time.Minute {
		t.Fatalf("unexpected refresh interval: %s", cfg.RefreshInterval())
	}
	if len(cfg.Board.WatchBoards) != 1 || cfg.Board.WatchBoards[0] != "operacoes" {
		t.Fatalf("unexpected watch boards: %v", cfg.Board.WatchBoards)
	}
	if !cfg.Notifications.NewRecords || !cfg.Notifications.PartialCommits {
		t.Fatal("expected notifications enabled by default")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.DocumentsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "agencyboard.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		Board struct {
			RefreshInterval int      `toml:"refresh_interval"`
			WatchBoards     []string `toml:"watch_boards"`
		} `toml:"board"`
		Webhooks struct {
			MeetingURL string `toml:"meeting_url"`
		} `toml:"webhooks"`
		Session struct {
			DisplayName string `toml:"display_name"`
			Admin       bool   `toml:"admin"`
		} `toml:"session"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Board.RefreshInterval = 30
	custom.Board.WatchBoards = []string{"Operações", "cotacoes", "operacoes", " "}
	custom.Webhooks.MeetingURL = " https://hooks.example/meeting "
	custom.Session.DisplayName = " Marina "
	custom.Session.Admin = true
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.DataDir != filepath.Join(tempDir, "data") {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.Board.RefreshInterval != 30 {
		t.Fatalf("expected refresh interval 30, got %d", cfg.Board.RefreshInterval)
	}
	if got := strings.Join(cfg.Board.WatchBoards, ","); got != "operacoes,cotacoes" {
		t.Fatalf("unexpected watch boards %q", got)
	}
	if cfg.Webhooks.MeetingURL != "https://hooks.example/meeting" {
		t.Fatalf("expected trimmed meeting url, got %q", cfg.Webhooks.MeetingURL)
	}
	if cfg.Session.DisplayName != "Marina" || !cfg.Session.Admin {
		t.Fatalf("unexpected session %+v", cfg.Session)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
	if cfg.Board.FetchLimit != config.Default().Board.FetchLimit {
		t.Fatalf("expected default fetch limit, got %d", cfg.Board.FetchLimit)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agencyboard.toml")
	if err := os.WriteFile(path, []byte("[board]\nrefresh_intervl = 10\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestLoadRejectsUnknownWatchBoard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agencyboard.toml")
	if err := os.WriteFile(path, []byte("[board]\nwatch_boards = [\"hoteis\"]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "board.watch_boards") {
		t.Fatalf("expected watch_boards error, got %v", err)
	}
}

func TestEnvFallbacksOnlyFillBlankValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agencyboard.toml")
	contents := "[documents]\nsigning_key = \"file-signing-key-0001\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AGENCYBOARD_SIGNING_KEY", "env-signing-key-0002")
	t.Setenv("AGENCYBOARD_NTFY_TOPIC", "https://ntfy.example/agency")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Documents.SigningKey != "file-signing-key-0001" {
		t.Fatalf("expected file signing key to win, got %q", cfg.Documents.SigningKey)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/agency" {
		t.Fatalf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[webhooks]") {
		t.Fatalf("sample config missing webhooks section: %s", contents)
	}

	// The sample must load cleanly with strict decoding.
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if !strings.Contains(cfg.Paths.DataDir, "agencyboard") {
		t.Fatalf("expected data dir to contain agencyboard, got %q", cfg.Paths.DataDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"refresh too fast", func(c *config.Config) { c.Board.RefreshInterval = 1 }},
		{"fetch limit too large", func(c *config.Config) { c.Board.FetchLimit = 100000 }},
		{"zero url ttl", func(c *config.Config) { c.Documents.URLTTLSeconds = 0 }},
		{"short signing key", func(c *config.Config) { c.Documents.SigningKey = "abc" }},
		{"relative meeting url", func(c *config.Config) { c.Webhooks.MeetingURL = "/hooks/meeting" }},
		{"ftp contract url", func(c *config.Config) { c.Webhooks.ContractURL = "ftp://hooks.example/contract" }},
		{"zero webhook timeout", func(c *config.Config) { c.Webhooks.RequestTimeout = 0 }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
