package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	LogDir       string `toml:"log_dir"`
	DocumentsDir string `toml:"documents_dir"`
	APIBind      string `toml:"api_bind"`
	APIToken     string `toml:"api_token"`
}

// Board contains polling and fetch settings for the pipeline boards.
type Board struct {
	RefreshInterval int      `toml:"refresh_interval"`
	FetchLimit      int      `toml:"fetch_limit"`
	WatchBoards     []string `toml:"watch_boards"`
}

// Documents contains settings for the per-client file store.
type Documents struct {
	SigningKey    string `toml:"signing_key"`
	URLTTLSeconds int    `toml:"url_ttl_seconds"`
	PublicBaseURL string `toml:"public_base_url"`
	MaxUploadMiB  int    `toml:"max_upload_mib"`
}

// Webhooks contains the automation endpoints for meetings and contracts.
type Webhooks struct {
	MeetingURL     string `toml:"meeting_url"`
	ContractURL    string `toml:"contract_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	NewRecords     bool   `toml:"new_records"`
	PartialCommits bool   `toml:"partial_commits"`
}

// Session identifies the operator the CLI acts as.
type Session struct {
	UserID      string `toml:"user_id"`
	DisplayName string `toml:"display_name"`
	Email       string `toml:"email"`
	Admin       bool   `toml:"admin"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for agencyboard.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and document directories plus the API bind address
//   - Board: refresh cadence and fetch limits for the boards
//   - Documents: signed URL key and lifetime
//   - Webhooks: meeting and contract automation endpoints
//   - Notifications: ntfy push notification settings
//   - Session: the operator identity used by the CLI
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Board         Board         `toml:"board"`
	Documents     Documents     `toml:"documents"`
	Webhooks      Webhooks      `toml:"webhooks"`
	Notifications Notifications `toml:"notifications"`
	Session       Session       `toml:"session"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("agencyboard.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, log, and document directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.DocumentsDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite table store location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "agencyboard.db")
}

// LockPath returns the single-instance lock file used by serve.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "agencyboard.lock")
}

// RefreshInterval returns the board polling period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Board.RefreshInterval) * time.Second
}

// URLTTL returns the lifetime of signed document URLs.
func (c *Config) URLTTL() time.Duration {
	return time.Duration(c.Documents.URLTTLSeconds) * time.Second
}

// WebhookTimeout returns the outbound webhook request timeout.
func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.Webhooks.RequestTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
