package testsupport

import (
	"path/filepath"
	"testing"

	"agencyboard/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DocumentsDir = filepath.Join(base, "documents")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Documents.SigningKey = "test-signing-key-0123456789"
	cfgVal.Session.UserID = "tester"
	cfgVal.Session.DisplayName = "Test Operator"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIToken sets the bearer token required by the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithNtfyTopic points notifications at a test server.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithWebhooks configures both automation endpoints.
func WithWebhooks(meetingURL, contractURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Webhooks.MeetingURL = meetingURL
		b.cfg.Webhooks.ContractURL = contractURL
	}
}

// WithAdmin marks the configured operator as an administrator.
func WithAdmin() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Session.Admin = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
