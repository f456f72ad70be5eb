package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBoard(); err != nil {
		return err
	}
	if err := c.validateDocuments(); err != nil {
		return err
	}
	if err := c.validateWebhooks(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"documents.url_ttl_seconds":     c.Documents.URLTTLSeconds,
		"webhooks.request_timeout":      c.Webhooks.RequestTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateBoard() error {
	if c.Board.RefreshInterval < minRefreshIntervalSeconds {
		return fmt.Errorf("board.refresh_interval must be at least %d seconds", minRefreshIntervalSeconds)
	}
	if c.Board.FetchLimit > maxFetchLimit {
		return fmt.Errorf("board.fetch_limit must not exceed %d", maxFetchLimit)
	}
	return nil
}

func (c *Config) validateDocuments() error {
	if c.Documents.PublicBaseURL != "" {
		if err := validateHTTPURL("documents.public_base_url", c.Documents.PublicBaseURL); err != nil {
			return err
		}
	}
	if c.Documents.SigningKey != "" && len(c.Documents.SigningKey) < 16 {
		return errors.New("documents.signing_key must be at least 16 characters")
	}
	return nil
}

func (c *Config) validateWebhooks() error {
	if c.Webhooks.MeetingURL != "" {
		if err := validateHTTPURL("webhooks.meeting_url", c.Webhooks.MeetingURL); err != nil {
			return err
		}
	}
	if c.Webhooks.ContractURL != "" {
		if err := validateHTTPURL("webhooks.contract_url", c.Webhooks.ContractURL); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func validateHTTPURL(field, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if (scheme != "http" && scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL", field)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
