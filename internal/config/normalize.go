package config

import (
	"fmt"
	"os"
	"strings"

	"agencyboard/internal/pipeline"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeBoard(); err != nil {
		return err
	}
	c.normalizeDocuments()
	c.normalizeWebhooks()
	c.normalizeNotifications()
	c.normalizeSession()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DocumentsDir) == "" {
		c.Paths.DocumentsDir = defaultDocumentsDir
	}
	if c.Paths.DocumentsDir, err = expandPath(c.Paths.DocumentsDir); err != nil {
		return fmt.Errorf("paths.documents_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv(envAPIToken); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeBoard() error {
	if c.Board.FetchLimit <= 0 {
		c.Board.FetchLimit = defaultFetchLimit
	}
	if len(c.Board.WatchBoards) == 0 {
		return nil
	}
	boards := make([]string, 0, len(c.Board.WatchBoards))
	seen := make(map[pipeline.Board]struct{}, len(c.Board.WatchBoards))
	for _, raw := range c.Board.WatchBoards {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		board, ok := pipeline.ParseBoard(raw)
		if !ok {
			return fmt.Errorf("board.watch_boards: unknown board %q", raw)
		}
		if _, dup := seen[board]; dup {
			continue
		}
		seen[board] = struct{}{}
		boards = append(boards, string(board))
	}
	c.Board.WatchBoards = boards
	return nil
}

func (c *Config) normalizeDocuments() {
	c.Documents.SigningKey = strings.TrimSpace(c.Documents.SigningKey)
	if c.Documents.SigningKey == "" {
		if value, ok := os.LookupEnv(envSigningKey); ok {
			c.Documents.SigningKey = strings.TrimSpace(value)
		}
	}
	c.Documents.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Documents.PublicBaseURL), "/")
	if c.Documents.MaxUploadMiB <= 0 {
		c.Documents.MaxUploadMiB = defaultMaxUploadMiB
	}
}

func (c *Config) normalizeWebhooks() {
	c.Webhooks.MeetingURL = strings.TrimSpace(c.Webhooks.MeetingURL)
	c.Webhooks.ContractURL = strings.TrimSpace(c.Webhooks.ContractURL)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv(envNtfyTopic); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeSession() {
	c.Session.UserID = strings.TrimSpace(c.Session.UserID)
	c.Session.DisplayName = strings.TrimSpace(c.Session.DisplayName)
	c.Session.Email = strings.TrimSpace(c.Session.Email)
	if c.Session.UserID == "" {
		if value, ok := os.LookupEnv("USER"); ok {
			c.Session.UserID = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
