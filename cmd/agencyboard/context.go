package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"agencyboard/internal/board"
	"agencyboard/internal/config"
	"agencyboard/internal/logging"
	"agencyboard/internal/notifications"
	"agencyboard/internal/pipeline"
	"agencyboard/internal/session"
	"agencyboard/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// commandLogger logs to stderr and the log file. One-shot commands fall back
// to a nop logger if the log directory is unusable.
func (c *commandContext) commandLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.configValue())
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

// actor is the operator named in the [session] config section.
func (c *commandContext) actor() session.Actor {
	cfg := c.configValue()
	if cfg == nil {
		return session.Anonymous
	}
	return session.Actor{
		UserID:      cfg.Session.UserID,
		DisplayName: cfg.Session.DisplayName,
		Email:       cfg.Session.Email,
		Admin:       cfg.Session.Admin,
	}
}

// withBoard opens the table store, loads one board, and hands a coordinator
// to fn. Partial finalizations are reported through ntfy like under serve.
func (c *commandContext) withBoard(ctx context.Context, name string, fn func(*board.Coordinator) error) error {
	b, err := parseBoardArg(name)
	if err != nil {
		return err
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open table store: %w", err)
	}
	defer st.Close()

	coord, err := board.New(b, st,
		board.WithLogger(c.commandLogger()),
		board.WithFetchLimit(cfg.Board.FetchLimit),
		board.WithHazardReporter(notifications.NewService(cfg)),
	)
	if err != nil {
		return err
	}
	if _, err := coord.Refresh(ctx); err != nil {
		return fmt.Errorf("load board: %w", err)
	}
	return fn(coord)
}

func parseBoardArg(name string) (pipeline.Board, error) {
	b, ok := pipeline.ParseBoard(name)
	if !ok {
		names := make([]string, 0, len(pipeline.Boards()))
		for _, known := range pipeline.Boards() {
			names = append(names, string(known))
		}
		return "", fmt.Errorf("unknown board %q (expected one of %s)", name, strings.Join(names, ", "))
	}
	return b, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
