package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"agencyboard/internal/api"
	"agencyboard/internal/board"
	"agencyboard/internal/documents"
	"agencyboard/internal/logging"
	"agencyboard/internal/notifications"
	"agencyboard/internal/pipeline"
	"agencyboard/internal/preflight"
	"agencyboard/internal/store"
	"agencyboard/internal/webhooks"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the board watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx, bind)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override paths.api_bind")
	return cmd
}

func runServe(cmdCtx context.Context, ctx *commandContext, bind string) error {
	if ctx == nil {
		return fmt.Errorf("command context is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another agencyboard serve instance is already running")
	}
	defer func() { _ = lock.Unlock() }()

	if err := preflight.Report(logger, preflight.RunAll(signalCtx, cfg, false)); err != nil {
		return err
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open table store", logging.Error(err))
		return err
	}
	defer st.Close()

	notifier := notifications.NewService(cfg)
	coords, watched, err := buildCoordinators(cfg.Board.WatchBoards, st, notifier, cfg.Board.FetchLimit, logger)
	if err != nil {
		return err
	}

	docs, err := documents.NewFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("document store: %w", err)
	}

	if strings.TrimSpace(bind) == "" {
		bind = cfg.Paths.APIBind
	}
	server, err := api.NewServer(api.Options{
		Bind:         bind,
		Token:        cfg.Paths.APIToken,
		Version:      version,
		DatabasePath: st.Path(),
		URLTTL:       cfg.URLTTL(),
		Coordinators: coords,
		Documents:    docs,
		Webhooks:     webhooks.NewFromConfig(cfg, logger),
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}
	if err := server.Start(signalCtx); err != nil {
		_ = notifier.NotifyError(context.WithoutCancel(signalCtx), err, "api server")
		return err
	}
	defer server.Stop()

	if len(watched) > 0 {
		watcher := board.NewWatcher(cfg.RefreshInterval(), notifier, logger, watched...)
		if err := watcher.Start(signalCtx); err != nil {
			return fmt.Errorf("start board watcher: %w", err)
		}
		defer watcher.Stop()
	}

	logger.Info("agencyboard serving",
		logging.String("address", server.Addr()),
		logging.Int("boards", len(coords)),
		logging.Int("watched_boards", len(watched)),
		logging.Bool("documents_signing", docs.SigningEnabled()),
	)

	<-signalCtx.Done()
	logger.Info("agencyboard shutting down")
	return nil
}

// buildCoordinators creates one coordinator per board and returns the subset
// named in watch, which the watcher polls.
func buildCoordinators(watch []string, persist board.Persister, notifier notifications.Service, fetchLimit int, logger *slog.Logger) ([]*board.Coordinator, []*board.Coordinator, error) {
	wanted := make(map[pipeline.Board]bool, len(watch))
	for _, name := range watch {
		b, err := parseBoardArg(name)
		if err != nil {
			return nil, nil, fmt.Errorf("board.watch_boards: %w", err)
		}
		wanted[b] = true
	}

	var all, watched []*board.Coordinator
	for _, b := range pipeline.Boards() {
		coord, err := board.New(b, persist,
			board.WithLogger(logger),
			board.WithHazardReporter(notifier),
			board.WithFetchLimit(fetchLimit),
		)
		if err != nil {
			return nil, nil, err
		}
		all = append(all, coord)
		if wanted[b] {
			watched = append(watched, coord)
		}
	}
	return all, watched, nil
}
