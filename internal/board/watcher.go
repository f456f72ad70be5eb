package board

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"agencyboard/internal/logging"
)

// DefaultRefreshInterval is used when the watcher is given no interval.
const DefaultRefreshInterval = 60 * time.Second

// NewRecordNotifier is told about records that appeared between polls.
type NewRecordNotifier interface {
	NotifyNewRecords(ctx context.Context, board string, titles []string) error
}

// Watcher polls a set of coordinators. The first fetch of each board only
// seeds the cache; later fetches report newly appeared records.
type Watcher struct {
	coordinators []*Coordinator
	notifier     NewRecordNotifier
	interval     time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher returns a watcher. A nil notifier disables notifications.
func NewWatcher(interval time.Duration, notifier NewRecordNotifier, logger *slog.Logger, coordinators ...*Coordinator) *Watcher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Watcher{
		coordinators: coordinators,
		notifier:     notifier,
		interval:     interval,
		logger:       logging.NewComponentLogger(logger, "watcher"),
	}
}

// Start begins polling the watched boards until ctx ends or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if w == nil {
		return errors.New("board watcher unavailable")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("board watcher already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.ctx = runCtx
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop terminates polling and waits for the current pass to finish.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	w.Poll(w.ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.Poll(w.ctx)
		}
	}
}

// Poll refreshes every coordinator once. Fetch failures are logged and the
// next tick retries.
func (w *Watcher) Poll(ctx context.Context) {
	for _, coord := range w.coordinators {
		if ctx.Err() != nil {
			return
		}
		board := string(coord.Board())
		logger := w.logger.With(logging.Board(board))

		result, err := coord.Refresh(ctx)
		if err != nil {
			logger.Warn("board refresh failed; will retry",
				logging.String(logging.FieldEventType, "board_refresh_failed"),
				logging.String(logging.FieldErrorHint, "check the database path and permissions"),
				logging.String(logging.FieldImpact, "board shows the last successful fetch"),
				logging.Error(err),
			)
			continue
		}
		if result.Initial || len(result.New) == 0 {
			logger.Debug("board refreshed", logging.Int("records", result.Total))
			continue
		}

		titles := make([]string, 0, len(result.New))
		for _, rec := range result.New {
			titles = append(titles, rec.DisplayName())
		}
		logger.Info("new records on board",
			logging.String(logging.FieldEventType, "new_records"),
			logging.Int("count", len(titles)),
		)
		if w.notifier == nil {
			continue
		}
		if err := w.notifier.NotifyNewRecords(ctx, board, titles); err != nil {
			logger.Warn("new record notification failed",
				logging.String(logging.FieldEventType, "notify_failed"),
				logging.String(logging.FieldErrorHint, "check ntfy topic and network"),
				logging.Error(err),
			)
		}
	}
}
