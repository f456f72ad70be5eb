package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"agencyboard/internal/logging"
	"agencyboard/internal/pipeline"
	"agencyboard/internal/session"
)

// Finalization step names, in execution order.
const (
	StepLocators = "locators"
	StepCosts    = "costs"
	StepStatus   = "status"
)

// DefaultFetchLimit caps a refresh when no limit is configured.
const DefaultFetchLimit = 500

// Persister is the remote table a coordinator writes through.
// *store.Store satisfies it.
type Persister interface {
	ListBoard(ctx context.Context, board pipeline.Board, limit int) ([]pipeline.Record, error)
	Insert(ctx context.Context, rec pipeline.Record) (pipeline.Record, error)
	Update(ctx context.Context, rec pipeline.Record) (pipeline.Record, error)
	Delete(ctx context.Context, id string) error
	UpsertLocators(ctx context.Context, recordID string, locators []pipeline.Locator) error
	UpsertCosts(ctx context.Context, recordID string, costs []pipeline.CostLine) error
}

// HazardReporter is told about finalizations that stopped part way.
type HazardReporter interface {
	NotifyPartialCommit(ctx context.Context, board, recordID, title, failedStep string, completed []string) error
}

// RefreshResult summarises one fetch.
type RefreshResult struct {
	Total int
	// New lists records absent from every previous fetch.
	New []pipeline.Record
	// Initial is set on the first successful fetch, when every record is new.
	Initial bool
}

// Option customises a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.baseLogger = logger }
}

// WithHazardReporter registers a partial-commit reporter.
func WithHazardReporter(h HazardReporter) Option {
	return func(c *Coordinator) { c.hazards = h }
}

// WithFetchLimit caps how many rows a refresh loads.
func WithFetchLimit(limit int) Option {
	return func(c *Coordinator) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

// Coordinator owns the cached record list of one board and mediates every
// mutation against it.
type Coordinator struct {
	registry   *pipeline.Registry
	persist    Persister
	hazards    HazardReporter
	baseLogger *slog.Logger
	logger     *slog.Logger
	limit      int

	mu       sync.Mutex
	records  []pipeline.Record
	seen     map[string]struct{}
	loaded   bool
	inflight map[string]struct{}
}

// New builds a coordinator for board.
func New(board pipeline.Board, persist Persister, opts ...Option) (*Coordinator, error) {
	reg, err := pipeline.RegistryFor(board)
	if err != nil {
		return nil, err
	}
	if persist == nil {
		return nil, errors.New("board coordinator requires a persister")
	}
	c := &Coordinator{
		registry: reg,
		persist:  persist,
		limit:    DefaultFetchLimit,
		seen:     make(map[string]struct{}),
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.baseLogger, "coordinator").With(logging.Board(string(board)))
	return c, nil
}

// Board returns the board this coordinator serves.
func (c *Coordinator) Board() pipeline.Board { return c.registry.Board() }

// Registry returns the board's stage registry.
func (c *Coordinator) Registry() *pipeline.Registry { return c.registry }

// Loaded reports whether at least one fetch has succeeded.
func (c *Coordinator) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Refresh replaces the cache with a fresh fetch. On failure the cache is
// left untouched. Records with a mutation in flight keep their optimistic
// copy so a concurrent poll cannot undo a pending move on screen.
func (c *Coordinator) Refresh(ctx context.Context) (RefreshResult, error) {
	fetched, err := c.persist.ListBoard(ctx, c.registry.Board(), c.limit)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("fetch %s: %w", c.registry.Board(), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pending := make(map[string]pipeline.Record, len(c.inflight))
	for _, rec := range c.records {
		if _, ok := c.inflight[rec.ID]; ok {
			pending[rec.ID] = rec
		}
	}

	result := RefreshResult{Total: len(fetched), Initial: !c.loaded}
	next := make([]pipeline.Record, 0, len(fetched))
	for _, rec := range fetched {
		if local, ok := pending[rec.ID]; ok {
			rec = local
		}
		if _, ok := c.seen[rec.ID]; !ok {
			c.seen[rec.ID] = struct{}{}
			result.New = append(result.New, rec.Clone())
		}
		next = append(next, rec.Clone())
	}
	c.records = next
	c.loaded = true
	return result, nil
}

// Records returns a copy of the cache in fetch order.
func (c *Coordinator) Records() []pipeline.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]pipeline.Record, len(c.records))
	for i, rec := range c.records {
		out[i] = rec.Clone()
	}
	return out
}

// Record returns one cached record.
func (c *Coordinator) Record(id string) (pipeline.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(id)
	if idx < 0 {
		return pipeline.Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return c.records[idx].Clone(), nil
}

// Columns projects the cache onto the board's stages.
func (c *Coordinator) Columns() pipeline.Projection {
	return pipeline.Project(c.Records(), c.registry)
}

// AvailableMoves lists the moves a UI should offer for a cached record.
func (c *Coordinator) AvailableMoves(id string) ([]pipeline.Move, error) {
	rec, err := c.Record(id)
	if err != nil {
		return nil, err
	}
	return pipeline.AvailableMoves(c.registry, rec), nil
}

// Move applies a stage change. Rejected requests return the verdict along
// with an IllegalTransitionError and leave the cache untouched. Accepted
// requests update the cache immediately, then persist; a failed write
// restores the pre-move record.
func (c *Coordinator) Move(ctx context.Context, actor session.Actor, req pipeline.Request) (pipeline.Result, error) {
	req.RecordID = strings.TrimSpace(req.RecordID)
	if req.RecordID == "" {
		return pipeline.Result{}, &ValidationError{Field: "record_id", Message: "is required"}
	}
	if strings.TrimSpace(string(req.To)) == "" {
		return pipeline.Result{}, &ValidationError{Field: "to", Message: "target stage is required"}
	}
	if verr := validatePayload(req.Payload); verr != nil {
		return pipeline.Result{}, verr
	}

	ctx = session.WithRecord(session.WithActor(ctx, actor), string(c.registry.Board()), req.RecordID)
	logger := logging.WithContext(ctx, c.logger)

	c.mu.Lock()
	idx := c.indexOf(req.RecordID)
	if idx < 0 {
		c.mu.Unlock()
		return pipeline.Result{}, fmt.Errorf("%w: %s", ErrRecordNotFound, req.RecordID)
	}
	if _, busy := c.inflight[req.RecordID]; busy {
		c.mu.Unlock()
		return pipeline.Result{}, fmt.Errorf("%w: %s", ErrBusy, req.RecordID)
	}
	snapshot := c.records[idx].Clone()
	result := pipeline.Authorize(c.registry, snapshot, req, actor)
	if !result.Applied() {
		c.mu.Unlock()
		logger.Info("move rejected",
			logging.String(logging.FieldEventType, "move_rejected"),
			logging.String("from", string(result.From)),
			logging.String("to", string(result.To)),
			logging.String("reason", string(result.Reason)),
		)
		return result, &IllegalTransitionError{
			RecordID: req.RecordID,
			From:     result.From,
			To:       result.To,
			Reason:   result.Reason,
			Detail:   result.Detail,
		}
	}
	c.records[idx] = result.Record.Clone()
	c.inflight[req.RecordID] = struct{}{}
	c.mu.Unlock()

	logger.Debug("move applied optimistically",
		logging.String("from", string(result.From)),
		logging.String("to", string(result.To)),
	)

	var (
		stored pipeline.Record
		err    error
	)
	if result.Finalization != nil {
		stored, err = c.finalize(ctx, logger, result)
	} else {
		stored, err = c.persist.Update(ctx, result.Record)
		if err != nil {
			err = &RemoteFailure{Op: "move", RecordID: req.RecordID, Err: err}
		}
	}

	if err != nil {
		c.rollback(snapshot)
		logging.WarnWithContext(logger, "move rolled back",
			"move_rollback",
			logging.String("from", string(result.From)),
			logging.String("to", string(result.To)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "retry the move once the table store is reachable"),
			logging.String(logging.FieldImpact, "card returned to its original column"),
		)
		c.refetch(ctx, logger)
		return pipeline.Result{}, err
	}

	c.reconcile(stored)
	result.Record = stored.Clone()
	logger.Info("record moved",
		logging.String(logging.FieldEventType, "record_moved"),
		logging.String("from", string(result.From)),
		logging.Stage(string(result.To)),
	)
	return result, nil
}

// finalize runs the emission writes in order. Each write is an upsert, so a
// retried finalize converges on the same rows.
func (c *Coordinator) finalize(ctx context.Context, logger *slog.Logger, result pipeline.Result) (pipeline.Record, error) {
	fin := result.Finalization
	var completed []string

	fail := func(step string, err error) error {
		perr := &PartialCommitError{
			RecordID:  fin.RecordID,
			Target:    fin.Target,
			Completed: append([]string(nil), completed...),
			Failed:    step,
			Err:       err,
		}
		logging.ErrorWithContext(logger, "finalization stopped", "finalize_partial",
			logging.String(logging.FieldErrorHint, "re-run the same finalize to converge"),
			logging.String(logging.FieldImpact, "record stays in its previous column with some rows written"),
			logging.String("failed_step", step),
			logging.Steps("completed_steps", completed),
			logging.Error(err),
		)
		if c.hazards != nil && len(completed) > 0 {
			if herr := c.hazards.NotifyPartialCommit(ctx, string(c.registry.Board()), fin.RecordID, result.Record.DisplayName(), step, perr.Completed); herr != nil {
				logger.Warn("partial commit notification failed",
					logging.String(logging.FieldEventType, "hazard_notify_failed"),
					logging.String(logging.FieldErrorHint, "check ntfy configuration"),
					logging.Error(herr),
				)
			}
		}
		return perr
	}

	if len(fin.Locators) > 0 {
		if err := c.persist.UpsertLocators(ctx, fin.RecordID, fin.Locators); err != nil {
			return pipeline.Record{}, fail(StepLocators, err)
		}
		completed = append(completed, StepLocators)
		logger.Debug("finalize step complete", logging.String("step", StepLocators), logging.Int("count", len(fin.Locators)))
	}
	if len(fin.Costs) > 0 {
		if err := c.persist.UpsertCosts(ctx, fin.RecordID, fin.Costs); err != nil {
			return pipeline.Record{}, fail(StepCosts, err)
		}
		completed = append(completed, StepCosts)
		var total int64
		for _, line := range fin.Costs {
			total += line.AmountCents
		}
		logger.Debug("finalize step complete", logging.String("step", StepCosts), logging.Int("count", len(fin.Costs)), logging.Cents("total_cents", total))
	}
	stored, err := c.persist.Update(ctx, result.Record)
	if err != nil {
		return pipeline.Record{}, fail(StepStatus, err)
	}
	logger.Debug("finalize step complete", logging.String("step", StepStatus))
	return stored, nil
}

func (c *Coordinator) rollback(snapshot pipeline.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, snapshot.ID)
	if idx := c.indexOf(snapshot.ID); idx >= 0 {
		c.records[idx] = snapshot
	}
}

func (c *Coordinator) reconcile(stored pipeline.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, stored.ID)
	if idx := c.indexOf(stored.ID); idx >= 0 {
		c.records[idx] = stored.Clone()
	}
}

// refetch resynchronises after a failed write. Failures only log; the
// snapshot restored by rollback stays in place.
func (c *Coordinator) refetch(ctx context.Context, logger *slog.Logger) {
	if _, err := c.Refresh(ctx); err != nil {
		logging.WarnWithContext(logger, "refetch after rollback failed",
			"refetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "refresh the board manually"),
			logging.String(logging.FieldImpact, "board may show stale data until the next poll"),
		)
	}
}

// Create inserts a record and prepends it to the cache.
func (c *Coordinator) Create(ctx context.Context, actor session.Actor, rec pipeline.Record) (pipeline.Record, error) {
	rec.Title = strings.TrimSpace(rec.Title)
	rec.ClientName = strings.TrimSpace(rec.ClientName)
	if rec.Title == "" && rec.ClientName == "" {
		return pipeline.Record{}, &ValidationError{Field: "title", Message: "title or client name is required"}
	}
	if rec.AmountCents < 0 {
		return pipeline.Record{}, &ValidationError{Field: "amount_cents", Message: "must not be negative"}
	}
	if rec.Board != "" && rec.Board != c.registry.Board() {
		return pipeline.Record{}, &ValidationError{Field: "board", Message: fmt.Sprintf("record belongs to %s, not %s", rec.Board, c.registry.Board())}
	}
	rec.Board = c.registry.Board()
	if strings.TrimSpace(rec.Status) == "" {
		rec.Status = string(c.registry.Default())
	}
	if rec.Title == "" {
		rec.Title = rec.ClientName
	}

	stored, err := c.persist.Insert(session.WithActor(ctx, actor), rec)
	if err != nil {
		return pipeline.Record{}, &RemoteFailure{Op: "create", Err: err}
	}

	c.mu.Lock()
	c.records = append([]pipeline.Record{stored.Clone()}, c.records...)
	c.seen[stored.ID] = struct{}{}
	c.mu.Unlock()

	ctx = session.WithRecord(session.WithActor(ctx, actor), string(c.registry.Board()), stored.ID)
	logging.WithContext(ctx, c.logger).Info("record created",
		logging.String(logging.FieldEventType, "record_created"),
		logging.Stage(string(c.registry.Classify(stored.Status))),
	)
	return stored, nil
}

// Remove deletes a record remotely and then drops it from the cache.
func (c *Coordinator) Remove(ctx context.Context, actor session.Actor, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}
	c.mu.Lock()
	if c.indexOf(id) < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if _, busy := c.inflight[id]; busy {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBusy, id)
	}
	c.inflight[id] = struct{}{}
	c.mu.Unlock()

	err := c.persist.Delete(ctx, id)

	c.mu.Lock()
	delete(c.inflight, id)
	if err == nil {
		if idx := c.indexOf(id); idx >= 0 {
			c.records = append(c.records[:idx], c.records[idx+1:]...)
		}
	}
	c.mu.Unlock()

	ctx = session.WithRecord(session.WithActor(ctx, actor), string(c.registry.Board()), id)
	logger := logging.WithContext(ctx, c.logger)
	if err != nil {
		return &RemoteFailure{Op: "remove", RecordID: id, Err: err}
	}
	logger.Info("record removed", logging.String(logging.FieldEventType, "record_removed"))
	return nil
}

func (c *Coordinator) indexOf(id string) int {
	for i := range c.records {
		if c.records[i].ID == id {
			return i
		}
	}
	return -1
}

// validatePayload checks every locator and cost line up front so a bad entry
// never reaches the store after earlier finalize steps have landed.
func validatePayload(p pipeline.Payload) *ValidationError {
	seen := make(map[string]int, len(p.Locators))
	for i, loc := range p.Locators {
		passenger := strings.TrimSpace(loc.Passenger)
		if passenger == "" || strings.TrimSpace(loc.Code) == "" {
			return &ValidationError{Field: fmt.Sprintf("locators[%d]", i), Message: "passenger and code are required"}
		}
		if prev, dup := seen[passenger]; dup {
			return &ValidationError{Field: fmt.Sprintf("locators[%d]", i), Message: fmt.Sprintf("passenger %q already listed at %d", passenger, prev)}
		}
		seen[passenger] = i
	}
	for i, line := range p.Costs {
		if strings.TrimSpace(line.Description) == "" {
			return &ValidationError{Field: fmt.Sprintf("costs[%d]", i), Message: "description is required"}
		}
		if line.AmountCents < 0 {
			return &ValidationError{Field: fmt.Sprintf("costs[%d]", i), Message: "amount must not be negative"}
		}
	}
	return nil
}
