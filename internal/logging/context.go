package logging

import (
	"context"
	"log/slog"

	"agencyboard/internal/session"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldBoard names the pipeline board a line concerns.
	FieldBoard = "board"
	// FieldRecordID is the standardized key for board record identifiers.
	FieldRecordID = "record_id"
	// FieldStage is the standardized key for canonical stage ids.
	FieldStage = "stage"
	// FieldActor identifies the operator who triggered the work.
	FieldActor = "actor"
	// FieldCorrelationID is the standardized key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	FieldEventType     = "event_type"
	FieldErrorHint     = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if board, ok := session.BoardFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldBoard, board))
	}
	if id, ok := session.RecordIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRecordID, id))
	}
	if actor, ok := session.ActorFromContext(ctx); ok && !actor.IsAnonymous() {
		fields = append(fields, slog.String(FieldActor, actor.Name()))
	}
	if rid, ok := session.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
