package session

import (
	"context"
	"strings"
)

// Actor identifies the operator performing an action.
type Actor struct {
	UserID      string
	DisplayName string
	Email       string
	Admin       bool
}

// Anonymous is the zero actor used when no identity is available.
var Anonymous = Actor{}

// Name returns the trimmed display name, falling back to the user id.
func (a Actor) Name() string {
	if name := strings.TrimSpace(a.DisplayName); name != "" {
		return name
	}
	return strings.TrimSpace(a.UserID)
}

// IsAnonymous reports whether neither an id nor a name is set.
func (a Actor) IsAnonymous() bool {
	return a.Name() == ""
}

type contextKey string

const (
	actorKey     contextKey = "actor"
	requestIDKey contextKey = "request_id"
	boardKey     contextKey = "board"
	recordKey    contextKey = "record_id"
)

// WithActor annotates context with the acting operator.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext extracts the actor if present.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Anonymous, false
	}
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, requestIDKey)
}

// WithRecord scopes context to one record of a board. Empty values are not
// stored.
func WithRecord(ctx context.Context, board, recordID string) context.Context {
	if board = strings.TrimSpace(board); board != "" {
		ctx = context.WithValue(ctx, boardKey, board)
	}
	if recordID = strings.TrimSpace(recordID); recordID != "" {
		ctx = context.WithValue(ctx, recordKey, recordID)
	}
	return ctx
}

// BoardFromContext returns the board scope if present.
func BoardFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, boardKey)
}

// RecordIDFromContext returns the record scope if present.
func RecordIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, recordKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
