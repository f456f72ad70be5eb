// Package logging assembles the structured slog loggers used across
// agencyboard.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so coordinator and API code
// tag log lines with the board, record id, acting operator, and correlation
// id. NewNop provides a silent logger for tests and wiring code.
package logging
