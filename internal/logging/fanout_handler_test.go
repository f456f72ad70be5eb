package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for all nil handlers")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsEachLevel(t *testing.T) {
	var console, file bytes.Buffer
	consoleLevel := new(slog.LevelVar)
	consoleLevel.Set(slog.LevelWarn)
	fileLevel := new(slog.LevelVar)
	fileLevel.Set(slog.LevelDebug)

	h := newFanoutHandler(
		newConsoleHandler(&console, consoleLevel, false),
		newJSONHandler(&file, fileLevel, false),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected fanout enabled when any handler accepts the level")
	}

	logger := slog.New(h).With(String(FieldBoard, "operacoes"))
	logger.Debug("refresh tick")
	logger.Warn("refresh failed")

	if strings.Contains(console.String(), "refresh tick") {
		t.Fatalf("console received debug line: %q", console.String())
	}
	if !strings.Contains(console.String(), "WARN refresh failed [operacoes]") {
		t.Fatalf("unexpected console output: %q", console.String())
	}
	if strings.Count(file.String(), "\n") != 2 {
		t.Fatalf("expected both lines in file output, got %q", file.String())
	}
	if !strings.Contains(file.String(), `"board":"operacoes"`) {
		t.Fatalf("expected board attr in json output, got %q", file.String())
	}
}

func TestConsoleHandlerFormatsScopeAndGroups(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl, false))

	logger.With(String(FieldComponent, "coordinator")).
		WithGroup("batch").
		Info("finalize step", String(FieldRecordID, "rec-1"), Int("count", 2), String("note", "two words"))

	line := buf.String()
	for _, want := range []string{
		"INFO coordinator: finalize step",
		"batch.count=2",
		`batch.note="two words"`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}
