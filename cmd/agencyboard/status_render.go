package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"agencyboard/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset   = "\x1b[0m"
	ansiRed     = "\x1b[31m"
	ansiGreen   = "\x1b[32m"
	ansiYellow  = "\x1b[33m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
	ansiGray    = "\x1b[90m"
)

const (
	statusLabelWidth = 22
	statusIndent     = "  "
)

// decorationColors maps stage decorations onto terminal colors.
var decorationColors = map[string]string{
	"slate":  ansiGray,
	"sky":    ansiCyan,
	"indigo": ansiBlue,
	"violet": ansiMagenta,
	"amber":  ansiYellow,
	"teal":   ansiCyan,
	"green":  ansiGreen,
	"red":    ansiRed,
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

// renderSectionHeader renders a column title, tinted by the stage decoration
// when colorize is set.
func renderSectionHeader(title, decoration string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len([]rune(line)))
	if colorize {
		color, ok := decorationColors[decoration]
		if !ok {
			color = ansiBlue
		}
		line = color + line + ansiReset
		rule = color + rule + ansiReset
	}
	return []string{line, rule}
}

// preflightLines renders check results followed by a summary line. Optional
// failures are warnings.
func preflightLines(results []preflight.Result, colorize bool) ([]string, bool) {
	lines := make([]string, 0, len(results)+1)
	failed := 0
	for _, r := range results {
		kind := statusOK
		switch {
		case r.Passed:
		case r.Optional:
			kind = statusWarn
		default:
			kind = statusError
			failed++
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	if failed > 0 {
		lines = append(lines, renderStatusLine("Summary", statusError, fmt.Sprintf("%d required check(s) failed", failed), colorize))
		return lines, false
	}
	lines = append(lines, renderStatusLine("Summary", statusOK, "ready to serve", colorize))
	return lines, true
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
