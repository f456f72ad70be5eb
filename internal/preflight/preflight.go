package preflight

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"agencyboard/internal/config"
	"agencyboard/internal/logging"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional results never block serve.
	Optional bool
}

// RunAll executes the checks serve depends on. Remote services are only
// probed when probe is set, since a probe costs a network round trip.
func RunAll(ctx context.Context, cfg *config.Config, probe bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("Data directory", cfg.Paths.DataDir)}
	// Without a log directory logs only go to stderr.
	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	results = append(results,
		CheckDirectoryAccess("Documents directory", cfg.Paths.DocumentsDir),
		CheckDatabase(ctx, cfg.DatabasePath()),
		CheckSigningKey(cfg.Documents.SigningKey),
		CheckEndpoint("Meeting webhook", cfg.Webhooks.MeetingURL),
		CheckEndpoint("Contract webhook", cfg.Webhooks.ContractURL),
	)
	if probe {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	} else {
		results = append(results, CheckEndpoint("ntfy", cfg.Notifications.NtfyTopic))
	}
	return results
}

// Report logs every result and returns an error naming the required checks
// that failed.
func Report(logger *slog.Logger, results []Result) error {
	logger = logging.NewComponentLogger(logger, "preflight")
	var failures []string
	for _, r := range results {
		switch {
		case r.Passed:
			logger.Info("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
		case r.Optional:
			logging.WarnWithContext(logger, "optional preflight check failed",
				"preflight_optional_failed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldErrorHint, "configure the service or ignore if unused"),
				logging.String(logging.FieldImpact, "feature unavailable"),
			)
		default:
			logger.Error("preflight check failed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_failed"),
				logging.String(logging.FieldErrorHint, "fix the reported issue and restart serve"),
			)
			failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("preflight checks failed: %s", strings.Join(failures, "; "))
	}
	return nil
}
