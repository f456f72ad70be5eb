package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agencyboard/internal/config"
	"agencyboard/internal/textutil"
)

const userAgent = "AgencyBoard-Go/0.1.0"

// maxListedTitles bounds how many record titles one message spells out.
const maxListedTitles = 5

// Service defines the notification surface used by the board watcher, the
// coordinator and the CLI.
type Service interface {
	NotifyNewRecords(ctx context.Context, board string, titles []string) error
	NotifyPartialCommit(ctx context.Context, board, recordID, title, failedStep string, completed []string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		newRecords:     cfg.Notifications.NewRecords,
		partialCommits: cfg.Notifications.PartialCommits,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	newRecords     bool
	partialCommits bool
}

func (n *ntfyService) NotifyNewRecords(ctx context.Context, board string, titles []string) error {
	if !n.newRecords || len(titles) == 0 {
		return nil
	}
	board = strings.TrimSpace(board)

	var builder strings.Builder
	if len(titles) == 1 {
		fmt.Fprintf(&builder, "🆕 New record on %s: %s", board, strings.TrimSpace(titles[0]))
	} else {
		fmt.Fprintf(&builder, "🆕 %d new records on %s", len(titles), board)
		for i, title := range titles {
			if i == maxListedTitles {
				fmt.Fprintf(&builder, "\n… and %d more", len(titles)-maxListedTitles)
				break
			}
			builder.WriteString("\n• ")
			builder.WriteString(strings.TrimSpace(title))
		}
	}

	data := payload{
		title:   "AgencyBoard - New Records",
		message: builder.String(),
		tags:    []string{"agencyboard", textutil.SanitizeToken(board), "new"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPartialCommit(ctx context.Context, board, recordID, title, failedStep string, completed []string) error {
	if !n.partialCommits {
		return nil
	}
	done := "none"
	if len(completed) > 0 {
		done = strings.Join(completed, ", ")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = recordID
	}
	data := payload{
		title: "AgencyBoard - Finalization Incomplete",
		message: fmt.Sprintf("⚠️ Finalization of %s (%s) stopped at %s\nCompleted: %s\nRe-run the same finalize to converge.",
			title, recordID, failedStep, done),
		tags:     []string{"agencyboard", textutil.SanitizeToken(board), "partial", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "AgencyBoard - Error",
		message:  builder.String(),
		tags:     []string{"agencyboard", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "AgencyBoard - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"agencyboard", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyNewRecords(context.Context, string, []string) error { return nil }
func (noopService) NotifyPartialCommit(context.Context, string, string, string, string, []string) error {
	return nil
}
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
