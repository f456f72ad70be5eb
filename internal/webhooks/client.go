package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"agencyboard/internal/config"
	"agencyboard/internal/logging"
)

const (
	defaultHTTPTimeout = 15 * time.Second
	maxResponseBytes   = 1 << 20
	userAgent          = "AgencyBoard-Go/0.1.0"
)

// ErrDisabled is returned when the endpoint for a call is not configured.
var ErrDisabled = errors.New("webhook endpoint not configured")

// MeetingRequest asks the automation to book a meeting with a client.
type MeetingRequest struct {
	RecordID        string    `json:"record_id,omitempty"`
	ClientName      string    `json:"client_name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	RequestedBy     string    `json:"requested_by,omitempty"`
}

// ContractRequest asks the automation to render a contract for signature.
type ContractRequest struct {
	RecordID    string `json:"record_id,omitempty"`
	ClientName  string `json:"client_name"`
	Document    string `json:"document,omitempty"`
	Email       string `json:"email,omitempty"`
	AmountCents int64  `json:"amount_cents,omitempty"`
	Template    string `json:"template,omitempty"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// Response is what a webhook call produced. Link is empty when the body
// carried no recognisable link; Raw keeps the (truncated) body either way.
type Response struct {
	StatusCode int    `json:"status_code"`
	Link       string `json:"link,omitempty"`
	Raw        string `json:"raw,omitempty"`
}

type httpStatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("%s webhook: http %d: %s", e.Endpoint, e.StatusCode, strings.TrimSpace(e.Body))
}

// StatusCode returns the HTTP status of a failed call, or 0.
func StatusCode(err error) int {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// Client posts to the meeting and contract endpoints.
type Client struct {
	meetingURL  string
	contractURL string
	httpClient  *http.Client
	logger      *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a client for the given endpoints. Either may be blank.
func NewClient(meetingURL, contractURL string, opts ...Option) *Client {
	c := &Client{
		meetingURL:  strings.TrimSpace(meetingURL),
		contractURL: strings.TrimSpace(contractURL),
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "webhooks")
	return c
}

// NewFromConfig builds a client from the webhooks section of cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	if cfg == nil {
		return NewClient("", "", WithLogger(logger))
	}
	return NewClient(cfg.Webhooks.MeetingURL, cfg.Webhooks.ContractURL,
		WithHTTPClient(&http.Client{Timeout: cfg.WebhookTimeout()}),
		WithLogger(logger),
	)
}

// MeetingEnabled reports whether a meeting endpoint is configured.
func (c *Client) MeetingEnabled() bool { return c != nil && c.meetingURL != "" }

// ContractEnabled reports whether a contract endpoint is configured.
func (c *Client) ContractEnabled() bool { return c != nil && c.contractURL != "" }

// ScheduleMeeting posts req to the meeting endpoint.
func (c *Client) ScheduleMeeting(ctx context.Context, req MeetingRequest) (Response, error) {
	if !c.MeetingEnabled() {
		return Response{}, fmt.Errorf("meeting: %w", ErrDisabled)
	}
	if strings.TrimSpace(req.ClientName) == "" {
		return Response{}, errors.New("meeting: client name is required")
	}
	if req.StartsAt.IsZero() {
		return Response{}, errors.New("meeting: start time is required")
	}
	return c.post(ctx, "meeting", c.meetingURL, req)
}

// GenerateContract posts req to the contract endpoint.
func (c *Client) GenerateContract(ctx context.Context, req ContractRequest) (Response, error) {
	if !c.ContractEnabled() {
		return Response{}, fmt.Errorf("contract: %w", ErrDisabled)
	}
	if strings.TrimSpace(req.ClientName) == "" {
		return Response{}, errors.New("contract: client name is required")
	}
	return c.post(ctx, "contract", c.contractURL, req)
}

func (c *Client) post(ctx context.Context, endpoint, target string, body any) (Response, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("%s webhook: encode request: %w", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(encoded))
	if err != nil {
		return Response{}, fmt.Errorf("%s webhook: build request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain;q=0.9")
	req.Header.Set("User-Agent", userAgent)

	logger := logging.WithContext(ctx, c.logger).With(logging.String("endpoint", endpoint))
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%s webhook: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("%s webhook: read response: %w", endpoint, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return Response{}, &httpStatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}

	out := Response{StatusCode: resp.StatusCode, Raw: truncate(string(raw), 4096)}
	out.Link, _ = ExtractLink(raw)
	if out.Link == "" {
		logging.WarnWithContext(logger, "webhook response carried no link",
			"webhook_no_link",
			logging.Int("status", resp.StatusCode),
			logging.String(logging.FieldErrorHint, "check the automation's response format"),
			logging.String(logging.FieldImpact, "operator must copy the link manually"),
		)
	}
	logger.Info("webhook called",
		logging.String(logging.FieldEventType, "webhook_called"),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(start)),
		logging.Bool("link_found", out.Link != ""),
	)
	return out, nil
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "…"
}
