package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"agencyboard/internal/store"
)

const probeTimeout = 5 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDatabase opens the table store, applying migrations, and reports the
// schema version.
func CheckDatabase(ctx context.Context, path string) Result {
	const name = "Database"
	st, err := store.OpenPath(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer st.Close()

	checkCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	version, err := st.SchemaVersion(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema %s)", path, version)}
}

// CheckSigningKey reports whether signed document links can be issued.
func CheckSigningKey(key string) Result {
	const name = "Document signing"
	switch n := len(strings.TrimSpace(key)); {
	case n == 0:
		return Result{Name: name, Optional: true, Detail: "no signing key; document links disabled"}
	case n < 16:
		return Result{Name: name, Detail: "signing key shorter than 16 characters"}
	}
	return Result{Name: name, Passed: true, Detail: "enabled"}
}

// CheckEndpoint validates an optional outbound URL without calling it.
// Webhooks trigger automations, so they are never probed.
func CheckEndpoint(name, raw string) Result {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{Name: name, Optional: true, Detail: "not configured"}
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("invalid url %q", raw)}
	}
	return Result{Name: name, Optional: true, Passed: true, Detail: parsed.Host}
}

// CheckNtfy polls the topic for recent messages, which verifies reachability
// and access without publishing anything.
func CheckNtfy(ctx context.Context, topic string) Result {
	const name = "ntfy"
	base := CheckEndpoint(name, topic)
	if !base.Passed {
		return base
	}

	checkCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	target := strings.TrimRight(strings.TrimSpace(topic), "/") + "/json?poll=1&since=1m"
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, target, nil)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("poll failed (%v)", err)}
	}
	client := &http.Client{Timeout: probeTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Optional: true, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Optional: true, Detail: "topic access denied"}
	default:
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("poll failed (%d)", resp.StatusCode)}
	}
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "poll timed out (server unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "poll timed out (server unreachable)"
	}
	return fmt.Sprintf("poll failed (%v)", err)
}
