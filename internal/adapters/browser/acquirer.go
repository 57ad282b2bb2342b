package browser

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const acquireTimeout = 3 * time.Minute

// HelperAcquirer obtains session cookies by running the local browser
// helper binary. The helper drives a browser through the target site's
// anti-bot challenge and prints the resulting Cookie header line on stdout.
type HelperAcquirer struct {
	binaryPath string
	targetURL  string
	headless   bool
}

// NewHelperAcquirer creates an acquirer for the given helper binary.
// binaryPath may be a bare name resolved through PATH.
func NewHelperAcquirer(binaryPath, targetURL string, headless bool) *HelperAcquirer {
	return &HelperAcquirer{
		binaryPath: binaryPath,
		targetURL:  targetURL,
		headless:   headless,
	}
}

// Acquire runs the helper and returns the cookie header value it printed.
func (a *HelperAcquirer) Acquire(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.binaryPath,
		"--headless="+strconv.FormatBool(a.headless),
		a.targetURL,
	)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("session helper failed: %w, stderr: %s", err, stderr.String())
	}

	cookie := strings.TrimSpace(out.String())
	if cookie == "" {
		return "", fmt.Errorf("session helper returned no cookies")
	}

	// The helper may print diagnostics before the cookie line; the cookie
	// header is always the last non-empty line.
	lines := strings.Split(cookie, "\n")
	return strings.TrimSpace(lines[len(lines)-1]), nil
}
