package ports

import (
	"context"
	"errors"
	"io"
)

// ErrUnauthorized reports that the remote API rejected the session's
// authentication material. Fetchers return it (possibly wrapped) so callers
// can trigger a session refresh.
var ErrUnauthorized = errors.New("session unauthorized")

// FetchRequest describes one authorized API request.
type FetchRequest struct {
	URL string
	// Filter, when non-nil, turns the request into a POST with the filter
	// as JSON body.
	Filter map[string]any
}

// Fetcher performs one request against the remote API through the anti-bot
// proxy service and returns the raw response body.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest, cookie string) ([]byte, error)
}

// Session supplies the cookie material used to authorize fetch requests.
type Session interface {
	// Get returns the current cookie header value, acquiring one if the
	// cache is empty.
	Get(ctx context.Context) (string, error)

	// Refresh discards the cached material and acquires fresh cookies.
	// Concurrent callers share a single in-flight refresh.
	Refresh(ctx context.Context) (string, error)
}

// CookieAcquirer obtains fresh cookies from the browser automation
// collaborator. It is the expensive external call behind Session.Refresh.
type CookieAcquirer interface {
	Acquire(ctx context.Context) (string, error)
}

// Decrypter reverses the obfuscation the remote API applies to flagged
// payloads. The scheme is opaque to the pipeline.
type Decrypter interface {
	Decrypt(raw []byte) ([]byte, error)
}

// RecordSink appends newline-terminated record lines. AppendLine must be
// safe under concurrent invocation: one call writes one intact line.
type RecordSink interface {
	AppendLine(data []byte) error
	Close() error
}

// Downloader streams a media asset from the given URL.
// Returns a ReadCloser that the caller must close, plus the reported
// content length (-1 when unknown).
type Downloader interface {
	Download(ctx context.Context, assetURL string) (io.ReadCloser, int64, error)
}

// MediaStore persists downloaded assets under the media root.
type MediaStore interface {
	// Exists reports whether a completed asset is present at the relative
	// path. Only a regular file at the final path counts.
	Exists(relPath string) bool

	// Save streams the reader to the relative path, creating parent
	// directories. The file appears at the final path only once the copy
	// completed. Returns the number of bytes written.
	Save(relPath string, r io.Reader) (int64, error)

	// Path returns the absolute filesystem path for a relative asset path.
	Path(relPath string) string
}
