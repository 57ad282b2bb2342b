package domain

import (
	"encoding/json"
	"time"
)

// FetchTask is one ship record to fetch from the remote API.
type FetchTask struct {
	ShipID    int64
	SourceURL string
	// Filter, when non-nil, is sent as a JSON body with a POST request
	// instead of a plain GET.
	Filter map[string]any
	// Encrypted marks the response payload for the decryption collaborator.
	Encrypted bool
}

// DownloadTask is one media asset to mirror to local storage.
type DownloadTask struct {
	SourceURL string
	// RelPath is the destination path relative to the media root,
	// "<shipID>/<filename>". Its existence on disk is the completion marker.
	RelPath string
	ShipID  int64
	Label   string
}

// Record is one line of the append-only output file, produced per
// successfully fetched entity. Never mutated after being written.
type Record struct {
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Type      string          `json:"type"`
	ShipID    *int64          `json:"shipId,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// RecordData is the subset of a record's payload the download pipeline
// cares about.
type RecordData struct {
	Images []ImageRef `json:"images"`
}

// ImageRef is one media asset reference inside a record payload.
type ImageRef struct {
	Path      string `json:"path"`
	ImageType string `json:"imageType"`
}

// ShipListing is the authoritative listing the fetch pipeline starts from.
type ShipListing struct {
	Ships []ShipEntry `json:"ship"`
}

// ShipEntry is one task descriptor in the listing.
type ShipEntry struct {
	ID        int64          `json:"id"`
	Path      string         `json:"path"`
	Name      string         `json:"name"`
	Filter    map[string]any `json:"filter,omitempty"`
	Encrypted bool           `json:"encrypted,omitempty"`
}
