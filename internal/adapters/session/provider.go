package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/digitalevenings/cruise-ship-data-extractor/internal/core/ports"
	"github.com/digitalevenings/cruise-ship-data-extractor/internal/logger"
)

// cacheEntry is the on-disk form of the cookie cache.
type cacheEntry struct {
	Cookie     string    `json:"cookie"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Provider implements ports.Session over a cookie cache scoped to one run.
// Get serves from memory, falling back to the persisted cache file and
// finally to a fresh acquisition. Refresh always re-acquires; concurrent
// refreshes collapse into a single acquirer call.
type Provider struct {
	acquirer  ports.CookieAcquirer
	cachePath string
	log       *logger.Logger

	mu     sync.RWMutex
	cookie string

	flight singleflight.Group
}

// NewProvider creates a session provider backed by the given acquirer and
// cache file path.
func NewProvider(acquirer ports.CookieAcquirer, cachePath string, log *logger.Logger) *Provider {
	return &Provider{
		acquirer:  acquirer,
		cachePath: cachePath,
		log:       log,
	}
}

// Get returns the cached cookie header value, loading the persisted cache
// or acquiring fresh material if nothing is cached yet.
func (p *Provider) Get(ctx context.Context) (string, error) {
	p.mu.RLock()
	cookie := p.cookie
	p.mu.RUnlock()
	if cookie != "" {
		return cookie, nil
	}

	if cached, err := p.loadCache(); err == nil && cached != "" {
		p.mu.Lock()
		p.cookie = cached
		p.mu.Unlock()
		p.log.Debug().Msg("loaded session from cookie cache")
		return cached, nil
	}

	return p.Refresh(ctx)
}

// Refresh acquires fresh cookies via the external collaborator and updates
// both the in-memory and on-disk caches. Concurrent callers share one
// in-flight acquisition and all receive its result.
func (p *Provider) Refresh(ctx context.Context) (string, error) {
	v, err, _ := p.flight.Do("refresh", func() (any, error) {
		p.log.Info().Msg("acquiring fresh session cookies")
		cookie, err := p.acquirer.Acquire(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to acquire session: %w", err)
		}

		p.mu.Lock()
		p.cookie = cookie
		p.mu.Unlock()

		if err := p.saveCache(cookie); err != nil {
			// A dead cache file only costs a re-acquisition next run.
			p.log.Warn().Err(err).Msg("failed to persist cookie cache")
		}
		return cookie, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (p *Provider) loadCache() (string, error) {
	data, err := os.ReadFile(p.cachePath)
	if err != nil {
		return "", err
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", fmt.Errorf("malformed cookie cache: %w", err)
	}
	return entry.Cookie, nil
}

func (p *Provider) saveCache(cookie string) error {
	if err := os.MkdirAll(filepath.Dir(p.cachePath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, _ := json.MarshalIndent(cacheEntry{Cookie: cookie, AcquiredAt: time.Now().UTC()}, "", "  ")
	if err := os.WriteFile(p.cachePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write cookie cache: %w", err)
	}
	return nil
}
