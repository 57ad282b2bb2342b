package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalevenings/cruise-ship-data-extractor/internal/logger"
)

type countingAcquirer struct {
	calls   atomic.Int64
	cookie  string
	release chan struct{} // when non-nil, Acquire blocks until closed
}

func (a *countingAcquirer) Acquire(ctx context.Context) (string, error) {
	a.calls.Add(1)
	if a.release != nil {
		<-a.release
	}
	return a.cookie, nil
}

func TestGetLoadsPersistedCache(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cookies.json")
	data, _ := json.Marshal(cacheEntry{Cookie: "session=persisted", AcquiredAt: time.Now()})
	require.NoError(t, os.WriteFile(cachePath, data, 0600))

	acquirer := &countingAcquirer{cookie: "session=fresh"}
	p := NewProvider(acquirer, cachePath, logger.New("test"))

	cookie, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session=persisted", cookie)
	assert.Equal(t, int64(0), acquirer.calls.Load(), "cache hit must not acquire")
}

func TestGetAcquiresWhenCacheEmpty(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cookies.json")
	acquirer := &countingAcquirer{cookie: "session=fresh"}
	p := NewProvider(acquirer, cachePath, logger.New("test"))

	cookie, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session=fresh", cookie)
	assert.Equal(t, int64(1), acquirer.calls.Load())

	// Second Get is served from memory.
	_, err = p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), acquirer.calls.Load())

	// And the cache file was written for the next run.
	data, err := os.ReadFile(cachePath)
	require.NoError(t, err)
	var entry cacheEntry
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "session=fresh", entry.Cookie)
}

func TestRefreshIsSingleFlight(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cookies.json")
	acquirer := &countingAcquirer{cookie: "session=fresh", release: make(chan struct{})}
	p := NewProvider(acquirer, cachePath, logger.New("test"))

	const callers = 10
	var wg sync.WaitGroup
	cookies := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := p.Refresh(context.Background())
			assert.NoError(t, err)
			cookies[i] = c
		}(i)
	}

	// Let every caller reach the in-flight refresh, then release it.
	time.Sleep(50 * time.Millisecond)
	close(acquirer.release)
	wg.Wait()

	assert.Equal(t, int64(1), acquirer.calls.Load(), "concurrent refreshes must share one acquisition")
	for _, c := range cookies {
		assert.Equal(t, "session=fresh", c)
	}
}

func TestGetIgnoresMalformedCache(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(cachePath, []byte("not json"), 0600))

	acquirer := &countingAcquirer{cookie: "session=fresh"}
	p := NewProvider(acquirer, cachePath, logger.New("test"))

	cookie, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session=fresh", cookie)
	assert.Equal(t, int64(1), acquirer.calls.Load())
}
