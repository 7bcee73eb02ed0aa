package metadata

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/spboyer/trxlogger/internal/models"
	"golang.org/x/sync/singleflight"
)

// Cache is a Provider that memoizes a Loader on two levels: binaries are
// loaded at most once per path, and each (binary, test) pair is looked up at
// most once. Failures are memoized as well, so a missing binary is only
// probed once.
//
// One Cache is created per report and dropped after the report is written.
type Cache struct {
	loader Loader
	group  singleflight.Group

	mu       sync.RWMutex
	binaries map[string]*loadedBinary
	tests    map[testKey]*lookup

	loads atomic.Int64
	hits  atomic.Int64
}

type loadedBinary struct {
	bin Binary
	err error
}

type testKey struct {
	binaryPath string
	fullName   string
}

type lookup struct {
	md  *models.TestMetadata
	err error
}

// CacheStats reports how much work the cache saved.
type CacheStats struct {
	Loads    int64
	Hits     int64
	Binaries int
	Tests    int
}

// NewCache returns an empty cache backed by loader.
func NewCache(loader Loader) *Cache {
	return &Cache{
		loader:   loader,
		binaries: make(map[string]*loadedBinary),
		tests:    make(map[testKey]*lookup),
	}
}

// Describe implements Provider.
func (c *Cache) Describe(binaryPath, fullName string) (*models.TestMetadata, error) {
	key := testKey{binaryPath: binaryPath, fullName: fullName}

	c.mu.RLock()
	l, ok := c.tests[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return l.md, l.err
	}

	bin, err := c.binary(binaryPath)

	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.tests[key]; ok {
		c.hits.Add(1)
		return l.md, l.err
	}

	l = &lookup{err: err}
	if err == nil {
		l.md, l.err = bin.Lookup(fullName)
		if l.err != nil {
			l.err = fmt.Errorf("%w: %s: %w", ErrMetadataUnavailable, fullName, l.err)
		}
	}
	c.tests[key] = l
	return l.md, l.err
}

// binary returns the loaded binary for path, loading it if this is the first
// request. Concurrent first requests share a single load.
func (c *Cache) binary(path string) (Binary, error) {
	c.mu.RLock()
	lb, ok := c.binaries[path]
	c.mu.RUnlock()
	if ok {
		return lb.bin, lb.err
	}

	v, _, _ := c.group.Do(path, func() (any, error) {
		c.mu.RLock()
		lb, ok := c.binaries[path]
		c.mu.RUnlock()
		if ok {
			return lb, nil
		}

		c.loads.Add(1)
		bin, err := c.loader.Load(path)
		if err != nil {
			slog.Warn("Could not load test metadata", "source", path, "error", err)
			err = fmt.Errorf("%w: loading %s: %w", ErrMetadataUnavailable, path, err)
		}
		lb = &loadedBinary{bin: bin, err: err}

		c.mu.Lock()
		c.binaries[path] = lb
		c.mu.Unlock()
		return lb, nil
	})

	lb = v.(*loadedBinary)
	return lb.bin, lb.err
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Loads:    c.loads.Load(),
		Hits:     c.hits.Load(),
		Binaries: len(c.binaries),
		Tests:    len(c.tests),
	}
}
