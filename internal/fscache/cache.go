// Package fscache is the filesystem-backed cache (C3) for raw HTML bodies
// (Home Manager / nix-darwin option-reference pages) and for structured
// per-client data snapshots. It persists across process restarts, unlike
// memcache.
package fscache

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"nix-mcp-core/pkg/logger"
)

// Stats mirrors the reference HTMLCache's get_stats shape.
type Stats struct {
	Hits           int64
	Misses         int64
	Errors         int64
	Writes         int64
	HitRatio       float64
	CacheDir       string
	TTL            time.Duration
	FileCount      int
	CacheSizeBytes int64
}

// Cache is the filesystem-backed cache for HTML bodies and structured data.
type Cache struct {
	mu  sync.Mutex
	dir string
	ttl time.Duration
	log *logger.Logger

	hits, misses, errors, writes int64
}

// New builds a Cache rooted at dir (created on demand) with entries
// considered fresh for ttl.
func New(dir string, ttl time.Duration, log *logger.Logger) *Cache {
	if log == nil {
		log = logger.NewLogger()
	}
	return &Cache{dir: dir, ttl: ttl, log: log}
}

func (c *Cache) htmlPath(url string) string {
	return filepath.Join(c.dir, hashKey(url)+".html")
}

func (c *Cache) jsonPath(id string) string {
	return filepath.Join(c.dir, hashKey(id)+".data.json")
}

func (c *Cache) binPath(id string) string {
	return filepath.Join(c.dir, hashKey(id)+".data.gob")
}

func (c *Cache) fresh(path string) (bool, os.FileInfo) {
	info, err := os.Stat(path)
	if err != nil {
		return false, nil
	}
	return time.Since(info.ModTime()) <= c.ttl, info
}

// Get retrieves the cached HTML body for url, or ("", false) if absent or expired.
func (c *Cache) Get(url string) (string, bool) {
	path := c.htmlPath(url)
	fresh, _ := c.fresh(path)
	if !fresh {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return "", false
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is derived from a hash, not attacker-controlled
	if err != nil {
		c.mu.Lock()
		c.errors++
		c.mu.Unlock()
		c.log.Debug(fmt.Sprintf("fscache: read error for %s: %s", url, err))
		return "", false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return string(data), true
}

// Set stores content as the HTML body for url via an atomic write-temp,
// rename-into-place sequence so concurrent readers never see a torn file.
func (c *Cache) Set(url, content string) error {
	return c.writeAtomic(c.htmlPath(url), []byte(content))
}

// Invalidate removes the cached HTML body for url, if present.
func (c *Cache) Invalidate(url string) error {
	return c.remove(c.htmlPath(url))
}

// Clear removes every cached HTML body (but leaves structured-data slots alone).
func (c *Cache) Clear() (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.html"))
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, m := range matches {
		if err := os.Remove(m); err == nil {
			removed++
		}
	}
	return removed, nil
}

// GetData retrieves structured data for id into dst (a pointer), trying the
// JSON slot first and falling back to the gob slot for payloads that are not
// JSON-round-trippable (sets, mapped collections).
func (c *Cache) GetData(id string, dst any) bool {
	if fresh, _ := c.fresh(c.jsonPath(id)); fresh {
		data, err := os.ReadFile(c.jsonPath(id)) //nolint:gosec
		if err == nil && json.Unmarshal(data, dst) == nil {
			c.mu.Lock()
			c.hits++
			c.mu.Unlock()
			return true
		}
	}
	if fresh, _ := c.fresh(c.binPath(id)); fresh {
		data, err := os.ReadFile(c.binPath(id)) //nolint:gosec
		if err == nil {
			dec := gob.NewDecoder(bytes.NewReader(data))
			if dec.Decode(dst) == nil {
				c.mu.Lock()
				c.hits++
				c.mu.Unlock()
				return true
			}
		}
	}
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	return false
}

// SetData stores obj for id in the JSON slot. Use SetDataBinary for values
// containing sets/maps that do not round-trip cleanly through JSON.
func (c *Cache) SetData(id string, obj any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return c.writeAtomic(c.jsonPath(id), data)
}

// SetDataBinary stores obj for id in the gob-encoded binary slot.
func (c *Cache) SetDataBinary(id string, obj any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(obj); err != nil {
		return err
	}
	return c.writeAtomic(c.binPath(id), buf.Bytes())
}

// InvalidateData removes both the JSON and binary slots for id.
func (c *Cache) InvalidateData(id string) error {
	err1 := c.remove(c.jsonPath(id))
	err2 := c.remove(c.binPath(id))
	if err1 != nil {
		return err1
	}
	return err2
}

func (c *Cache) writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		c.bumpError()
		return err
	}
	tmp, err := os.CreateTemp(c.dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		c.bumpError()
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		c.bumpError()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		c.bumpError()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		c.bumpError()
		return err
	}
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return nil
}

func (c *Cache) remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		c.bumpError()
		return err
	}
	return nil
}

func (c *Cache) bumpError() {
	c.mu.Lock()
	c.errors++
	c.mu.Unlock()
}

// Stats reports cumulative counters plus a live scan of the HTML slot's
// on-disk footprint.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	hits, misses, errs, writes := c.hits, c.misses, c.errors, c.writes
	c.mu.Unlock()

	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}

	var count int
	var size int64
	if matches, err := filepath.Glob(filepath.Join(c.dir, "*.html")); err == nil {
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil {
				count++
				size += info.Size()
			}
		}
	}

	return Stats{
		Hits:           hits,
		Misses:         misses,
		Errors:         errs,
		Writes:         writes,
		HitRatio:       ratio,
		CacheDir:       c.dir,
		TTL:            c.ttl,
		FileCount:      count,
		CacheSizeBytes: size,
	}
}
