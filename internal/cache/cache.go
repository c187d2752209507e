package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// Dep is a file an entry was built from.
type Dep struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// Entry represents a cached render.
type Entry struct {
	Key       string    `json:"key"`
	Output    string    `json:"output"`
	Deps      []Dep     `json:"deps,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	TTL       int       `json:"ttl"`
}

// Cache provides file-based caching for rendered configuration.
type Cache struct {
	dir        string
	ttlSeconds int
	enabled    bool
}

// New creates a new Cache. If dir is empty, uses the default cache directory.
func New(enabled bool, dir string, ttlSeconds int) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if dir == "" {
		d, err := defaultCacheDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{
		dir:        dir,
		ttlSeconds: ttlSeconds,
		enabled:    true,
	}, nil
}

// Get retrieves a cached render by key. Returns ("", false) on miss, on
// expiry, or when a dependency changed since the entry was stored.
func (c *Cache) Get(key string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	path := c.entryPath(key)
	entry, err := readEntry(path)
	if err != nil {
		return "", false
	}
	if c.state(entry) != StateFresh {
		os.Remove(path)
		return "", false
	}
	return entry.Output, true
}

// Put stores a render in the cache along with the files it depends on.
func (c *Cache) Put(key, output string, deps []string) error {
	if !c.enabled {
		return nil
	}
	entry := Entry{
		Key:       HashKey(key),
		Output:    output,
		CreatedAt: time.Now(),
		TTL:       c.ttlSeconds,
	}
	for _, p := range deps {
		d, err := stat(p)
		if err != nil {
			return fmt.Errorf("recording cache dependency: %w", err)
		}
		entry.Deps = append(entry.Deps, d)
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return os.WriteFile(c.entryPath(key), data, 0o644)
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled || c.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("removing cache entry: %w", err)
			}
		}
	}
	return nil
}

// Stats returns cache statistics.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
	Stale      int    `json:"stale"`
}

// Entry states reported by List.
const (
	StateFresh   = "fresh"
	StateExpired = "expired"
	StateStale   = "stale"
	StateCorrupt = "corrupt"
)

// EntryInfo describes a stored entry without its output.
type EntryInfo struct {
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"createdAt"`
	Bytes     int64     `json:"bytes"`
	State     string    `json:"state"`
	Deps      []string  `json:"deps,omitempty"`
}

// GetStats returns information about the cache.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	infos, err := c.List()
	if err != nil {
		return stats, err
	}
	for _, info := range infos {
		stats.Entries++
		stats.TotalBytes += info.Bytes
		switch info.State {
		case StateExpired:
			stats.Expired++
		case StateStale:
			stats.Stale++
		}
	}
	return stats, nil
}

// List describes every entry, oldest first. An entry past its TTL is
// expired even when its dependencies also changed.
func (c *Cache) List() ([]EntryInfo, error) {
	if !c.enabled || c.dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}
	var infos []EntryInfo
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		info := EntryInfo{
			Key:   strings.TrimSuffix(e.Name(), ".json"),
			Bytes: fi.Size(),
			State: StateCorrupt,
		}
		if entry, err := readEntry(filepath.Join(c.dir, e.Name())); err == nil {
			info.CreatedAt = entry.CreatedAt
			info.State = c.state(entry)
			for _, d := range entry.Deps {
				info.Deps = append(info.Deps, d.Path)
			}
		}
		infos = append(infos, info)
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos, nil
}

// Prune removes expired, stale and unreadable entries and reports how many
// it removed.
func (c *Cache) Prune() (int, error) {
	infos, err := c.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, info := range infos {
		if info.State == StateFresh {
			continue
		}
		err := os.Remove(filepath.Join(c.dir, info.Key+".json"))
		if err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("removing cache entry: %w", err)
		}
		removed++
	}
	return removed, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// BuildCacheKey creates a cache key from the parts of a load invocation.
// Order matters: the same sources in a different order fold differently.
func BuildCacheKey(parts ...string) string {
	return HashKey(strings.Join(parts, "\x00"))
}

func (c *Cache) expired(e Entry) bool {
	return c.ttlSeconds > 0 && time.Since(e.CreatedAt) > time.Duration(c.ttlSeconds)*time.Second
}

func (c *Cache) state(e Entry) string {
	switch {
	case c.expired(e):
		return StateExpired
	case !e.fresh():
		return StateStale
	}
	return StateFresh
}

func (e Entry) fresh() bool {
	for _, d := range e.Deps {
		cur, err := stat(d.Path)
		if err != nil || cur.Size != d.Size || !cur.ModTime.Equal(d.ModTime) {
			return false
		}
	}
	return true
}

func readEntry(path string) (Entry, error) {
	var entry Entry
	data, err := os.ReadFile(path)
	if err != nil {
		return entry, err
	}
	err = json.Unmarshal(data, &entry)
	return entry, err
}

func stat(path string) (Dep, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Dep{}, err
	}
	return Dep{Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, HashKey(key)+".json")
}

func defaultCacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "strata"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "strata"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "strata", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "strata", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "strata"), nil
	}
}
