package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCache_PutGet(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 86400)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	key := "test-key"
	value := "db:\n  host: localhost\n"

	// Miss before put
	if _, ok := c.Get(key); ok {
		t.Error("Expected cache miss before put")
	}

	if err := c.Put(key, value, nil); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Expected cache hit after put")
	}
	if got != value {
		t.Errorf("Got = %q, want %q", got, value)
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 1) // 1 second TTL
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	key := "expire-test"
	if err := c.Put(key, "data", nil); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	if _, ok := c.Get(key); !ok {
		t.Error("Expected cache hit before expiration")
	}

	time.Sleep(1100 * time.Millisecond)

	if _, ok := c.Get(key); ok {
		t.Error("Expected cache miss after TTL expiration")
	}
}

func TestCache_DependencyChange(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, filepath.Join(dir, "cache"), 0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	dep := filepath.Join(dir, "app.yaml")
	if err := os.WriteFile(dep, []byte("a: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.Put("k", "a: 1\n", []string{dep}); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if _, ok := c.Get("k"); !ok {
		t.Fatal("Expected cache hit with unchanged dependency")
	}

	if err := os.WriteFile(dep, []byte("a: 12\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Expected cache miss after dependency changed")
	}

	if err := c.Put("gone", "x", []string{filepath.Join(dir, "missing.yaml")}); err == nil {
		t.Error("Expected error for missing dependency")
	}
}

func TestCache_DependencyRemoved(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, filepath.Join(dir, "cache"), 0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	dep := filepath.Join(dir, "inc.yaml")
	if err := os.WriteFile(dep, []byte("x: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.Put("k", "out", []string{dep}); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	os.Remove(dep)

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats error: %v", err)
	}
	if stats.Stale != 1 {
		t.Errorf("Stale = %d, want 1", stats.Stale)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Expected cache miss after dependency removed")
	}
}

func TestCache_Disabled(t *testing.T) {
	c, err := New(false, "", 0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if c.Enabled() {
		t.Error("Cache should be disabled")
	}

	// Operations should be no-ops
	if err := c.Put("key", "value", []string{"/does/not/exist"}); err != nil {
		t.Errorf("Put on disabled cache should not error: %v", err)
	}
	if _, ok := c.Get("key"); ok {
		t.Error("Get on disabled cache should always miss")
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear on disabled cache should not error: %v", err)
	}
}

func countEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	n := 0
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			n++
		}
	}
	return n
}

func TestCache_Clear(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 86400)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	for i := 0; i < 5; i++ {
		key := string(rune('a' + i))
		if err := c.Put(key, "data", nil); err != nil {
			t.Fatalf("Put error: %v", err)
		}
	}
	if n := countEntries(t, dir); n != 5 {
		t.Fatalf("Expected 5 cache entries, got %d", n)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n := countEntries(t, dir); n != 0 {
		t.Errorf("Expected 0 cache entries after clear, got %d", n)
	}
}

func TestCache_GetStats(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 86400)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats error: %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("Entries = %d, want 0", stats.Entries)
	}

	c.Put("key1", "value1", nil)
	c.Put("key2", "value2", nil)

	stats, err = c.GetStats()
	if err != nil {
		t.Fatalf("GetStats error: %v", err)
	}
	if stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
	if stats.TotalBytes <= 0 {
		t.Error("TotalBytes should be > 0")
	}
	if stats.Dir != dir {
		t.Errorf("Dir = %q, want %q", stats.Dir, dir)
	}
}

func TestHashKey(t *testing.T) {
	h1 := HashKey("test")
	h2 := HashKey("test")
	h3 := HashKey("other")

	if h1 != h2 {
		t.Error("Same input should produce same hash")
	}
	if h1 == h3 {
		t.Error("Different input should produce different hash")
	}
	if len(h1) != 64 { // SHA-256 hex = 64 chars
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestBuildCacheKey(t *testing.T) {
	k1 := BuildCacheKey("base.yaml", "prod.yaml", "deep", "yaml")
	k2 := BuildCacheKey("base.yaml", "prod.yaml", "deep", "yaml")
	k3 := BuildCacheKey("prod.yaml", "base.yaml", "deep", "yaml")
	k4 := BuildCacheKey("base.yaml", "prod.yamldeep", "yaml")

	if k1 != k2 {
		t.Error("Same inputs should produce same cache key")
	}
	if k1 == k3 {
		t.Error("Source order should change the cache key")
	}
	if k1 == k4 {
		t.Error("Part boundaries should change the cache key")
	}
}

func TestCache_ListAndPrune(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, filepath.Join(dir, "cache"), 0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	keep := filepath.Join(dir, "keep.yaml")
	change := filepath.Join(dir, "change.yaml")
	for _, p := range []string{keep, change} {
		if err := os.WriteFile(p, []byte("a: 1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Put("fresh", "a: 1\n", []string{keep}); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := c.Put("stale", "a: 1\n", []string{keep, change}); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(c.Dir(), "broken.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(change, []byte("a: 100\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	infos, err := c.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	states := map[string]string{}
	for _, info := range infos {
		states[info.Key] = info.State
	}
	want := map[string]string{
		HashKey("fresh"): StateFresh,
		HashKey("stale"): StateStale,
		"broken":         StateCorrupt,
	}
	if len(states) != len(want) {
		t.Fatalf("List() states = %v, want %v", states, want)
	}
	for k, v := range want {
		if states[k] != v {
			t.Errorf("state of %s = %q, want %q", k, states[k], v)
		}
	}
	for _, info := range infos {
		if info.Key == HashKey("stale") && len(info.Deps) != 2 {
			t.Errorf("stale deps = %v, want 2 paths", info.Deps)
		}
	}

	removed, err := c.Prune()
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune() = %d, want 2", removed)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("Expected fresh entry to survive prune")
	}
	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats error: %v", err)
	}
	if stats.Entries != 1 || stats.Stale != 0 {
		t.Errorf("stats after prune = %+v, want 1 fresh entry", stats)
	}
}

func TestCache_ListExpired(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 1)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := c.Put("k", "v", nil); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)

	infos, err := c.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(infos) != 1 || infos[0].State != StateExpired {
		t.Errorf("List() = %+v, want one expired entry", infos)
	}
}
