package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dshills/strata/internal/loader"
	"github.com/dshills/strata/internal/merge"
	"github.com/dshills/strata/internal/output"
	"github.com/dshills/strata/internal/redact"
	"github.com/dshills/strata/internal/tree"
)

// Config represents the strata configuration.
type Config struct {
	Method      string       `yaml:"method"`
	MergeLists  bool         `yaml:"merge_lists"`
	Interpolate bool         `yaml:"interpolate"`
	Missing     string       `yaml:"missing"`
	LogLevel    string       `yaml:"log_level"`
	Format      string       `yaml:"format"`
	BaseDir     string       `yaml:"base_dir,omitempty"`
	Recursive   bool         `yaml:"recursive"`
	Encoding    string       `yaml:"encoding"`
	Redact      RedactConfig `yaml:"redact"`
	Cache       CacheConfig  `yaml:"cache"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Dir        string `yaml:"dir,omitempty"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// RedactConfig controls redaction of printed output.
type RedactConfig struct {
	Enabled bool     `yaml:"enabled"`
	Paths   []string `yaml:"paths,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Method:     "simple",
		MergeLists: true,
		Missing:    "error",
		LogLevel:   "warning",
		Format:     "yaml",
		Encoding:   "utf-8",
		Cache: CacheConfig{
			TTLSeconds: 3600,
		},
	}
}

type kind int

const (
	kindString kind = iota
	kindBool
	kindInt
	kindList
)

// field maps a dotted config key to its environment variable.
type field struct {
	key  string
	env  string
	kind kind
}

var fields = []field{
	{"method", "STRATA_METHOD", kindString},
	{"merge_lists", "STRATA_MERGE_LISTS", kindBool},
	{"interpolate", "STRATA_INTERPOLATE", kindBool},
	{"missing", "STRATA_MISSING", kindString},
	{"log_level", "STRATA_LOG_LEVEL", kindString},
	{"format", "STRATA_FORMAT", kindString},
	{"base_dir", "STRATA_BASE_DIR", kindString},
	{"recursive", "STRATA_RECURSIVE", kindBool},
	{"encoding", "STRATA_ENCODING", kindString},
	{"redact.enabled", "STRATA_REDACT", kindBool},
	{"redact.paths", "STRATA_REDACT_PATHS", kindList},
	{"cache.enabled", "STRATA_CACHE", kindBool},
	{"cache.dir", "STRATA_CACHE_DIR", kindString},
	{"cache.ttl_seconds", "STRATA_CACHE_TTL", kindInt},
}

// Keys lists the settable config keys.
func Keys() []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	return keys
}

func lookupField(key string) (field, bool) {
	for _, f := range fields {
		if f.key == key {
			return f, true
		}
	}
	return field{}, false
}

func (f field) parse(value string) (*tree.Node, error) {
	switch f.kind {
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be a boolean: %w", f.key, err)
		}
		return tree.Bool(b), nil
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer: %w", f.key, err)
		}
		return tree.Int(int64(n)), nil
	case kindList:
		seq := tree.NewSequence()
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				seq.Append(tree.String(part))
			}
		}
		return seq, nil
	default:
		return tree.String(value), nil
	}
}

// set stores v at the field's dotted key, creating parent mappings.
func (f field) set(layer *tree.Node, v *tree.Node) {
	parts := strings.Split(f.key, ".")
	cur := layer
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur.Get(p)
		if !ok || !next.IsMapping() {
			next = tree.NewMapping()
			cur.Set(p, next)
		}
		cur = next
	}
	cur.Set(parts[len(parts)-1], v)
}

// ConfigDir returns the platform-appropriate config directory for strata.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "strata"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "strata"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "strata"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "strata"), nil
	default:
		return filepath.Join(home, ".config", "strata"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadFile returns the defaults overlaid with the config file. A missing
// file yields the defaults.
func LoadFile() (Config, error) {
	layer, err := fileLayer()
	if err != nil {
		return Config{}, err
	}
	return fold(layer)
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Init writes a default config file unless one exists. It returns the file
// path and whether the file was created.
func Init() (string, bool, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}
	if err := Save(Default()); err != nil {
		return path, false, fmt.Errorf("writing config: %w", err)
	}
	return path, true, nil
}

// Load builds the effective config by merging:
// defaults <- file <- env file <- env <- overrides.
// The overrides map comes from CLI flags and is keyed like SetField.
func Load(envFile string, overrides map[string]string) (Config, error) {
	file, err := fileLayer()
	if err != nil {
		return Config{}, err
	}

	dotenv := map[string]string{}
	if envFile != "" {
		dotenv, err = godotenv.Read(envFile)
		if err != nil {
			return Config{}, fmt.Errorf("reading env file: %w", err)
		}
	}
	fromDotenv, err := envLayer(func(k string) (string, bool) {
		v, ok := dotenv[k]
		return v, ok
	})
	if err != nil {
		return Config{}, fmt.Errorf("env file %s: %w", envFile, err)
	}
	fromEnv, err := envLayer(os.LookupEnv)
	if err != nil {
		return Config{}, fmt.Errorf("environment: %w", err)
	}
	flags, err := overrideLayer(overrides)
	if err != nil {
		return Config{}, err
	}

	return fold(file, fromDotenv, fromEnv, flags)
}

func fileLayer() (*tree.Node, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return tree.NewNull(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	n, err := tree.FromYAML(&doc, nil)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if !n.IsNull() && !n.IsMapping() {
		return nil, fmt.Errorf("config file %s: expected a mapping, got %s", path, n.TypeName())
	}
	return n, nil
}

func envLayer(lookup func(string) (string, bool)) (*tree.Node, error) {
	layer := tree.NewMapping()
	for _, f := range fields {
		v, ok := lookup(f.env)
		if !ok || v == "" {
			continue
		}
		n, err := f.parse(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.env, err)
		}
		f.set(layer, n)
	}
	return layer, nil
}

func overrideLayer(overrides map[string]string) (*tree.Node, error) {
	layer := tree.NewMapping()
	for _, key := range Keys() {
		v, ok := overrides[key]
		if !ok {
			continue
		}
		f, _ := lookupField(key)
		n, err := f.parse(v)
		if err != nil {
			return nil, err
		}
		f.set(layer, n)
	}
	for key := range overrides {
		if _, ok := lookupField(key); !ok {
			return nil, fmt.Errorf("unknown config key: %s", key)
		}
	}
	return layer, nil
}

// fold merges layers over the defaults and decodes the result.
func fold(layers ...*tree.Node) (Config, error) {
	acc, err := toTree(Default())
	if err != nil {
		return Config{}, err
	}
	for _, layer := range layers {
		acc, err = merge.Merge(acc, layer, merge.Substitute, merge.Options{})
		if err != nil {
			return Config{}, fmt.Errorf("merging config: %w", err)
		}
	}
	var cfg Config
	if err := acc.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func toTree(cfg Config) (*tree.Node, error) {
	var y yaml.Node
	if err := y.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return tree.FromYAML(&y, nil)
}

// Validate checks that every enumerated setting names something real.
func Validate(cfg Config) error {
	if _, err := merge.ParseMethod(cfg.Method); err != nil {
		return fmt.Errorf("method: %w", err)
	}
	if _, err := loader.ParseLevel(cfg.Missing); err != nil {
		return fmt.Errorf("missing: %w", err)
	}
	if _, err := loader.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := output.GetWriter(cfg.Format); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	if err := redact.ValidatePatterns(cfg.Redact.Paths); err != nil {
		return fmt.Errorf("redact.paths: %w", err)
	}
	if cfg.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttl_seconds must not be negative")
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is
// unknown or the value does not fit.
func SetField(cfg *Config, key, value string) error {
	f, ok := lookupField(key)
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	n, err := f.parse(value)
	if err != nil {
		return err
	}
	base, err := toTree(*cfg)
	if err != nil {
		return err
	}
	layer := tree.NewMapping()
	f.set(layer, n)
	merged, err := merge.Merge(base, layer, merge.Substitute, merge.Options{})
	if err != nil {
		return err
	}
	var out Config
	if err := merged.Decode(&out); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(out); err != nil {
		return err
	}
	*cfg = out
	return nil
}
