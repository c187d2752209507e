package cli

import (
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dshills/strata/internal/loader"
	"github.com/dshills/strata/internal/merge"
)

// methodValue is a pflag.Value accepting a merge method name or number.
type methodValue struct {
	method merge.Method
}

var _ pflag.Value = (*methodValue)(nil)

func (v *methodValue) String() string {
	if !v.method.Valid() {
		return ""
	}
	return v.method.String()
}

func (v *methodValue) Set(s string) error {
	m, err := merge.ParseMethod(s)
	if err != nil {
		return err
	}
	v.method = m
	return nil
}

func (v *methodValue) Type() string { return "method" }

// levelValue is a pflag.Value accepting a level name or number.
type levelValue struct {
	level slog.Level
	set   bool
}

var _ pflag.Value = (*levelValue)(nil)

func (v *levelValue) String() string {
	if !v.set {
		return ""
	}
	return loader.LevelName(v.level)
}

func (v *levelValue) Set(s string) error {
	l, err := loader.ParseLevel(s)
	if err != nil {
		return err
	}
	v.level, v.set = l, true
	return nil
}

func (v *levelValue) Type() string { return "level" }

// configKeys maps flag names to the config keys they override.
var configKeys = map[string]string{
	"method":      "method",
	"merge-lists": "merge_lists",
	"interpolate": "interpolate",
	"missing":     "missing",
	"format":      "format",
	"base-dir":    "base_dir",
	"recursive":   "recursive",
	"encoding":    "encoding",
	"redact":      "redact.enabled",
	"redact-path": "redact.paths",
	"cache":       "cache.enabled",
	"log-level":   "log_level",
}

// buildOverrides collects the flags set on the command line, keyed like
// config.SetField. Flags left at their default are not included.
func buildOverrides(fs *pflag.FlagSet) map[string]string {
	m := make(map[string]string)
	fs.Visit(func(f *pflag.Flag) {
		key, ok := configKeys[f.Name]
		if !ok {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			m[key] = strings.Join(sv.GetSlice(), ",")
			return
		}
		m[key] = f.Value.String()
	})
	return m
}
