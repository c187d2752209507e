package loader

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// LevelCritical sits above slog.LevelError.
const LevelCritical = slog.Level(12)

var levelNames = map[string]slog.Level{
	"critical": LevelCritical,
	"error":    slog.LevelError,
	"warning":  slog.LevelWarn,
	"warn":     slog.LevelWarn,
	"info":     slog.LevelInfo,
	"debug":    slog.LevelDebug,
}

// ParseLevel parses a severity name (critical, error, warning, info, debug;
// any case) or a numeric slog level.
func ParseLevel(s string) (slog.Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if lvl, ok := levelNames[name]; ok {
		return lvl, nil
	}
	if i, err := strconv.Atoi(name); err == nil {
		return slog.Level(i), nil
	}
	return 0, fmt.Errorf("invalid level %q (want critical, error, warning, info, debug or a number)", s)
}

// LevelName formats a level the way ParseLevel accepts it.
func LevelName(l slog.Level) string {
	switch l {
	case LevelCritical:
		return "critical"
	case slog.LevelError:
		return "error"
	case slog.LevelWarn:
		return "warning"
	case slog.LevelInfo:
		return "info"
	case slog.LevelDebug:
		return "debug"
	}
	return strconv.Itoa(int(l))
}
