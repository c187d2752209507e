package redact

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dshills/strata/internal/tree"
)

// Placeholder replaces every redacted value.
const Placeholder = "[REDACTED]"

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []*regexp.Regexp{
	// Generic API keys (long hex/base64 strings after common key patterns)
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// Generic secrets/tokens/passwords in assignments
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	// Bearer tokens
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	// JWTs (three base64 segments separated by dots)
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// Private key blocks
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`),
	// GitHub tokens
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	// Slack tokens
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	// Anthropic API keys
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	// OpenAI API keys
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	// Passwords embedded in connection URLs
	regexp.MustCompile(`://[^/\s:@]+:[^/\s@]+@`),
}

// sensitiveKey matches mapping keys whose values are always masked.
var sensitiveKey = regexp.MustCompile(`(?i)(^|[_.-])(password|passwd|pass|secret|token|api[_-]?key|apikey|private[_-]?key|credentials?)($|[_.-])`)

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllString(result, Placeholder)
	}
	return result
}

// SensitiveKey reports whether values under key should always be masked.
func SensitiveKey(key string) bool {
	return sensitiveKey.MatchString(key)
}

// ShouldRedactPath checks if a slash-separated key path matches any of the
// redaction path patterns.
func ShouldRedactPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// ValidatePatterns reports the first malformed path pattern.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return &PatternError{Pattern: p}
		}
	}
	return nil
}

// PatternError reports a malformed redaction pattern.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return "invalid redaction pattern " + strconv.Quote(e.Pattern)
}

// Tree returns a redacted clone of n. The input is left untouched.
func Tree(n *tree.Node, paths []string) *tree.Node {
	return walk(n.Clone(), "", nil, paths)
}

func walk(n *tree.Node, key string, path []string, patterns []string) *tree.Node {
	if masked(n, key, path, patterns) {
		return tree.String(Placeholder)
	}
	switch n.Kind() {
	case tree.Mapping:
		for k, v := range n.Fields() {
			n.Set(k, walk(v, k, append(path[:len(path):len(path)], k), patterns))
		}
	case tree.Sequence:
		for i, v := range n.Items() {
			n.SetIndex(i, walk(v, "", append(path[:len(path):len(path)], strconv.Itoa(i)), patterns))
		}
	case tree.Scalar:
		if s, ok := n.Str(); ok {
			if r := Secrets(s); r != s {
				return tree.String(r)
			}
		}
	}
	return n
}

func masked(v *tree.Node, key string, path []string, patterns []string) bool {
	if v.IsNull() || len(path) == 0 {
		return false
	}
	if ShouldRedactPath(strings.Join(path, "/"), patterns) {
		return true
	}
	return v.IsScalar() && SensitiveKey(key)
}
