package merge

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dshills/strata/internal/tree"
)

// Strategy merges an override tree b into a base tree a.
type Strategy interface {
	Merge(a, b *tree.Node, opts Options) (*tree.Node, error)
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(a, b *tree.Node, opts Options) (*tree.Node, error)

func (f StrategyFunc) Merge(a, b *tree.Node, opts Options) (*tree.Node, error) {
	return f(a, b, opts)
}

// Options configures a merge.
type Options struct {
	// MergeLists lets Deep reconcile mapping elements of two sequences that sit
	// at the same index and share a key, instead of appending them.
	MergeLists bool
	// Logger receives debug traces; nil disables them.
	Logger *slog.Logger
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{MergeLists: true}
}

// Method selects one of the built-in strategies.
type Method int

const (
	Simple Method = iota + 1
	Deep
	Substitute
)

var methodNames = map[Method]string{
	Simple:     "simple",
	Deep:       "deep",
	Substitute: "substitute",
}

// Methods lists the built-in strategies in numeric order.
func Methods() []Method {
	return []Method{Simple, Deep, Substitute}
}

func methodList() string {
	names := make([]string, 0, len(methodNames))
	for _, m := range Methods() {
		names = append(names, fmt.Sprintf("%s (%d)", m, int(m)))
	}
	return strings.Join(names, ", ")
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Valid reports whether m names a built-in strategy.
func (m Method) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

// MethodOf returns the strategy with the given number.
func MethodOf(i int) (Method, error) {
	m := Method(i)
	if !m.Valid() {
		return 0, &InvalidMergeMethodError{Value: i}
	}
	return m, nil
}

// ParseMethod looks a strategy up by name, ignoring case. A decimal number is
// accepted as well, so "deep", "DEEP" and "2" all select Deep.
func ParseMethod(s string) (Method, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range methodNames {
		if n == name {
			return m, nil
		}
	}
	if i, err := strconv.Atoi(name); err == nil {
		if m := Method(i); m.Valid() {
			return m, nil
		}
	}
	return 0, &InvalidMergeMethodError{Value: s}
}

// Lookup accepts a Method, an integer or a name.
func Lookup(v any) (Method, error) {
	switch x := v.(type) {
	case Method:
		if !x.Valid() {
			return 0, &InvalidMergeMethodError{Value: int(x)}
		}
		return x, nil
	case int:
		return MethodOf(x)
	case int64:
		return MethodOf(int(x))
	case string:
		return ParseMethod(x)
	}
	return 0, &InvalidMergeMethodError{Value: v}
}

func (m Method) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, &InvalidMergeMethodError{Value: int(m)}
	}
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Merge runs the strategy selected by m.
func (m Method) Merge(a, b *tree.Node, opts Options) (*tree.Node, error) {
	mg := newMerger(m, opts)
	switch m {
	case Simple:
		return mg.simple(a, b)
	case Deep:
		return mg.deep(a, b)
	case Substitute:
		return mg.substitute(a, b)
	}
	return nil, &InvalidMergeMethodError{Value: int(m)}
}

// Merge folds b into a with s. A nil strategy means Simple.
//
// The merge owns a for its duration and may update it in place; callers must
// not keep references to a's subtrees across the call. Subtrees of b may be
// linked into the result.
func Merge(a, b *tree.Node, s Strategy, opts Options) (*tree.Node, error) {
	if s == nil {
		s = Simple
	}
	return s.Merge(a, b, opts)
}
