package output

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/strata/internal/tree"
)

// TOMLWriter outputs the tree as TOML. TOML has no null, so null mapping
// values are left out; keys come out sorted.
type TOMLWriter struct{}

func (t *TOMLWriter) Write(w io.Writer, n *tree.Node) error {
	if !n.IsMapping() {
		return fmt.Errorf("TOML output needs a mapping at the root, got %s", n.TypeName())
	}
	if err := toml.NewEncoder(w).Encode(dropNulls(n.ToAny())); err != nil {
		return fmt.Errorf("writing TOML: %w", err)
	}
	return nil
}

func dropNulls(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			if val == nil {
				delete(x, k)
				continue
			}
			x[k] = dropNulls(val)
		}
	case []any:
		for i := range x {
			x[i] = dropNulls(x[i])
		}
	}
	return v
}
