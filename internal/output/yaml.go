package output

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dshills/strata/internal/tree"
)

// YAMLWriter outputs the tree as YAML, keeping mapping order.
type YAMLWriter struct{}

func (y *YAMLWriter) Write(w io.Writer, n *tree.Node) error {
	node, err := n.ToYAML()
	if err != nil {
		return fmt.Errorf("converting YAML: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return fmt.Errorf("writing YAML: %w", err)
	}
	return enc.Close()
}
