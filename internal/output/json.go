package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/strata/internal/tree"
)

// JSONWriter outputs the tree as indented JSON.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, n *tree.Node) error {
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
