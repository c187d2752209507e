package output

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/dshills/strata/internal/tree"
)

// Writer writes a tree in a specific format.
type Writer interface {
	Write(w io.Writer, n *tree.Node) error
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{"yaml", "json", "toml", "text", "env"}
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "yaml", "yml", "":
		return &YAMLWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "toml":
		return &TOMLWriter{}, nil
	case "text":
		return &TextWriter{}, nil
	case "env":
		return &EnvWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Render formats the tree in the specified format.
func Render(n *tree.Node, format string) (string, error) {
	writer, err := GetWriter(format)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := writer.Write(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Emit writes rendered output to outPath, or to stdout when outPath is
// empty.
func Emit(stdout io.Writer, rendered, outPath string) error {
	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = stdout
	}

	if _, err := io.WriteString(w, rendered); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
