package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dshills/strata/internal/tree"
)

// EnvWriter outputs leaves as dotenv variables. Keys are the upper-cased
// path with every non-alphanumeric run replaced by '_', so db.hosts[0]
// becomes DB_HOSTS_0. Lines are sorted by key.
type EnvWriter struct{}

func (e *EnvWriter) Write(w io.Writer, n *tree.Node) error {
	env := make(map[string]string)
	for _, leaf := range Flatten(n) {
		key := envKey(leaf.Path)
		if key == "" {
			return fmt.Errorf("env output needs a mapping or sequence at the root")
		}
		if prev, ok := env[key]; ok {
			return fmt.Errorf("env key %s is produced twice (value %q)", key, prev)
		}
		switch leaf.Value.Kind() {
		case tree.Scalar:
			env[key] = leaf.Value.ScalarString()
		default:
			env[key] = ""
		}
	}
	out, err := godotenv.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling env: %w", err)
	}
	if out == "" {
		return nil
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func envKey(path []tree.Segment) string {
	parts := make([]string, 0, len(path))
	for _, seg := range path {
		if seg.IsIndex {
			parts = append(parts, strconv.Itoa(seg.Index))
			continue
		}
		parts = append(parts, seg.Key)
	}
	var b strings.Builder
	sep := false
	for _, r := range strings.ToUpper(strings.Join(parts, "_")) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(r)
			continue
		}
		sep = true
	}
	return b.String()
}
