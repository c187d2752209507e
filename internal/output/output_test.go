package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/dshills/strata/internal/tree"
)

func sample(t *testing.T) *tree.Node {
	t.Helper()
	var doc yaml.Node
	src := "name: api\nport: 8080\ndb:\n  host: localhost\n  hosts: [a, b]\ntls: null\nratio: 0.5\n"
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		t.Fatalf("parse: %v", err)
	}
	n, err := tree.FromYAML(&doc, nil)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	return n
}

func render(t *testing.T, format string, n *tree.Node) string {
	t.Helper()
	w, err := GetWriter(format)
	if err != nil {
		t.Fatalf("GetWriter(%q): %v", format, err)
	}
	var buf bytes.Buffer
	if err := w.Write(&buf, n); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	return buf.String()
}

func assertOrder(t *testing.T, out string, parts ...string) {
	t.Helper()
	last := -1
	for _, p := range parts {
		i := strings.Index(out, p)
		if i < 0 {
			t.Fatalf("output missing %q:\n%s", p, out)
		}
		if i < last {
			t.Errorf("%q out of order in:\n%s", p, out)
		}
		last = i
	}
}

func TestGetWriter(t *testing.T) {
	for _, f := range Formats() {
		if _, err := GetWriter(f); err != nil {
			t.Errorf("GetWriter(%q) error: %v", f, err)
		}
	}
	if _, err := GetWriter("xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestYAMLWriter(t *testing.T) {
	out := render(t, "yaml", sample(t))
	assertOrder(t, out, "name: api\n", "port: 8080\n", "db:\n", "  host: localhost\n", "- a\n", "- b\n", "tls: null\n", "ratio: 0.5\n")

	var back yaml.Node
	if err := yaml.Unmarshal([]byte(out), &back); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	n, err := tree.FromYAML(&back, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !tree.Equal(sample(t), n) {
		t.Errorf("round trip = %s, want %s", n, sample(t))
	}
}

func TestJSONWriter(t *testing.T) {
	out := render(t, "json", sample(t))
	assertOrder(t, out, `"name": "api"`, `"port": 8080`, `"db": {`, `"hosts": [`, `"tls": null`, `"ratio": 0.5`)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed["name"] != "api" {
		t.Errorf("name = %v, want %q", parsed["name"], "api")
	}
	if !strings.HasSuffix(out, "}\n") {
		t.Errorf("output should end with a newline: %q", out)
	}
}

func TestTOMLWriter(t *testing.T) {
	out := render(t, "toml", sample(t))
	for _, want := range []string{"name = ", "port = 8080", "[db]", "ratio = 0.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "tls") {
		t.Errorf("null value should be dropped:\n%s", out)
	}

	w := &TOMLWriter{}
	if err := w.Write(&bytes.Buffer{}, tree.NewSequence(tree.Int(1))); err == nil {
		t.Error("expected error for non-mapping root")
	}
}

func TestTextWriter(t *testing.T) {
	out := render(t, "text", sample(t))
	want := "name = api\nport = 8080\ndb.host = localhost\ndb.hosts[0] = a\ndb.hosts[1] = b\ntls = null\nratio = 0.5\n"
	if out != want {
		t.Errorf("text output = %q, want %q", out, want)
	}

	if got := render(t, "text", tree.String("solo")); got != ". = solo\n" {
		t.Errorf("scalar root = %q", got)
	}
	m := tree.NewMapping()
	m.Set("empty", tree.NewMapping())
	m.Set("none", tree.NewSequence())
	if got := render(t, "text", m); got != "empty = {}\nnone = []\n" {
		t.Errorf("empty collections = %q", got)
	}
}

func TestEnvWriter(t *testing.T) {
	out := render(t, "env", sample(t))
	want := strings.Join([]string{
		`DB_HOST="localhost"`,
		`DB_HOSTS_0="a"`,
		`DB_HOSTS_1="b"`,
		`NAME="api"`,
		`PORT=8080`,
		`RATIO="0.5"`,
		`TLS=""`,
	}, "\n") + "\n"
	if out != want {
		t.Errorf("env output = %q, want %q", out, want)
	}

	m := tree.NewMapping()
	m.Set("a-b", tree.Int(1))
	m.Set("a_b", tree.Int(2))
	if err := (&EnvWriter{}).Write(&bytes.Buffer{}, m); err == nil {
		t.Error("expected error for colliding keys")
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		path []tree.Segment
		want string
	}{
		{[]tree.Segment{{Key: "db"}, {Key: "host"}}, "DB_HOST"},
		{[]tree.Segment{{Key: "web-1"}, {Index: 2, IsIndex: true}}, "WEB_1_2"},
		{[]tree.Segment{{Key: "--x.y--"}}, "X_Y"},
	}
	for _, tt := range tests {
		if got := envKey(tt.path); got != tt.want {
			t.Errorf("envKey(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestRenderAndEmit(t *testing.T) {
	rendered, err := Render(sample(t), "json")
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := Emit(nil, rendered, path); err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != rendered {
		t.Errorf("file content = %s, want %s", data, rendered)
	}

	var buf bytes.Buffer
	if err := Emit(&buf, rendered, ""); err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	if buf.String() != rendered {
		t.Errorf("stdout content = %s, want %s", buf.String(), rendered)
	}

	if _, err := Render(sample(t), "xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := Render(tree.NewSequence(), "toml"); err == nil {
		t.Error("expected error for TOML sequence root")
	}
}
