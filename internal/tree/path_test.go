package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"a", "a"},
		{"a.b.c", "a.b.c"},
		{"hosts[0].name", "hosts[0].name"},
		{"servers['web-1'].port", "servers.web-1.port"},
		{`m["k"]`, "m.k"},
		{"list.0", "list.0"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			segs, err := ParsePath(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, JoinPath(segs))
		})
	}
}

func TestParsePathErrors(t *testing.T) {
	for _, expr := range []string{"", ".a", "a.", "a[", "a[x]", "a b", "a-b", "a[0]b"} {
		_, err := ParsePath(expr)
		assert.Error(t, err, expr)
	}
}

func TestLookup(t *testing.T) {
	n := parseYAML(t, `
db:
  hosts:
    - name: primary
    - name: replica
  "0": zero
`)
	tests := []struct {
		expr string
		want any
		ok   bool
	}{
		{"db.hosts[1].name", "replica", true},
		{"db.hosts.0.name", "primary", true},
		{"db[0]", "zero", true},
		{"db.hosts[5]", nil, false},
		{"db.missing", nil, false},
		{"db.hosts.x", nil, false},
		{"db.hosts[0].name.deeper", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			segs, err := ParsePath(tt.expr)
			require.NoError(t, err)
			got, ok := n.Lookup(segs)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Value())
			}
		})
	}
}
