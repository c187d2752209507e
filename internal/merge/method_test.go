package merge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in   string
		want Method
	}{
		{"simple", Simple},
		{"SIMPLE", Simple},
		{" Deep ", Deep},
		{"substitute", Substitute},
		{"1", Simple},
		{"3", Substitute},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMethodInvalid(t *testing.T) {
	for _, in := range []string{"", "shallow", "0", "4", "-1"} {
		_, err := ParseMethod(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrInvalidMethod), in)
		assert.Contains(t, err.Error(), "simple (1), deep (2), substitute (3)")
	}
}

func TestMethodOfMatchesName(t *testing.T) {
	byNumber, err := MethodOf(1)
	require.NoError(t, err)
	byName, err := ParseMethod("SIMPLE")
	require.NoError(t, err)
	assert.Equal(t, byName, byNumber)

	_, err = MethodOf(9)
	assert.True(t, errors.Is(err, ErrInvalidMethod))
}

func TestLookup(t *testing.T) {
	tests := []struct {
		in      any
		want    Method
		wantErr bool
	}{
		{Deep, Deep, false},
		{2, Deep, false},
		{int64(3), Substitute, false},
		{"simple", Simple, false},
		{Method(0), 0, true},
		{1.5, 0, true},
		{nil, 0, true},
	}
	for _, tt := range tests {
		got, err := Lookup(tt.in)
		if tt.wantErr {
			assert.True(t, errors.Is(err, ErrInvalidMethod), "%v", tt.in)
			continue
		}
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestMethodString(t *testing.T) {
	assert.Equal(t, "deep", Deep.String())
	assert.Equal(t, "Method(7)", Method(7).String())
	assert.False(t, Method(7).Valid())
}

func TestMethodTextRoundTrip(t *testing.T) {
	var cfg struct {
		Method Method `yaml:"method"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("method: Substitute\n"), &cfg))
	assert.Equal(t, Substitute, cfg.Method)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Equal(t, "method: substitute\n", string(out))

	err = yaml.Unmarshal([]byte("method: nope\n"), &cfg)
	assert.True(t, errors.Is(err, ErrInvalidMethod))
}
