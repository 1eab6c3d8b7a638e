package jsondoc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/resfs/internal/resources"
)

const doc = `{
  "name": "demo",
  "version": 3,
  "tags": [1, "a"],
  "enabled": true,
  "locales": {
    "en": {"greeting": "hello"},
    "fr": {"greeting": "bonjour"},
    "default": "en"
  },
  "v1.2": {"b": 2, "a": 1}
}`

func TestParse_Layout(t *testing.T) {
	p, err := Parse([]byte(doc), "cfg")
	require.NoError(t, err)

	names, err := p.Resources()
	require.NoError(t, err)
	assert.Equal(t, []string{"enabled", "name", "tags", "v1.2", "version"}, names)

	children, err := p.ChildReaders()
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "cfg.locales", children[0].Package())
}

func TestParse_Content(t *testing.T) {
	p, err := Parse([]byte(doc), "cfg")
	require.NoError(t, err)
	root := resources.NewDirectoryNode(p)

	tests := []struct {
		path string
		want string
	}{
		{"name", "demo"},
		{"version", "3"},
		{"enabled", "true"},
		{"tags", `[1,"a"]`},
		{"v1.2", `{"a":1,"b":2}`},
		{"locales/default", "en"},
		{"locales/fr/greeting", "bonjour"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			node, err := resources.Resolve(root, tt.path)
			require.NoError(t, err)
			text, err := resources.ReadText(node, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}

	_, err = p.OpenBinary("locales")
	assert.ErrorIs(t, err, resources.ErrNotFound)
	_, err = p.OpenBinary("nope")
	assert.ErrorIs(t, err, resources.ErrNotFound)
}

func TestParse_Selector(t *testing.T) {
	p, err := Parse([]byte(doc), "i18n", WithSelector("$.locales"))
	require.NoError(t, err)

	r := resources.NewProviderReader(p)
	names, err := r.Contents()
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "en", "fr"}, names)

	_, err = Parse([]byte(doc), "x", WithSelector("$.missing"))
	assert.ErrorIs(t, err, resources.ErrNotFound)

	_, err = Parse([]byte(doc), "x", WithSelector("$.name"))
	assert.Error(t, err)

	_, err = Parse([]byte(doc), "x", WithSelector("$[[["))
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`{"unterminated": `), "x")
	assert.Error(t, err)

	_, err = Parse([]byte(`[1, 2]`), "x")
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	p, err := Load(path, "cfg")
	require.NoError(t, err)
	assert.Equal(t, "cfg", p.Package())

	_, err = Load(filepath.Join(t.TempDir(), "absent.json"), "cfg")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
