package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/resfs/api"
	"github.com/agentic-research/resfs/internal/provider/memory"
	"github.com/agentic-research/resfs/internal/provider/sqlitedb"
	"github.com/agentic-research/resfs/internal/resources"
)

func readPath(t *testing.T, p resources.MinimalProvider, path string) string {
	t.Helper()
	node, err := resources.Resolve(resources.NewDirectoryNode(p), path)
	require.NoError(t, err)
	text, err := resources.ReadText(node, "")
	require.NoError(t, err)
	return text
}

func TestOpen_AllKinds(t *testing.T) {
	dir := t.TempDir()

	assets := filepath.Join(dir, "assets")
	require.NoError(t, os.MkdirAll(filepath.Join(assets, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(assets, "css", "a.css"), []byte("a{}"), 0o644))

	jsonPath := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"root": {"k": "v"}}`), 0o644))

	dbPath := filepath.Join(dir, "bundle.db")
	src := memory.New("bundle")
	src.Child("x").AddResource("y", []byte("z"))
	_, err := sqlitedb.Pack(context.Background(), dbPath, "bundle", resources.NewDirectoryNode(src))
	require.NoError(t, err)

	tests := []struct {
		src  api.Source
		path string
		want string
	}{
		{api.Source{Name: "assets", Kind: api.KindDir, Path: assets}, "css/a.css", "a{}"},
		{api.Source{Name: "doc", Kind: api.KindJSON, Path: jsonPath, Selector: "$.root"}, "k", "v"},
		{api.Source{Name: "bundle", Kind: api.KindSQLite, Path: dbPath}, "x/y", "z"},
		{api.Source{Name: "inline", Kind: api.KindMemory, Resources: []api.InlineResource{
			{Name: "a/b/c.txt", Content: "deep"},
			{Name: "top.txt", Content: "top"},
		}}, "a/b/c.txt", "deep"},
	}
	for _, tt := range tests {
		t.Run(tt.src.Name, func(t *testing.T) {
			p, closer, err := Open(tt.src)
			require.NoError(t, err)
			defer func() { require.NoError(t, closer.Close()) }()

			assert.Equal(t, tt.src.Name, p.Package())
			assert.Equal(t, tt.want, readPath(t, p, tt.path))
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []api.Source{
		{Name: "missing-dir", Kind: api.KindDir, Path: filepath.Join(dir, "nope")},
		{Name: "missing-db", Kind: api.KindSQLite, Path: filepath.Join(dir, "nope.db")},
		{Name: "missing-json", Kind: api.KindJSON, Path: filepath.Join(dir, "nope.json")},
		{Name: "bad-kind", Kind: "tarball"},
	}
	for _, src := range tests {
		t.Run(src.Name, func(t *testing.T) {
			_, _, err := Open(src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), src.Name)
		})
	}
}

func TestHotSwap(t *testing.T) {
	v1 := memory.New("site")
	v1.AddResource("index.html", []byte("v1"))
	v2 := memory.New("site")
	v2.AddResource("index.html", []byte("v2"))
	v2.AddResource("new.html", []byte("new"))

	h := NewHotSwap(v1)
	r := resources.NewProviderReader(h)
	assert.Equal(t, "v1", readPath(t, h, "index.html"))

	prev := h.Swap(v2)
	assert.Same(t, v1, prev)
	assert.Same(t, v2, h.Current())
	assert.Equal(t, "v2", readPath(t, h, "index.html"))

	names, err := r.Contents()
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html", "new.html"}, names)

	_, err = r.ResourcePath("index.html")
	assert.ErrorIs(t, err, resources.ErrNoFilesystemPath)
}
