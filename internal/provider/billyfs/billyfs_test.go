package billyfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/resfs/internal/resources"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	fsys := memfs.New()
	require.NoError(t, util.WriteFile(fsys, "/config.yaml", []byte("debug: true\n"), 0o644))
	require.NoError(t, util.WriteFile(fsys, "/logo.png", []byte{0x89, 'P', 'N', 'G'}, 0o644))
	require.NoError(t, util.WriteFile(fsys, "/templates/index.html", []byte("<html></html>"), 0o644))
	require.NoError(t, util.WriteFile(fsys, "/v1.2/ignored.txt", []byte("x"), 0o644))
	return New(fsys, "app.assets")
}

func TestProvider_Listing(t *testing.T) {
	p := newTestProvider(t)

	names, err := p.Resources()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"config.yaml", "logo.png"}, names)

	children, err := p.ChildReaders()
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "app.assets.templates", children[0].Package())
	assert.Equal(t, "templates", resources.Name(children[0]))
}

func TestProvider_ThroughTraversable(t *testing.T) {
	root := resources.NewDirectoryNode(newTestProvider(t))

	node, err := resources.Resolve(root, "templates/index.html")
	require.NoError(t, err)
	text, err := resources.ReadText(node, "")
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", text)

	logo, err := root.Joinpath("logo.png")
	require.NoError(t, err)
	data, err := resources.ReadBytes(logo)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
}

func TestProvider_OpenBinaryErrors(t *testing.T) {
	p := newTestProvider(t)

	tests := []struct {
		name    string
		wantErr error
	}{
		{"missing.txt", resources.ErrNotFound},
		{"templates", resources.ErrIsADirectory},
		{"templates/index.html", resources.ErrNotFound},
		{"..", resources.ErrNotFound},
		{"", resources.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.OpenBinary(tt.name)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProvider_ResourcePath(t *testing.T) {
	_, err := newTestProvider(t).ResourcePath("config.yaml")
	assert.ErrorIs(t, err, resources.ErrNoFilesystemPath)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "data.csv"), []byte("a,b\n"), 0o644))

	p, err := NewOS(dir, "pkg")
	require.NoError(t, err)

	r := resources.NewProviderReader(p)
	ok, err := r.IsResource("sub")
	require.NoError(t, err)
	assert.False(t, ok)

	sub, err := r.Files().Joinpath("sub")
	require.NoError(t, err)
	subProvider := sub.(*resources.DirectoryNode).Provider()

	path, err := resources.NewProviderReader(subProvider).ResourcePath("data.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sub", "data.csv"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(content))

	_, err = r.ResourcePath("nope.csv")
	assert.ErrorIs(t, err, resources.ErrNotFound)

	// A sub-package has no resource path; opening it still says why.
	_, err = r.ResourcePath("sub")
	assert.ErrorIs(t, err, resources.ErrNotFound)
	assert.NotErrorIs(t, err, resources.ErrIsADirectory)

	_, err = p.OpenBinary("sub")
	assert.ErrorIs(t, err, resources.ErrIsADirectory)
}

func TestNewOS_RejectsFiles(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := NewOS(file, "pkg")
	assert.ErrorIs(t, err, resources.ErrNotADirectory)

	_, err = NewOS(filepath.Join(t.TempDir(), "absent"), "pkg")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
