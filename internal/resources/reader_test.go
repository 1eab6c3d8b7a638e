package resources_test

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/resfs/internal/provider/memory"
	"github.com/agentic-research/resfs/internal/resources"
)

func TestProviderReader_Contents(t *testing.T) {
	p := newPkg()
	r := resources.NewProviderReader(p)

	names, err := r.Contents()
	require.NoError(t, err)

	var fromTree []string
	for child, err := range r.Files().Iterdir() {
		require.NoError(t, err)
		fromTree = append(fromTree, child.Name())
	}
	assert.ElementsMatch(t, fromTree, names)
	assert.ElementsMatch(t, []string{"a.txt", "empty.bin", "blob.bin", "sub"}, names)
}

func TestProviderReader_OpenResource(t *testing.T) {
	r := resources.NewProviderReader(newPkg())

	rc, err := r.OpenResource("a.txt")
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "alpha\n", string(data))

	_, err = r.OpenResource("missing")
	assert.ErrorIs(t, err, resources.ErrNotFound)

	_, err = r.OpenResource("sub")
	assert.ErrorIs(t, err, resources.ErrIsADirectory)

	// Only one level deep.
	_, err = r.OpenResource("sub/b.txt")
	assert.ErrorIs(t, err, resources.ErrNotFound)
}

func TestProviderReader_IsResource(t *testing.T) {
	r := resources.NewProviderReader(newPkg())

	tests := []struct {
		name string
		want bool
	}{
		{"a.txt", true},
		{"empty.bin", true},
		{"sub", false},
		{"missing", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.IsResource(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProviderReader_ResourcePathWithoutFilesystem(t *testing.T) {
	r := resources.NewProviderReader(newPkg())

	_, err := r.ResourcePath("a.txt")
	assert.ErrorIs(t, err, resources.ErrNoFilesystemPath)
	assert.ErrorIs(t, err, resources.ErrNotFound)
}

type diskProvider struct {
	*memory.Provider
	dir string
}

func (d *diskProvider) ResourcePath(name string) (string, error) {
	return filepath.Join(d.dir, name), nil
}

func TestProviderReader_ResourcePathDelegates(t *testing.T) {
	r := resources.NewProviderReader(&diskProvider{Provider: newPkg(), dir: "/srv/pkg"})

	path, err := r.ResourcePath("a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/pkg", "a.txt"), path)
}

func TestTraversableResources_FromFilesFunc(t *testing.T) {
	p := newPkg()
	calls := 0
	r := resources.NewTraversableResources(resources.FilesFunc(func() resources.Traversable {
		calls++
		return resources.NewDirectoryNode(p)
	}))

	ok, err := r.IsResource("blob.bin")
	require.NoError(t, err)
	assert.True(t, ok)

	names, err := r.Contents()
	require.NoError(t, err)
	assert.Len(t, names, 4)

	_, err = r.ResourcePath("blob.bin")
	assert.ErrorIs(t, err, resources.ErrNoFilesystemPath)

	assert.Equal(t, 2, calls, "every flat operation asks for a fresh root")
}

func TestProviderReader_ComposesWithProvider(t *testing.T) {
	p := newPkg()
	r := resources.NewProviderReader(p)

	assert.Same(t, p, r.Provider())
	root, ok := r.Files().(*resources.DirectoryNode)
	require.True(t, ok)
	assert.Same(t, p, root.Provider())
	assert.Equal(t, "pkg", root.Name())
}
