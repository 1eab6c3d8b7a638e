package sqlitedb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/resfs/internal/provider/memory"
	"github.com/agentic-research/resfs/internal/resources"
)

func sourceTree() *memory.Provider {
	p := memory.New("app")
	p.AddResource("readme.md", []byte("# app\n"))
	p.AddResource("empty", nil)
	css := p.Child("css")
	css.AddResource("site.css", []byte("body{}"))
	css.Child("vendor").AddResource("reset.css", []byte("*{margin:0}"))
	p.Child("img").AddResource("dot.gif", []byte{'G', 'I', 'F', 0x00, 0x01})
	return p
}

func packed(t *testing.T) *Bundle {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "bundle.db")

	stats, err := Pack(context.Background(), dbPath, "app", resources.NewDirectoryNode(sourceTree()))
	require.NoError(t, err)
	assert.Equal(t, PackStats{Packages: 4, Resources: 5, Bytes: 6 + 6 + 11 + 5}, stats)

	b, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestPackAndOpen_RoundTrip(t *testing.T) {
	b := packed(t)

	pkgs, err := b.Packages()
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "app.css", "app.css.vendor", "app.img"}, pkgs)

	p, err := b.Provider("app")
	require.NoError(t, err)

	want := resources.NewDirectoryNode(sourceTree())
	got := resources.NewDirectoryNode(p)

	collect := func(root resources.Traversable) map[string]string {
		out := map[string]string{}
		err := resources.Walk(root, func(path string, node resources.Traversable, err error) error {
			require.NoError(t, err)
			if node.IsFile() {
				data, err := resources.ReadBytes(node)
				require.NoError(t, err)
				out[path] = string(data)
			} else {
				out[path] = "<dir>"
			}
			return nil
		})
		require.NoError(t, err)
		return out
	}
	assert.Equal(t, collect(want), collect(got))
}

func TestProvider_Listing(t *testing.T) {
	b := packed(t)
	p, err := b.Provider("app.css")
	require.NoError(t, err)

	names, err := p.Resources()
	require.NoError(t, err)
	assert.Equal(t, []string{"site.css"}, names)

	children, err := p.ChildReaders()
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "vendor", resources.Name(children[0]))

	root, err := b.Provider("app")
	require.NoError(t, err)
	rootChildren, err := root.ChildReaders()
	require.NoError(t, err)
	var names2 []string
	for _, c := range rootChildren {
		names2 = append(names2, c.Package())
	}
	assert.Equal(t, []string{"app.css", "app.img"}, names2, "grandchildren are not direct sub-packages")
}

func TestProvider_Missing(t *testing.T) {
	b := packed(t)

	_, err := b.Provider("nope")
	assert.ErrorIs(t, err, resources.ErrNotFound)

	p, err := b.Provider("app")
	require.NoError(t, err)
	_, err = p.OpenBinary("missing")
	assert.ErrorIs(t, err, resources.ErrNotFound)

	_, err = resources.NewDirectoryNode(p).Joinpath("missing")
	assert.ErrorIs(t, err, resources.ErrNotFound)
}

func TestPack_RejectsDottedDirectories(t *testing.T) {
	p := memory.New("app")
	p.Child("v1").Child("x").AddResource("f", nil)
	_, err := Pack(context.Background(), filepath.Join(t.TempDir(), "ok.db"), "app", resources.NewDirectoryNode(p))
	require.NoError(t, err)

	_, err = packageFor("app", "v1.2/x")
	assert.Error(t, err)
}

func TestPack_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Pack(ctx, filepath.Join(t.TempDir(), "c.db"), "app", resources.NewDirectoryNode(sourceTree()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPack_RejectsFileRoot(t *testing.T) {
	_, err := Pack(context.Background(), filepath.Join(t.TempDir(), "f.db"), "app",
		resources.NewFileNode(sourceTree(), "readme.md"))
	assert.ErrorIs(t, err, resources.ErrNotADirectory)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.db"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestProvider_NonASCIIPackageNames(t *testing.T) {
	src := memory.New("données")
	src.Child("css").AddResource("a.css", []byte("a{}"))
	src.Child("café").AddResource("menu.txt", []byte("crème"))
	src.Child("café").Child("thé").AddResource("vert.txt", []byte("sencha"))

	dbPath := filepath.Join(t.TempDir(), "utf8.db")
	_, err := Pack(context.Background(), dbPath, "données", resources.NewDirectoryNode(src))
	require.NoError(t, err)

	b, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	root, err := b.Provider("données")
	require.NoError(t, err)
	children, err := root.ChildReaders()
	require.NoError(t, err)
	var pkgs []string
	for _, c := range children {
		pkgs = append(pkgs, c.Package())
	}
	assert.Equal(t, []string{"données.café", "données.css"}, pkgs)

	node, err := resources.Join(resources.NewDirectoryNode(root), "css", "a.css")
	require.NoError(t, err)
	data, err := resources.ReadBytes(node)
	require.NoError(t, err)
	assert.Equal(t, "a{}", string(data))

	node, err = resources.Join(resources.NewDirectoryNode(root), "café", "thé", "vert.txt")
	require.NoError(t, err)
	data, err = resources.ReadBytes(node)
	require.NoError(t, err)
	assert.Equal(t, "sencha", string(data))
}
