package resources

import (
	"io"
	"iter"
)

// DirectoryNode is the Traversable view of a MinimalProvider. It holds no
// state besides the provider, so every Iterdir reflects the provider's
// current listings.
type DirectoryNode struct {
	provider MinimalProvider
}

// NewDirectoryNode wraps p as a directory.
func NewDirectoryNode(p MinimalProvider) *DirectoryNode {
	return &DirectoryNode{provider: p}
}

// Provider returns the wrapped provider.
func (d *DirectoryNode) Provider() MinimalProvider { return d.provider }

func (d *DirectoryNode) Name() string { return Name(d.provider) }
func (d *DirectoryNode) IsDir() bool  { return true }
func (d *DirectoryNode) IsFile() bool { return false }

// Iterdir yields a FileNode per resource, then a DirectoryNode per child
// provider. Child providers are only listed once every file was consumed.
func (d *DirectoryNode) Iterdir() iter.Seq2[Traversable, error] {
	return func(yield func(Traversable, error) bool) {
		names, err := d.provider.Resources()
		if err != nil {
			yield(nil, err)
			return
		}
		for _, name := range names {
			if !yield(NewFileNode(d.provider, name), nil) {
				return
			}
		}

		children, err := d.provider.ChildReaders()
		if err != nil {
			yield(nil, err)
			return
		}
		for _, child := range children {
			if !yield(NewDirectoryNode(child), nil) {
				return
			}
		}
	}
}

// Joinpath scans Iterdir and returns the first child named name. Files are
// listed before sub-packages, so a file wins a name collision.
func (d *DirectoryNode) Joinpath(name string) (Traversable, error) {
	for child, err := range d.Iterdir() {
		if err != nil {
			return nil, err
		}
		if child.Name() == name {
			return child, nil
		}
	}
	return nil, pathError("joinpath", name, ErrNotFound)
}

func (d *DirectoryNode) Open(string, ...TextOption) (io.ReadCloser, error) {
	return nil, pathError("open", d.provider.Package(), ErrIsADirectory)
}

// FileNode is a single named resource of a provider.
type FileNode struct {
	provider MinimalProvider
	name     string
}

// NewFileNode returns the resource name of p as a file.
func NewFileNode(p MinimalProvider, name string) *FileNode {
	return &FileNode{provider: p, name: name}
}

// Provider returns the provider that owns the resource.
func (f *FileNode) Provider() MinimalProvider { return f.provider }

func (f *FileNode) Name() string { return f.name }
func (f *FileNode) IsDir() bool  { return false }
func (f *FileNode) IsFile() bool { return true }

func (f *FileNode) Iterdir() iter.Seq2[Traversable, error] {
	return func(yield func(Traversable, error) bool) {
		yield(nil, pathError("iterdir", f.name, ErrNotADirectory))
	}
}

func (f *FileNode) Joinpath(name string) (Traversable, error) {
	return nil, pathError("joinpath", f.name, ErrNotADirectory)
}

// Open opens the resource through the provider. In text mode the provider's
// binary stream is wrapped in a decoder configured by opts.
func (f *FileNode) Open(mode string, opts ...TextOption) (io.ReadCloser, error) {
	binary, err := parseMode(mode)
	if err != nil {
		return nil, pathError("open", f.name, err)
	}
	stream, err := f.provider.OpenBinary(f.name)
	if err != nil {
		return nil, err
	}
	if binary {
		return stream, nil
	}
	return newTextReader(stream, opts...)
}

func parseMode(mode string) (binary bool, err error) {
	switch mode {
	case "", ModeText, ModeTextAlt:
		return false, nil
	case ModeBinary:
		return true, nil
	}
	return false, ErrInvalidMode
}

var (
	_ Traversable = (*DirectoryNode)(nil)
	_ Traversable = (*FileNode)(nil)
)
