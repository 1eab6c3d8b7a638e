package resources

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"
)

const (
	fileMode = fs.FileMode(0o444)
	dirMode  = fs.ModeDir | 0o555
)

// NewFS exposes a Traversable tree as an fs.FS. Sizes are computed by reading
// the resource, nothing is cached, and a name shared by a file and a
// sub-package resolves to the file.
func NewFS(root Traversable) fs.FS {
	return &treeFS{root: root}
}

type treeFS struct {
	root Traversable
}

func (t *treeFS) lookup(op, name string) (Traversable, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return t.root, nil
	}
	node, err := Join(t.root, strings.Split(name, "/")...)
	if err != nil {
		return nil, fsError(op, name, err)
	}
	return node, nil
}

// fsError maps tree errors onto the io/fs sentinels.
func fsError(op, name string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotADirectory):
		return &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	return &fs.PathError{Op: op, Path: name, Err: err}
}

func (t *treeFS) Open(name string) (fs.File, error) {
	node, err := t.lookup("open", name)
	if err != nil {
		return nil, err
	}
	if node.IsDir() {
		return &openDir{node: node, name: name}, nil
	}
	data, err := ReadBytes(node)
	if err != nil {
		return nil, fsError("open", name, err)
	}
	return &openFile{
		Reader: bytes.NewReader(data),
		info:   &fileInfo{name: baseName(name), size: int64(len(data)), mode: fileMode},
	}, nil
}

func (t *treeFS) Stat(name string) (fs.FileInfo, error) {
	node, err := t.lookup("stat", name)
	if err != nil {
		return nil, err
	}
	info, err := statNode(node, baseName(name))
	if err != nil {
		return nil, fsError("stat", name, err)
	}
	return info, nil
}

func (t *treeFS) ReadFile(name string) ([]byte, error) {
	node, err := t.lookup("readfile", name)
	if err != nil {
		return nil, err
	}
	if node.IsDir() {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: ErrIsADirectory}
	}
	data, err := ReadBytes(node)
	if err != nil {
		return nil, fsError("readfile", name, err)
	}
	return data, nil
}

func (t *treeFS) ReadDir(name string) ([]fs.DirEntry, error) {
	node, err := t.lookup("readdir", name)
	if err != nil {
		return nil, err
	}
	if !node.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: ErrNotADirectory}
	}
	entries, err := listEntries(node)
	if err != nil {
		return nil, fsError("readdir", name, err)
	}
	return entries, nil
}

// listEntries returns the children of dir sorted by name, keeping the first
// node for a duplicated name.
func listEntries(dir Traversable) ([]fs.DirEntry, error) {
	seen := make(map[string]struct{})
	var entries []fs.DirEntry
	for child, err := range dir.Iterdir() {
		if err != nil {
			return nil, err
		}
		if _, dup := seen[child.Name()]; dup {
			continue
		}
		seen[child.Name()] = struct{}{}
		entries = append(entries, &dirEntry{node: child})
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return entries, nil
}

func statNode(node Traversable, name string) (*fileInfo, error) {
	if node.IsDir() {
		return &fileInfo{name: name, mode: dirMode}, nil
	}
	rc, err := node.Open(ModeBinary)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	n, err := io.Copy(io.Discard, rc)
	if err != nil {
		return nil, err
	}
	return &fileInfo{name: name, size: n, mode: fileMode}, nil
}

func baseName(name string) string {
	if name == "." {
		return "."
	}
	return path.Base(name)
}

// openFile is a fully buffered resource.
type openFile struct {
	*bytes.Reader
	info *fileInfo
}

func (f *openFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *openFile) Close() error               { return nil }

// openDir lists its node on the first ReadDir call.
type openDir struct {
	node    Traversable
	name    string
	entries []fs.DirEntry
	loaded  bool
	offset  int
}

func (d *openDir) Stat() (fs.FileInfo, error) {
	return &fileInfo{name: baseName(d.name), mode: dirMode}, nil
}

func (d *openDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: ErrIsADirectory}
}

func (d *openDir) Close() error { return nil }

func (d *openDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.loaded {
		entries, err := listEntries(d.node)
		if err != nil {
			return nil, fsError("readdir", d.name, err)
		}
		d.entries = entries
		d.loaded = true
	}
	rest := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if n > len(rest) {
		n = len(rest)
	}
	d.offset += n
	return rest[:n], nil
}

type dirEntry struct {
	node Traversable
}

func (e *dirEntry) Name() string { return e.node.Name() }
func (e *dirEntry) IsDir() bool  { return e.node.IsDir() }

func (e *dirEntry) Type() fs.FileMode {
	if e.node.IsDir() {
		return fs.ModeDir
	}
	return 0
}

func (e *dirEntry) Info() (fs.FileInfo, error) {
	return statNode(e.node, e.node.Name())
}

type fileInfo struct {
	name string
	size int64
	mode fs.FileMode
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return fi.size }
func (fi *fileInfo) Mode() fs.FileMode  { return fi.mode }
func (fi *fileInfo) ModTime() time.Time { return time.Time{} }
func (fi *fileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *fileInfo) Sys() any           { return nil }

var (
	_ fs.ReadDirFS   = (*treeFS)(nil)
	_ fs.ReadFileFS  = (*treeFS)(nil)
	_ fs.StatFS      = (*treeFS)(nil)
	_ fs.ReadDirFile = (*openDir)(nil)
)
