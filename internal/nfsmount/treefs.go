// Package nfsmount exports a resource tree over NFS.
// It adapts a resources.Traversable to billy.Filesystem for use with
// willscott/go-nfs.
package nfsmount

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"

	"github.com/agentic-research/resfs/internal/resources"
)

var errReadOnly = fmt.Errorf("read-only filesystem")

// TreeFS adapts a resources.Traversable to billy.Filesystem.
// Every call walks the tree from the root, so provider changes are visible
// immediately.
type TreeFS struct {
	root      resources.Traversable
	mountTime time.Time
}

// NewTreeFS creates a read-only billy.Filesystem backed by root.
func NewTreeFS(root resources.Traversable) *TreeFS {
	return &TreeFS{
		root:      root,
		mountTime: time.Now(),
	}
}

// --- billy.Basic ---

func (fs *TreeFS) Create(filename string) (billy.File, error) {
	return nil, errReadOnly
}

func (fs *TreeFS) Open(filename string) (billy.File, error) {
	return fs.OpenFile(filename, os.O_RDONLY, 0)
}

func (fs *TreeFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	filename = cleanPath(filename)

	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, errReadOnly
	}

	node, err := fs.resolveNode(filename)
	if err != nil {
		return nil, pathError("open", filename, err)
	}
	if node.IsDir() {
		return nil, &os.PathError{Op: "open", Path: filename, Err: resources.ErrIsADirectory}
	}

	data, err := resources.ReadBytes(node)
	if err != nil {
		return nil, pathError("open", filename, err)
	}
	return &bytesFile{name: filename, data: data}, nil
}

func (fs *TreeFS) Stat(filename string) (os.FileInfo, error) {
	return fs.Lstat(filename)
}

func (fs *TreeFS) Rename(oldpath, newpath string) error {
	return errReadOnly
}

func (fs *TreeFS) Remove(filename string) error {
	return errReadOnly
}

func (fs *TreeFS) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// --- billy.TempFile ---

func (fs *TreeFS) TempFile(dir, prefix string) (billy.File, error) {
	return nil, billy.ErrNotSupported
}

// --- billy.Dir ---

func (fs *TreeFS) ReadDir(dirname string) ([]os.FileInfo, error) {
	dirname = cleanPath(dirname)

	node, err := fs.resolveNode(dirname)
	if err != nil {
		return nil, pathError("readdir", dirname, err)
	}
	if !node.IsDir() {
		return nil, &os.PathError{Op: "readdir", Path: dirname, Err: resources.ErrNotADirectory}
	}

	// A name shared by a file and a sub-package resolves to the file, so
	// only the first occurrence is listed.
	seen := make(map[string]struct{})
	var infos []os.FileInfo
	for child, err := range node.Iterdir() {
		if err != nil {
			return nil, pathError("readdir", dirname, err)
		}
		if _, dup := seen[child.Name()]; dup {
			continue
		}
		seen[child.Name()] = struct{}{}

		info, err := fs.nodeToFileInfo(child, child.Name())
		if err != nil {
			return nil, pathError("readdir", path.Join(dirname, child.Name()), err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (fs *TreeFS) MkdirAll(filename string, perm os.FileMode) error {
	return errReadOnly
}

// --- billy.Symlink ---

func (fs *TreeFS) Lstat(filename string) (os.FileInfo, error) {
	filename = cleanPath(filename)

	node, err := fs.resolveNode(filename)
	if err != nil {
		return nil, pathError("lstat", filename, err)
	}
	info, err := fs.nodeToFileInfo(node, path.Base(filename))
	if err != nil {
		return nil, pathError("lstat", filename, err)
	}
	return info, nil
}

func (fs *TreeFS) Symlink(target, link string) error {
	return errReadOnly
}

func (fs *TreeFS) Readlink(link string) (string, error) {
	return "", billy.ErrNotSupported
}

// --- billy.Chroot ---

func (fs *TreeFS) Chroot(path string) (billy.Filesystem, error) {
	return chroot.New(fs, path), nil
}

func (fs *TreeFS) Root() string {
	return "/"
}

// --- billy.Capable ---

func (fs *TreeFS) Capabilities() billy.Capability {
	return billy.ReadCapability | billy.SeekCapability
}

// --- internals ---

// resolveNode walks from the root to the node at a clean absolute path.
func (fs *TreeFS) resolveNode(p string) (resources.Traversable, error) {
	if p == "/" {
		return fs.root, nil
	}
	return resources.Join(fs.root, strings.Split(strings.TrimPrefix(p, "/"), "/")...)
}

// cleanPath normalizes a billy path to a clean absolute path.
func cleanPath(p string) string {
	p = path.Clean("/" + filepath.ToSlash(p))
	if p == "." {
		return "/"
	}
	return p
}

// pathError maps tree errors onto os errors go-nfs understands.
func pathError(op, p string, err error) error {
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, resources.ErrNotADirectory) {
		return &os.PathError{Op: op, Path: p, Err: os.ErrNotExist}
	}
	return &os.PathError{Op: op, Path: p, Err: err}
}

// nodeToFileInfo describes a node. File sizes are measured by reading.
func (fs *TreeFS) nodeToFileInfo(n resources.Traversable, name string) (os.FileInfo, error) {
	if n.IsDir() {
		return &staticFileInfo{
			name:    name,
			mode:    os.ModeDir | 0o555,
			modTime: fs.mountTime,
		}, nil
	}

	rc, err := n.Open(resources.ModeBinary)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	size, err := io.Copy(io.Discard, rc)
	if err != nil {
		return nil, err
	}
	return &staticFileInfo{
		name:    name,
		size:    size,
		mode:    0o444,
		modTime: fs.mountTime,
	}, nil
}

// staticFileInfo implements os.FileInfo with static values.
type staticFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
}

func (fi *staticFileInfo) Name() string       { return fi.name }
func (fi *staticFileInfo) Size() int64        { return fi.size }
func (fi *staticFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *staticFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *staticFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *staticFileInfo) Sys() interface{}   { return nil }

// Compile-time interface checks.
var (
	_ billy.Filesystem = (*TreeFS)(nil)
	_ billy.Capable    = (*TreeFS)(nil)
	_ billy.File       = (*bytesFile)(nil)
)
