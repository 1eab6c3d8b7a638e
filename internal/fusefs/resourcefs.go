// Package fusefs exposes a resource tree through FUSE using cgofuse.
package fusefs

import (
	"errors"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/winfsp/cgofuse/fuse"

	"github.com/agentic-research/resfs/internal/resources"
)

// ResourceFS implements the read-only subset of fuse.FileSystemInterface
// over a resources.Traversable.
type ResourceFS struct {
	fuse.FileSystemBase
	root      resources.Traversable
	mountTime fuse.Timespec

	mu     sync.Mutex
	nextFh uint64
	files  map[uint64][]byte   // open file handles, content read at Open
	dirs   map[uint64][]string // open directory handles, listing taken at Opendir
}

func NewResourceFS(root resources.Traversable) *ResourceFS {
	return &ResourceFS{
		root:      root,
		mountTime: fuse.NewTimespec(time.Now()),
		files:     make(map[uint64][]byte),
		dirs:      make(map[uint64][]string),
	}
}

// Open reads the whole resource and hands back a handle to the buffered copy.
func (fs *ResourceFS) Open(p string, flags int) (int, uint64) {
	if flags&(fuse.O_WRONLY|fuse.O_RDWR) != 0 {
		return -fuse.EROFS, ^uint64(0)
	}
	node, errc := fs.lookup(p)
	if errc != 0 {
		return errc, ^uint64(0)
	}
	if node.IsDir() {
		return -fuse.EISDIR, ^uint64(0)
	}
	data, err := resources.ReadBytes(node)
	if err != nil {
		return errno(err), ^uint64(0)
	}
	return 0, fs.register(func(fh uint64) { fs.files[fh] = data })
}

func (fs *ResourceFS) Release(p string, fh uint64) int {
	fs.mu.Lock()
	delete(fs.files, fh)
	fs.mu.Unlock()
	return 0
}

// Getattr (Stat)
func (fs *ResourceFS) Getattr(p string, stat *fuse.Stat_t, fh uint64) int {
	stat.Atim = fs.mountTime
	stat.Mtim = fs.mountTime
	stat.Ctim = fs.mountTime
	stat.Birthtim = fs.mountTime

	node, errc := fs.lookup(p)
	if errc != 0 {
		return errc
	}
	if node.IsDir() {
		stat.Mode = fuse.S_IFDIR | 0o555
		stat.Nlink = 2
		return 0
	}

	data, ok := fs.cached(fh)
	if !ok {
		var err error
		if data, err = resources.ReadBytes(node); err != nil {
			return errno(err)
		}
	}
	stat.Mode = fuse.S_IFREG | 0o444
	stat.Nlink = 1
	stat.Size = int64(len(data))
	return 0
}

// Opendir snapshots the listing so paged Readdir calls see a stable order.
func (fs *ResourceFS) Opendir(p string) (int, uint64) {
	node, errc := fs.lookup(p)
	if errc != 0 {
		return errc, ^uint64(0)
	}
	if !node.IsDir() {
		return -fuse.ENOTDIR, ^uint64(0)
	}
	names, err := listNames(node)
	if err != nil {
		return errno(err), ^uint64(0)
	}
	return 0, fs.register(func(fh uint64) { fs.dirs[fh] = names })
}

// Readdir (List directory). fill returns false once the kernel buffer is full;
// the next call resumes from the offset handed to the last accepted entry.
func (fs *ResourceFS) Readdir(p string, fill func(name string, stat *fuse.Stat_t, ofst int64) bool, ofst int64, fh uint64) int {
	fs.mu.Lock()
	names, ok := fs.dirs[fh]
	fs.mu.Unlock()

	if !ok {
		node, errc := fs.lookup(p)
		if errc != 0 {
			return errc
		}
		if !node.IsDir() {
			return -fuse.ENOTDIR
		}
		var err error
		if names, err = listNames(node); err != nil {
			return errno(err)
		}
	}

	entries := append([]string{".", ".."}, names...)
	for i := int(ofst); i < len(entries); i++ {
		if !fill(entries[i], nil, int64(i+1)) {
			break
		}
	}
	return 0
}

func (fs *ResourceFS) Releasedir(p string, fh uint64) int {
	fs.mu.Lock()
	delete(fs.dirs, fh)
	fs.mu.Unlock()
	return 0
}

// Read (Cat file)
func (fs *ResourceFS) Read(p string, buff []byte, ofst int64, fh uint64) int {
	content, ok := fs.cached(fh)
	if !ok {
		node, errc := fs.lookup(p)
		if errc != 0 {
			return errc
		}
		if node.IsDir() {
			return -fuse.EISDIR
		}
		var err error
		if content, err = resources.ReadBytes(node); err != nil {
			return errno(err)
		}
	}

	if ofst >= int64(len(content)) {
		return 0
	}
	end := ofst + int64(len(buff))
	if end > int64(len(content)) {
		end = int64(len(content))
	}
	return copy(buff, content[ofst:end])
}

func (fs *ResourceFS) lookup(p string) (resources.Traversable, int) {
	p = path.Clean("/" + p)
	if p == "/" {
		return fs.root, 0
	}
	node, err := resources.Join(fs.root, strings.Split(p[1:], "/")...)
	if err != nil {
		return nil, errno(err)
	}
	return node, 0
}

func (fs *ResourceFS) register(store func(fh uint64)) uint64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.nextFh++
	store(fs.nextFh)
	return fs.nextFh
}

func (fs *ResourceFS) cached(fh uint64) ([]byte, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	data, ok := fs.files[fh]
	return data, ok
}

// listNames returns child names in iteration order. A name shared by a file
// and a sub-package is listed once, since lookups resolve it to the file.
func listNames(dir resources.Traversable) ([]string, error) {
	seen := make(map[string]struct{})
	var names []string
	for child, err := range dir.Iterdir() {
		if err != nil {
			return nil, err
		}
		if _, dup := seen[child.Name()]; dup {
			continue
		}
		seen[child.Name()] = struct{}{}
		names = append(names, child.Name())
	}
	return names, nil
}

// errno maps tree errors to negated FUSE error codes.
func errno(err error) int {
	switch {
	// resources.ErrNotFound wraps os.ErrNotExist, as do raw provider errors.
	case errors.Is(err, os.ErrNotExist), errors.Is(err, resources.ErrNotADirectory):
		return -fuse.ENOENT
	case errors.Is(err, resources.ErrIsADirectory):
		return -fuse.EISDIR
	default:
		return -fuse.EIO
	}
}

var _ fuse.FileSystemInterface = (*ResourceFS)(nil)
