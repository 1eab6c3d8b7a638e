// Package billyfs serves package resources from a directory of a
// billy.Filesystem. Regular files are resources and sub-directories are
// sub-packages; symlinks and other special files are ignored.
package billyfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/agentic-research/resfs/internal/resources"
)

// Provider is one package directory.
type Provider struct {
	fs     billy.Filesystem
	dir    string // slash path inside fs
	pkg    string
	osRoot string // absolute base dir when fs is OS-backed
}

// New serves the root of fsys as package pkg.
func New(fsys billy.Filesystem, pkg string) *Provider {
	return &Provider{fs: fsys, dir: "/", pkg: pkg}
}

// NewOS serves the directory dir of the local filesystem as package pkg.
// Resources of an OS-backed provider have real filesystem paths.
func NewOS(dir, pkg string) (*Provider, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: abs, Err: resources.ErrNotADirectory}
	}
	p := New(osfs.New(abs), pkg)
	p.osRoot = abs
	return p, nil
}

// Package implements resources.MinimalProvider.
func (p *Provider) Package() string { return p.pkg }

func (p *Provider) entries() ([]os.FileInfo, error) {
	infos, err := p.fs.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("read package dir %s: %w", p.dir, err)
	}
	return infos, nil
}

// Resources implements resources.MinimalProvider.
func (p *Provider) Resources() ([]string, error) {
	infos, err := p.entries()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, info := range infos {
		if info.Mode().IsRegular() {
			names = append(names, info.Name())
		}
	}
	return names, nil
}

// ChildReaders implements resources.MinimalProvider. Directories whose names
// contain a dot cannot be addressed as sub-packages and are skipped.
func (p *Provider) ChildReaders() ([]resources.MinimalProvider, error) {
	infos, err := p.entries()
	if err != nil {
		return nil, err
	}
	var children []resources.MinimalProvider
	for _, info := range infos {
		if !info.IsDir() || strings.Contains(info.Name(), ".") {
			continue
		}
		children = append(children, &Provider{
			fs:     p.fs,
			dir:    path.Join(p.dir, info.Name()),
			pkg:    p.pkg + "." + info.Name(),
			osRoot: p.osRoot,
		})
	}
	return children, nil
}

// OpenBinary implements resources.MinimalProvider.
func (p *Provider) OpenBinary(name string) (io.ReadCloser, error) {
	full, err := p.resolve("open", name)
	if err != nil {
		return nil, err
	}
	f, err := p.fs.Open(full)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ResourcePath implements resources.PathResolver. Only OS-backed providers
// have paths, and only resources map to one: a sub-package is not found.
func (p *Provider) ResourcePath(name string) (string, error) {
	if p.osRoot == "" {
		return "", &fs.PathError{Op: "resource_path", Path: name, Err: resources.ErrNoFilesystemPath}
	}
	full, err := p.resolve("resource_path", name)
	if errors.Is(err, resources.ErrIsADirectory) {
		return "", &fs.PathError{Op: "resource_path", Path: name, Err: resources.ErrNotFound}
	}
	if err != nil {
		return "", err
	}
	return filepath.Join(p.osRoot, filepath.FromSlash(full)), nil
}

// resolve checks that name is a regular file directly inside the package.
func (p *Provider) resolve(op, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", &fs.PathError{Op: op, Path: name, Err: resources.ErrNotFound}
	}
	full := path.Join(p.dir, name)
	info, err := p.fs.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return "", &fs.PathError{Op: op, Path: full, Err: resources.ErrNotFound}
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", &fs.PathError{Op: op, Path: full, Err: resources.ErrIsADirectory}
	}
	if !info.Mode().IsRegular() {
		return "", &fs.PathError{Op: op, Path: full, Err: resources.ErrNotFound}
	}
	return full, nil
}

var (
	_ resources.MinimalProvider = (*Provider)(nil)
	_ resources.PathResolver    = (*Provider)(nil)
)
