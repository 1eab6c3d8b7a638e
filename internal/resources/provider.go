package resources

import (
	"io"
	"strings"
)

// MinimalProvider is the smallest contract a resource source implements.
// Listings carry no ordering guarantee and are read fresh on every call.
type MinimalProvider interface {
	// Package is the dotted name of the package this provider serves.
	Package() string

	// ChildReaders returns the providers of the immediate sub-packages.
	ChildReaders() ([]MinimalProvider, error)

	// Resources returns the names of the immediate resources.
	Resources() ([]string, error)

	// OpenBinary opens one named resource. Missing names should yield an
	// error matching ErrNotFound or fs.ErrNotExist.
	OpenBinary(name string) (io.ReadCloser, error)
}

// PathResolver is implemented by providers that can map a resource to a real
// filesystem path.
type PathResolver interface {
	ResourcePath(name string) (string, error)
}

// Name returns the short name of p, the last component of its package.
func Name(p MinimalProvider) string {
	return PackageName(p.Package())
}

// PackageName returns the last dot-separated component of pkg.
func PackageName(pkg string) string {
	if i := strings.LastIndexByte(pkg, '.'); i >= 0 {
		return pkg[i+1:]
	}
	return pkg
}
