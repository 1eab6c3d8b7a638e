package resources

import (
	"errors"
	"io"
)

// FlatResourceReader is the legacy single-level contract over the immediate
// resources of one package.
type FlatResourceReader interface {
	// OpenResource opens a resource for binary reading.
	OpenResource(name string) (io.ReadCloser, error)

	// ResourcePath returns the filesystem path of a resource, or an error
	// matching ErrNotFound when it has none.
	ResourcePath(name string) (string, error)

	// IsResource reports whether name is a file (not a sub-package).
	IsResource(name string) (bool, error)

	// Contents lists the names of the immediate entries, files and
	// sub-packages alike.
	Contents() ([]string, error)
}

// FilesSource supplies the root of a Traversable tree.
type FilesSource interface {
	Files() Traversable
}

// TraversableResources implements FlatResourceReader on top of a FilesSource.
// Only single-segment names are supported.
type TraversableResources struct {
	src FilesSource
}

// NewTraversableResources bridges src to the flat reader contract. If src also
// implements PathResolver, ResourcePath delegates to it.
func NewTraversableResources(src FilesSource) *TraversableResources {
	return &TraversableResources{src: src}
}

// Files returns the root of the underlying tree.
func (r *TraversableResources) Files() Traversable {
	return r.src.Files()
}

func (r *TraversableResources) OpenResource(name string) (io.ReadCloser, error) {
	child, err := r.src.Files().Joinpath(name)
	if err != nil {
		return nil, err
	}
	return child.Open(ModeBinary)
}

func (r *TraversableResources) ResourcePath(name string) (string, error) {
	if pr, ok := r.src.(PathResolver); ok {
		return pr.ResourcePath(name)
	}
	return "", pathError("resource_path", name, ErrNoFilesystemPath)
}

func (r *TraversableResources) IsResource(name string) (bool, error) {
	child, err := r.src.Files().Joinpath(name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return child.IsFile(), nil
}

func (r *TraversableResources) Contents() ([]string, error) {
	var names []string
	for child, err := range r.src.Files().Iterdir() {
		if err != nil {
			return nil, err
		}
		names = append(names, child.Name())
	}
	return names, nil
}

// FilesFunc adapts a function to FilesSource.
type FilesFunc func() Traversable

func (f FilesFunc) Files() Traversable { return f() }

var _ FlatResourceReader = (*TraversableResources)(nil)
