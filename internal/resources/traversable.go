// Package resources defines a read-only virtual tree over package resources.
//
// A Traversable is a node that is either a directory or a file. Providers that
// only know how to list their own resources and sub-packages implement
// MinimalProvider; DirectoryNode and FileNode turn such a provider into a lazy
// Traversable tree, and TraversableResources exposes any tree through the flat
// FlatResourceReader contract.
package resources

import (
	"errors"
	"io"
	"iter"
	"strings"
)

// Open modes.
const (
	ModeText    = "r"
	ModeTextAlt = "rt"
	ModeBinary  = "rb"
)

// Traversable is a node in a virtual resource tree.
type Traversable interface {
	// Name is the node's name within its parent.
	Name() string
	IsDir() bool
	IsFile() bool

	// Iterdir lazily yields the immediate children of a directory. Every call
	// re-derives the sequence from the backing provider. A listing failure is
	// yielded as (nil, err) and ends the sequence.
	Iterdir() iter.Seq2[Traversable, error]

	// Joinpath returns the child named child. Missing children yield ErrNotFound.
	Joinpath(child string) (Traversable, error)

	// Open opens a file node for reading. mode is ModeText (the default when
	// empty) or ModeBinary. Text options only apply in text mode.
	Open(mode string, opts ...TextOption) (io.ReadCloser, error)
}

// ReadBytes reads the whole content of t in binary mode. The stream is always
// closed, including when the read fails.
func ReadBytes(t Traversable) (data []byte, err error) {
	rc, err := t.Open(ModeBinary)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return io.ReadAll(rc)
}

// ReadText reads the whole content of t as text decoded from encoding.
// An empty encoding means UTF-8. Malformed input is an error unless
// WithReplacement is among opts.
func ReadText(t Traversable, encoding string, opts ...TextOption) (text string, err error) {
	rc, err := t.Open(ModeText, append([]TextOption{WithEncoding(encoding)}, opts...)...)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Join applies Joinpath once per element, like the path "/" operator.
func Join(t Traversable, elems ...string) (Traversable, error) {
	cur := t
	for _, e := range elems {
		next, err := cur.Joinpath(e)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Resolve walks a slash-separated path below t. Empty segments and "." are
// ignored, so "", "." and "/" resolve to t itself.
func Resolve(t Traversable, path string) (Traversable, error) {
	var elems []string
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." {
			continue
		}
		elems = append(elems, seg)
	}
	return Join(t, elems...)
}

// SkipDir can be returned by a WalkFunc to skip the children of a directory.
var SkipDir = errors.New("skip this directory")

// WalkFunc is called by Walk for every node. path is slash-separated and
// relative to the walk root ("." for the root itself).
type WalkFunc func(path string, node Traversable, err error) error

// Walk visits t and its descendants depth-first, parents before children,
// in Iterdir order.
func Walk(t Traversable, fn WalkFunc) error {
	err := walk(".", t, fn)
	if errors.Is(err, SkipDir) {
		return nil
	}
	return err
}

func walk(path string, t Traversable, fn WalkFunc) error {
	if err := fn(path, t, nil); err != nil {
		return err
	}
	if !t.IsDir() {
		return nil
	}
	for child, err := range t.Iterdir() {
		if err != nil {
			if ferr := fn(path, t, err); ferr != nil && !errors.Is(ferr, SkipDir) {
				return ferr
			}
			return nil
		}
		childPath := child.Name()
		if path != "." {
			childPath = path + "/" + childPath
		}
		if err := walk(childPath, child, fn); err != nil {
			if errors.Is(err, SkipDir) && child.IsDir() {
				continue
			}
			return err
		}
	}
	return nil
}
