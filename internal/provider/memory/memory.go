// Package memory provides a mutable in-memory resource provider.
package memory

import (
	"bytes"
	"io"
	"io/fs"
	"sync"

	"github.com/agentic-research/resfs/internal/resources"
)

// Provider is an in-memory package with resources and sub-packages.
// It is safe for concurrent use; every listing is a fresh snapshot, so
// mutations show up on the next Iterdir of a node wrapping it.
type Provider struct {
	pkg string

	mu        sync.RWMutex
	names     []string // insertion order
	data      map[string][]byte
	children  []*Provider
	childByID map[string]*Provider
}

// New returns an empty provider for pkg.
func New(pkg string) *Provider {
	return &Provider{
		pkg:       pkg,
		data:      make(map[string][]byte),
		childByID: make(map[string]*Provider),
	}
}

// Package implements resources.MinimalProvider.
func (p *Provider) Package() string { return p.pkg }

// AddResource adds or replaces a resource. The data is copied.
func (p *Provider) AddResource(name string, data []byte) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.data[name]; !ok {
		p.names = append(p.names, name)
	}
	p.data[name] = bytes.Clone(data)
	if p.data[name] == nil {
		p.data[name] = []byte{}
	}
	return p
}

// Child returns the sub-package named name, creating it if needed.
func (p *Provider) Child(name string) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.childByID[name]; ok {
		return c
	}
	c := New(p.pkg + "." + name)
	p.children = append(p.children, c)
	p.childByID[name] = c
	return c
}

// Remove deletes a resource and a sub-package with the given name.
// It reports whether anything was removed.
func (p *Provider) Remove(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	removed := false
	if _, ok := p.data[name]; ok {
		delete(p.data, name)
		for i, n := range p.names {
			if n == name {
				p.names = append(p.names[:i:i], p.names[i+1:]...)
				break
			}
		}
		removed = true
	}
	if c, ok := p.childByID[name]; ok {
		delete(p.childByID, name)
		for i, cc := range p.children {
			if cc == c {
				p.children = append(p.children[:i:i], p.children[i+1:]...)
				break
			}
		}
		removed = true
	}
	return removed
}

// ChildReaders implements resources.MinimalProvider.
func (p *Provider) ChildReaders() ([]resources.MinimalProvider, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]resources.MinimalProvider, len(p.children))
	for i, c := range p.children {
		out[i] = c
	}
	return out, nil
}

// Resources implements resources.MinimalProvider.
func (p *Provider) Resources() ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.names...), nil
}

// OpenBinary implements resources.MinimalProvider.
func (p *Provider) OpenBinary(name string) (io.ReadCloser, error) {
	p.mu.RLock()
	data, ok := p.data[name]
	p.mu.RUnlock()
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: p.pkg + "/" + name, Err: resources.ErrNotFound}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

var _ resources.MinimalProvider = (*Provider)(nil)
