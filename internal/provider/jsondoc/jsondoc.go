// Package jsondoc projects a JSON document as a package tree.
//
// Objects are packages. Every other member is a resource: strings are served
// as their raw text, everything else as JSON. Object members whose key
// contains a dot cannot be named as sub-packages and are served as JSON
// resources instead.
package jsondoc

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/resfs/internal/resources"
)

// Option configures Parse and Load.
type Option func(*options)

type options struct {
	selector string
}

// WithSelector roots the tree at the first match of a JSONPath expression.
// The match must be an object.
func WithSelector(expr string) Option {
	return func(o *options) { o.selector = expr }
}

// Provider is one JSON object.
type Provider struct {
	pkg string
	obj map[string]any
}

// Parse parses data and returns the provider for its root object.
func Parse(data []byte, pkg string, opts ...Option) (*Provider, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	doc, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	if o.selector != "" {
		x, err := jp.ParseString(o.selector)
		if err != nil {
			return nil, fmt.Errorf("invalid jsonpath '%s': %w", o.selector, err)
		}
		matches := x.Get(doc)
		if len(matches) == 0 {
			return nil, &fs.PathError{Op: "select", Path: o.selector, Err: resources.ErrNotFound}
		}
		doc = matches[0]
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("json root for %s is %T, want an object", pkg, doc)
	}
	return &Provider{pkg: pkg, obj: obj}, nil
}

// Load reads and parses a JSON file.
func Load(path, pkg string, opts ...Option) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, pkg, opts...)
}

// Package implements resources.MinimalProvider.
func (p *Provider) Package() string { return p.pkg }

func (p *Provider) isPackage(key string) bool {
	_, isObj := p.obj[key].(map[string]any)
	return isObj && !strings.Contains(key, ".")
}

func (p *Provider) sortedKeys() []string {
	keys := make([]string, 0, len(p.obj))
	for k := range p.obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Resources implements resources.MinimalProvider.
func (p *Provider) Resources() ([]string, error) {
	var names []string
	for _, k := range p.sortedKeys() {
		if !p.isPackage(k) {
			names = append(names, k)
		}
	}
	return names, nil
}

// ChildReaders implements resources.MinimalProvider.
func (p *Provider) ChildReaders() ([]resources.MinimalProvider, error) {
	var children []resources.MinimalProvider
	for _, k := range p.sortedKeys() {
		if p.isPackage(k) {
			children = append(children, &Provider{
				pkg: p.pkg + "." + k,
				obj: p.obj[k].(map[string]any),
			})
		}
	}
	return children, nil
}

// OpenBinary implements resources.MinimalProvider.
func (p *Provider) OpenBinary(name string) (io.ReadCloser, error) {
	v, ok := p.obj[name]
	if !ok || p.isPackage(name) {
		return nil, &fs.PathError{Op: "open", Path: p.pkg + "/" + name, Err: resources.ErrNotFound}
	}
	return io.NopCloser(bytes.NewReader(encode(v))), nil
}

func encode(v any) []byte {
	if s, ok := v.(string); ok {
		return []byte(s)
	}
	return []byte(oj.JSON(v, &oj.Options{Sort: true}))
}

var _ resources.MinimalProvider = (*Provider)(nil)
