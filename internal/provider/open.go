// Package provider builds resource providers from manifest sources.
package provider

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentic-research/resfs/api"
	"github.com/agentic-research/resfs/internal/provider/billyfs"
	"github.com/agentic-research/resfs/internal/provider/jsondoc"
	"github.com/agentic-research/resfs/internal/provider/memory"
	"github.com/agentic-research/resfs/internal/provider/sqlitedb"
	"github.com/agentic-research/resfs/internal/resources"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the provider described by src. The returned closer releases
// backend handles and must be called once the provider is no longer used.
func Open(src api.Source) (resources.MinimalProvider, io.Closer, error) {
	pkg := src.Package
	if pkg == "" {
		pkg = src.Name
	}

	switch src.Kind {
	case api.KindDir:
		p, err := billyfs.NewOS(src.Path, pkg)
		if err != nil {
			return nil, nil, fmt.Errorf("source %s: %w", src.Name, err)
		}
		return p, nopCloser{}, nil

	case api.KindSQLite:
		b, err := sqlitedb.Open(src.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("source %s: %w", src.Name, err)
		}
		p, err := b.Provider(pkg)
		if err != nil {
			_ = b.Close()
			return nil, nil, fmt.Errorf("source %s: %w", src.Name, err)
		}
		return p, b, nil

	case api.KindJSON:
		var opts []jsondoc.Option
		if src.Selector != "" {
			opts = append(opts, jsondoc.WithSelector(src.Selector))
		}
		p, err := jsondoc.Load(src.Path, pkg, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("source %s: %w", src.Name, err)
		}
		return p, nopCloser{}, nil

	case api.KindMemory:
		p := memory.New(pkg)
		for _, r := range src.Resources {
			target := p
			segs := strings.Split(r.Name, "/")
			for _, seg := range segs[:len(segs)-1] {
				target = target.Child(seg)
			}
			target.AddResource(segs[len(segs)-1], []byte(r.Content))
		}
		return p, nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("source %s: unknown kind %q", src.Name, src.Kind)
}
