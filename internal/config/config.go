// Package config loads the HCL manifest that names resfs sources.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/agentic-research/resfs/api"
)

// ErrUnknownSource is returned by Source when no source has the given name.
var ErrUnknownSource = errors.New("unknown source")

// Load decodes and validates the manifest at path. Relative source paths are
// resolved against the manifest's directory.
func Load(path string) (*api.Manifest, error) {
	var m api.Manifest
	if err := hclsimple.DecodeFile(path, nil, &m); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i := range m.Sources {
		s := &m.Sources[i]
		if s.Path != "" && !filepath.IsAbs(s.Path) {
			s.Path = filepath.Join(base, s.Path)
		}
	}
	if err := Validate(&m); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &m, nil
}

// Default returns a manifest with a single directory source.
func Default(dir, pkg string) *api.Manifest {
	if pkg == "" {
		pkg = filepath.Base(dir)
	}
	return &api.Manifest{
		Sources: []api.Source{{
			Name:    pkg,
			Kind:    api.KindDir,
			Path:    dir,
			Package: pkg,
		}},
	}
}

// Validate checks kinds, required fields, package names and name uniqueness,
// and fills in default package names.
func Validate(m *api.Manifest) error {
	seen := make(map[string]struct{}, len(m.Sources))
	for i := range m.Sources {
		s := &m.Sources[i]
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("source %q: defined more than once", s.Name)
		}
		seen[s.Name] = struct{}{}

		if s.Package == "" {
			s.Package = s.Name
		}
		if err := validPackage(s.Package); err != nil {
			return fmt.Errorf("source %q: %w", s.Name, err)
		}

		switch s.Kind {
		case api.KindDir, api.KindSQLite, api.KindJSON:
			if s.Path == "" {
				return fmt.Errorf("source %q: kind %q requires a path", s.Name, s.Kind)
			}
		case api.KindMemory:
		default:
			return fmt.Errorf("source %q: unknown kind %q (want dir, sqlite, json or memory)", s.Name, s.Kind)
		}
		if s.Selector != "" && s.Kind != api.KindJSON {
			return fmt.Errorf("source %q: selector only applies to json sources", s.Name)
		}
		if len(s.Resources) > 0 && s.Kind != api.KindMemory {
			return fmt.Errorf("source %q: inline resources only apply to memory sources", s.Name)
		}
	}
	if m.NFS != nil && (m.NFS.Port < 0 || m.NFS.Port > 65535) {
		return fmt.Errorf("nfs: port %d out of range", m.NFS.Port)
	}
	return nil
}

func validPackage(pkg string) error {
	for _, seg := range strings.Split(pkg, ".") {
		if seg == "" || strings.ContainsAny(seg, "/\\") {
			return fmt.Errorf("invalid package name %q", pkg)
		}
	}
	return nil
}

// Source returns the source called name. An empty name selects the only
// source of a single-source manifest.
func Source(m *api.Manifest, name string) (api.Source, error) {
	if name == "" {
		if len(m.Sources) == 1 {
			return m.Sources[0], nil
		}
		return api.Source{}, fmt.Errorf("%d sources configured, pick one with --source", len(m.Sources))
	}
	for _, s := range m.Sources {
		if s.Name == name {
			return s, nil
		}
	}
	return api.Source{}, fmt.Errorf("%w %q", ErrUnknownSource, name)
}
