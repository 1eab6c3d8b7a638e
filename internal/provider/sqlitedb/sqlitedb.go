// Package sqlitedb stores package resources in a single SQLite file.
//
// Schema:
//
//	packages(name TEXT PRIMARY KEY)
//	resources(package TEXT, name TEXT, data BLOB, PRIMARY KEY(package, name))
//
// Sub-packages are the immediate dotted descendants of a package name, so
// "app.assets.css" is a child of "app.assets".
package sqlitedb

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/agentic-research/resfs/internal/resources"
)

const schema = `
CREATE TABLE IF NOT EXISTS packages (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS resources (
	package TEXT NOT NULL,
	name TEXT NOT NULL,
	data BLOB,
	PRIMARY KEY (package, name)
) WITHOUT ROWID;
`

// Bundle is an open resource database.
type Bundle struct {
	db   *sql.DB
	path string
}

// Open opens an existing bundle read-only.
func Open(dbPath string) (*Bundle, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	return &Bundle{db: db, path: dbPath}, nil
}

// Close closes the database.
func (b *Bundle) Close() error {
	return b.db.Close()
}

// Packages lists every package stored in the bundle.
func (b *Bundle) Packages() ([]string, error) {
	return b.queryNames("SELECT name FROM packages ORDER BY name")
}

// Provider returns the provider for pkg. The package must exist.
func (b *Bundle) Provider(pkg string) (*Provider, error) {
	var found string
	err := b.db.QueryRow("SELECT name FROM packages WHERE name = ?", pkg).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &fs.PathError{Op: "open", Path: b.path + "#" + pkg, Err: resources.ErrNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("lookup package %s: %w", pkg, err)
	}
	return &Provider{bundle: b, pkg: pkg}, nil
}

func (b *Bundle) queryNames(query string, args ...any) ([]string, error) {
	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Provider is one package of a bundle. Every call queries the database.
type Provider struct {
	bundle *Bundle
	pkg    string
}

// Package implements resources.MinimalProvider.
func (p *Provider) Package() string { return p.pkg }

// Resources implements resources.MinimalProvider.
func (p *Provider) Resources() ([]string, error) {
	names, err := p.bundle.queryNames(
		"SELECT name FROM resources WHERE package = ? ORDER BY name", p.pkg)
	if err != nil {
		return nil, fmt.Errorf("list resources of %s: %w", p.pkg, err)
	}
	return names, nil
}

// ChildReaders implements resources.MinimalProvider.
func (p *Provider) ChildReaders() ([]resources.MinimalProvider, error) {
	prefix := p.pkg + "."
	// substr and length count characters, not bytes, on TEXT values.
	names, err := p.bundle.queryNames(
		"SELECT name FROM packages WHERE substr(name, 1, length(?)) = ? ORDER BY name",
		prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("list sub-packages of %s: %w", p.pkg, err)
	}

	var children []resources.MinimalProvider
	for _, name := range names {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}
		if rest == "" || strings.Contains(rest, ".") {
			continue
		}
		children = append(children, &Provider{bundle: p.bundle, pkg: name})
	}
	return children, nil
}

// OpenBinary implements resources.MinimalProvider.
func (p *Provider) OpenBinary(name string) (io.ReadCloser, error) {
	var data []byte
	err := p.bundle.db.QueryRow(
		"SELECT data FROM resources WHERE package = ? AND name = ?", p.pkg, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &fs.PathError{Op: "open", Path: p.pkg + "/" + name, Err: resources.ErrNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("read resource %s/%s: %w", p.pkg, name, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

var _ resources.MinimalProvider = (*Provider)(nil)
