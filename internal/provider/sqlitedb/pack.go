package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/agentic-research/resfs/internal/resources"
)

// PackStats summarizes a Pack run.
type PackStats struct {
	Packages  int
	Resources int
	Bytes     int64
}

// Pack writes the tree below root into a new bundle at dbPath, rooted at
// package pkg. An existing file at dbPath is replaced. All rows are written
// in one transaction.
func Pack(ctx context.Context, dbPath, pkg string, root resources.Traversable) (PackStats, error) {
	var stats PackStats
	if !root.IsDir() {
		return stats, fmt.Errorf("pack %s: root %w", pkg, resources.ErrNotADirectory)
	}
	if err := os.Remove(dbPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return stats, fmt.Errorf("remove old bundle: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return stats, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = DELETE"); err != nil {
		return stats, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return stats, fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin pack: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	pkgStmt, err := tx.PrepareContext(ctx, "INSERT INTO packages (name) VALUES (?)")
	if err != nil {
		return stats, fmt.Errorf("prepare packages insert: %w", err)
	}
	defer func() { _ = pkgStmt.Close() }()

	resStmt, err := tx.PrepareContext(ctx, "INSERT INTO resources (package, name, data) VALUES (?, ?, ?)")
	if err != nil {
		return stats, fmt.Errorf("prepare resources insert: %w", err)
	}
	defer func() { _ = resStmt.Close() }()

	err = resources.Walk(root, func(path string, node resources.Traversable, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if node.IsDir() {
			name, err := packageFor(pkg, path)
			if err != nil {
				return err
			}
			if _, err := pkgStmt.ExecContext(ctx, name); err != nil {
				return fmt.Errorf("insert package %s: %w", name, err)
			}
			stats.Packages++
			return nil
		}

		dir, file := splitPath(path)
		owner, err := packageFor(pkg, dir)
		if err != nil {
			return err
		}
		data, err := resources.ReadBytes(node)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if _, err := resStmt.ExecContext(ctx, owner, file, data); err != nil {
			return fmt.Errorf("insert resource %s: %w", path, err)
		}
		stats.Resources++
		stats.Bytes += int64(len(data))
		return nil
	})
	if err != nil {
		return stats, err
	}
	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit pack: %w", err)
	}
	return stats, nil
}

// packageFor maps a walk path of a directory to its dotted package name.
func packageFor(pkg, dir string) (string, error) {
	if dir == "." {
		return pkg, nil
	}
	segs := strings.Split(dir, "/")
	for _, s := range segs {
		if strings.Contains(s, ".") {
			return "", fmt.Errorf("directory %q cannot be a package: name contains a dot", dir)
		}
	}
	return pkg + "." + strings.Join(segs, "."), nil
}

func splitPath(p string) (dir, file string) {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return ".", p
	}
	return p[:i], p[i+1:]
}
