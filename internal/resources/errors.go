package resources

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound is returned when a resource or child name does not exist.
	ErrNotFound = fmt.Errorf("resource not found: %w", fs.ErrNotExist)

	// ErrIsADirectory is returned when a read is attempted on a container node.
	ErrIsADirectory = errors.New("is a directory")

	// ErrNotADirectory is returned when children are requested from a file node.
	ErrNotADirectory = errors.New("not a directory")

	// ErrNoFilesystemPath is returned by ResourcePath for providers without
	// an on-disk representation. It is a special case of ErrNotFound.
	ErrNoFilesystemPath = fmt.Errorf("no filesystem path: %w", ErrNotFound)

	// ErrUndecodable is returned by text reads when the content is not valid
	// in the selected encoding.
	ErrUndecodable = errors.New("undecodable text")

	// ErrInvalidMode is returned by Open for modes other than "r", "rt" and "rb".
	ErrInvalidMode = errors.New("invalid open mode")
)

func pathError(op, path string, err error) error {
	return &fs.PathError{Op: op, Path: path, Err: err}
}
