package resources_test

import (
	"bytes"
	"io"
	"io/fs"

	"github.com/agentic-research/resfs/internal/resources"
)

// stubProvider is a MinimalProvider with injectable failures and call counters.
type stubProvider struct {
	pkg      string
	names    []string
	children []resources.MinimalProvider
	data     map[string][]byte

	resourcesErr error
	childrenErr  error
	readErr      error

	childCalls int
	opened     int
	closed     int
}

func (s *stubProvider) Package() string { return s.pkg }

func (s *stubProvider) ChildReaders() ([]resources.MinimalProvider, error) {
	s.childCalls++
	if s.childrenErr != nil {
		return nil, s.childrenErr
	}
	return s.children, nil
}

func (s *stubProvider) Resources() ([]string, error) {
	if s.resourcesErr != nil {
		return nil, s.resourcesErr
	}
	return s.names, nil
}

func (s *stubProvider) OpenBinary(name string) (io.ReadCloser, error) {
	data, ok := s.data[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: resources.ErrNotFound}
	}
	s.opened++
	return &trackedStream{r: bytes.NewReader(data), owner: s}, nil
}

type trackedStream struct {
	r     io.Reader
	owner *stubProvider
}

func (t *trackedStream) Read(p []byte) (int, error) {
	if t.owner.readErr != nil {
		return 0, t.owner.readErr
	}
	return t.r.Read(p)
}

func (t *trackedStream) Close() error {
	t.owner.closed++
	return nil
}

type entry struct {
	name  string
	isDir bool
}

func listing(t resources.Traversable) ([]entry, error) {
	var out []entry
	for child, err := range t.Iterdir() {
		if err != nil {
			return nil, err
		}
		out = append(out, entry{name: child.Name(), isDir: child.IsDir()})
	}
	return out, nil
}
