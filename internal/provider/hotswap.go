package provider

import (
	"io"
	"io/fs"
	"sync"

	"github.com/agentic-research/resfs/internal/resources"
)

// HotSwap is a thread-safe provider whose backend can be replaced while
// nodes wrapping it are in use. Nodes see the new backend on their next
// call, since they never snapshot listings.
type HotSwap struct {
	mu      sync.RWMutex
	current resources.MinimalProvider
}

func NewHotSwap(initial resources.MinimalProvider) *HotSwap {
	return &HotSwap{current: initial}
}

// Swap replaces the backend and returns the previous one so the caller can
// release it.
func (h *HotSwap) Swap(next resources.MinimalProvider) resources.MinimalProvider {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.current
	h.current = next
	return prev
}

// Current returns the active backend.
func (h *HotSwap) Current() resources.MinimalProvider {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Package delegates to the current backend.
func (h *HotSwap) Package() string {
	return h.Current().Package()
}

// ChildReaders delegates to the current backend.
func (h *HotSwap) ChildReaders() ([]resources.MinimalProvider, error) {
	return h.Current().ChildReaders()
}

// Resources delegates to the current backend.
func (h *HotSwap) Resources() ([]string, error) {
	return h.Current().Resources()
}

// OpenBinary delegates to the current backend.
func (h *HotSwap) OpenBinary(name string) (io.ReadCloser, error) {
	return h.Current().OpenBinary(name)
}

// ResourcePath delegates when the current backend has filesystem paths.
func (h *HotSwap) ResourcePath(name string) (string, error) {
	if pr, ok := h.Current().(resources.PathResolver); ok {
		return pr.ResourcePath(name)
	}
	return "", &fs.PathError{Op: "resource_path", Path: name, Err: resources.ErrNoFilesystemPath}
}

var (
	_ resources.MinimalProvider = (*HotSwap)(nil)
	_ resources.PathResolver    = (*HotSwap)(nil)
)
