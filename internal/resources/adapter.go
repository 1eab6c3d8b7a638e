package resources

// ProviderReader layers both adapters on a MinimalProvider: Files wraps the
// provider in a DirectoryNode, and the embedded TraversableResources derives
// the flat reader contract from that tree.
type ProviderReader struct {
	*TraversableResources
	provider MinimalProvider
}

// NewProviderReader returns the Traversable and flat views of p.
func NewProviderReader(p MinimalProvider) *ProviderReader {
	r := &ProviderReader{provider: p}
	r.TraversableResources = NewTraversableResources(r)
	return r
}

// Provider returns the wrapped provider.
func (r *ProviderReader) Provider() MinimalProvider { return r.provider }

// Files returns a fresh DirectoryNode over the provider.
func (r *ProviderReader) Files() Traversable {
	return NewDirectoryNode(r.provider)
}

// ResourcePath delegates to the provider when it can map resources to real
// paths and fails with ErrNoFilesystemPath otherwise.
func (r *ProviderReader) ResourcePath(name string) (string, error) {
	if pr, ok := r.provider.(PathResolver); ok {
		return pr.ResourcePath(name)
	}
	return "", pathError("resource_path", name, ErrNoFilesystemPath)
}

var (
	_ FlatResourceReader = (*ProviderReader)(nil)
	_ FilesSource        = (*ProviderReader)(nil)
)
