package api

// Manifest is the root of a resfs configuration file (HCL).
//
//	source "assets" {
//	  kind    = "dir"
//	  path    = "./assets"
//	  package = "app.assets"
//	}
type Manifest struct {
	// Sources are the named resource packages.
	Sources []Source `hcl:"source,block"`
	// NFS configures the `serve` command.
	NFS *NFS `hcl:"nfs,block"`
}

// Source describes one resource provider.
type Source struct {
	// Name identifies the source on the command line.
	Name string `hcl:"name,label"`
	// Kind selects the backend: dir, sqlite, json or memory.
	Kind string `hcl:"kind"`
	// Path to the directory, database or JSON file. Relative paths are
	// resolved against the manifest's directory.
	Path string `hcl:"path,optional"`
	// Package is the dotted package name. Defaults to Name.
	Package string `hcl:"package,optional"`
	// Selector is a JSONPath root for json sources.
	Selector string `hcl:"selector,optional"`
	// Resources are inline resources for memory sources. Names may contain
	// slashes to place them in sub-packages.
	Resources []InlineResource `hcl:"resource,block"`
}

// InlineResource is a resource whose content lives in the manifest.
type InlineResource struct {
	Name    string `hcl:"name,label"`
	Content string `hcl:"content"`
}

// NFS holds the NFS export settings.
type NFS struct {
	// Port to listen on; 0 picks an ephemeral port.
	Port int `hcl:"port,optional"`
	// Mountpoint, when set, is mounted after the server starts.
	Mountpoint string `hcl:"mountpoint,optional"`
}

// Source kinds.
const (
	KindDir    = "dir"
	KindSQLite = "sqlite"
	KindJSON   = "json"
	KindMemory = "memory"
)
