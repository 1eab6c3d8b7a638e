// Package mcpserve exposes a resource tree to MCP clients as read-only tools.
package mcpserve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentic-research/resfs/internal/resources"
)

// Server answers list_resources, read_resource and is_resource calls against
// a Traversable root. Paths are slash-separated and relative to the root.
type Server struct {
	root   resources.Traversable
	logger *log.Logger
	mcp    *server.MCPServer
}

// New registers the resource tools on a fresh MCP server.
func New(root resources.Traversable, version string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		root:   root,
		logger: logger,
		mcp:    server.NewMCPServer("resfs", version, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool("list_resources",
		mcp.WithDescription("List the entries of a package. Sub-packages end with a slash."),
		mcp.WithString("path", mcp.Description("Package path relative to the root; empty for the root")),
	), s.handleList)

	s.mcp.AddTool(mcp.NewTool("read_resource",
		mcp.WithDescription("Read a resource as text."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Resource path relative to the root")),
		mcp.WithString("encoding", mcp.Description("Text encoding label such as utf-8 or latin1; defaults to utf-8")),
	), s.handleRead)

	s.mcp.AddTool(mcp.NewTool("is_resource",
		mcp.WithDescription("Report whether a path names a resource rather than a package."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the root")),
	), s.handleIsResource)

	return s
}

// MCPServer returns the underlying server for alternative transports.
func (s *Server) MCPServer() *server.MCPServer { return s.mcp }

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP over stdio")
	return server.ServeStdio(s.mcp)
}

// flat returns the flat reader for the package at dir.
func (s *Server) flat(dir string) (*resources.TraversableResources, error) {
	node, err := resources.Resolve(s.root, dir)
	if err != nil {
		return nil, err
	}
	if !node.IsDir() {
		return nil, &fs.PathError{Op: "list", Path: dir, Err: resources.ErrNotADirectory}
	}
	return resources.NewTraversableResources(resources.FilesFunc(func() resources.Traversable { return node })), nil
}

func (s *Server) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := req.GetString("path", "")
	reader, err := s.flat(dir)
	if err != nil {
		return s.toolError("list_resources", dir, err), nil
	}
	names, err := reader.Contents()
	if err != nil {
		return s.toolError("list_resources", dir, err), nil
	}

	var b strings.Builder
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		isFile, err := reader.IsResource(name)
		if err != nil {
			return s.toolError("list_resources", dir, err), nil
		}
		b.WriteString(name)
		if !isFile {
			b.WriteByte('/')
		}
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	node, err := resources.Resolve(s.root, p)
	if err != nil {
		return s.toolError("read_resource", p, err), nil
	}
	text, err := resources.ReadText(node, req.GetString("encoding", ""))
	if err != nil {
		return s.toolError("read_resource", p, err), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleIsResource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir, name := path.Split(strings.Trim(p, "/"))
	if name == "" {
		return mcp.NewToolResultText("false"), nil
	}
	reader, err := s.flat(dir)
	if errors.Is(err, resources.ErrNotFound) || errors.Is(err, resources.ErrNotADirectory) {
		return mcp.NewToolResultText("false"), nil
	}
	if err != nil {
		return s.toolError("is_resource", p, err), nil
	}
	ok, err := reader.IsResource(name)
	if err != nil {
		return s.toolError("is_resource", p, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprint(ok)), nil
}

func (s *Server) toolError(tool, p string, err error) *mcp.CallToolResult {
	s.logger.Debug("tool call failed", "tool", tool, "path", p, "error", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s %q: %v", tool, p, err))
}
