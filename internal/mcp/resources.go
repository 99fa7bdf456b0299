package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ResourceURIDocument is the live document as a JSON snapshot.
const ResourceURIDocument = "imagedrop://document"

func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcp.NewResource(
			ResourceURIDocument,
			"Document",
			mcp.WithResourceDescription("The live document as ops, length and selection"),
			mcp.WithMIMEType("application/json"),
		),
		s.handleReadResource,
	)
}

func (s *Server) handleReadResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	if uri != ResourceURIDocument {
		return nil, &ResourceNotFoundError{URI: uri}
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     toJSON(s.doc.Snapshot()),
		},
	}, nil
}

// ResourceNotFoundError is returned when a requested resource doesn't exist.
type ResourceNotFoundError struct {
	URI string
}

func (e *ResourceNotFoundError) Error() string {
	return "resource not found: " + e.URI
}
