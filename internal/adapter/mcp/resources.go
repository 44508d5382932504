package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
)

// CatalogURI is the resource holding the tool catalog with sensitivities.
const CatalogURI = "tools://catalog"

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			CatalogURI,
			"Tool Catalog",
			mcplib.WithResourceDescription("Tools, argument schemas and confirmation sensitivity"),
			mcplib.WithMIMEType("application/json"),
		),
		handleCatalogResource,
	)
}

func handleCatalogResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	data, err := json.Marshal(tool.Catalog())
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
