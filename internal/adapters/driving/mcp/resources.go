package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for specimen resources.
const uriScheme = "specimen://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Catalog != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "commands",
			Name:        "commands",
			Description: "Builtin commands and analysis modules usable in a chain",
			MIMEType:    "application/json",
		}, s.handleCommandsResource)
	}

	if s.ports.Samples != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "projects/{project}/tags",
			Name:        "project-tags",
			Description: "Every tag used in a project",
			MIMEType:    "application/json",
		}, s.handleTagsResource)
	}
}

// handleCommandsResource lists builtins and modules.
func (s *Server) handleCommandsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, map[string]any{
		"builtins": s.ports.Catalog.Builtins(),
		"modules":  s.ports.Catalog.Modules(),
	})
}

// handleTagsResource lists the tags of one project.
func (s *Server) handleTagsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	project, ok := extractProject(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	tags, err := s.ports.Samples.ListTags(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return jsonResource(req.Params.URI, tags)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractProject extracts the project from a URI like specimen://projects/{project}/tags.
func extractProject(uri string) (string, bool) {
	const prefix = uriScheme + "projects/"
	const suffix = "/tags"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return "", false
	}
	project := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if project == "" || strings.Contains(project, "/") {
		return "", false
	}
	return project, true
}
