package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/specimen/internal/core/domain"
)

func TestExtractProject(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		project string
		ok      bool
	}{
		{name: "valid", uri: "specimen://projects/apt28/tags", project: "apt28", ok: true},
		{name: "wrong scheme", uri: "file://projects/apt28/tags"},
		{name: "missing suffix", uri: "specimen://projects/apt28"},
		{name: "empty project", uri: "specimen://projects//tags"},
		{name: "nested", uri: "specimen://projects/a/b/tags"},
		{name: "empty", uri: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, ok := extractProject(tt.uri)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.project, project)
		})
	}
}

func TestServer_handleTagsResource(t *testing.T) {
	ctx := context.Background()
	samples := &mockSampleService{tags: []string{"apt", "dropper"}}
	server, err := NewServer(&Ports{Dispatcher: &mockDispatcher{}, Samples: samples})
	require.NoError(t, err)

	uri := "specimen://projects/apt28/tags"
	result, err := server.handleTagsResource(ctx, &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	})

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "apt28", samples.gotTagsOf)
	var tags []string
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &tags))
	assert.Equal(t, []string{"apt", "dropper"}, tags)

	_, err = server.handleTagsResource(ctx, &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: "specimen://elsewhere"},
	})
	assert.Error(t, err)

	samples.err = domain.ErrNotFound
	_, err = server.handleTagsResource(ctx, &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServer_handleCommandsResource(t *testing.T) {
	server, err := NewServer(&Ports{Dispatcher: &mockDispatcher{}, Catalog: mockCatalog{}})
	require.NoError(t, err)

	result, err := server.handleCommandsResource(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: "specimen://commands"},
	})

	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, `"strings"`)
	assert.Contains(t, result.Contents[0].Text, `"builtins"`)
}
