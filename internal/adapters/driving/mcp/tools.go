package mcp

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/specimen/internal/core/domain"
)

// errNoSampleService is returned by sample tools when no sample service was wired.
var errNoSampleService = errors.New("mcp: sample service not configured")

// RunChainInput is the input schema for the run_chain tool.
type RunChainInput struct {
	Command string `json:"command" jsonschema:"semicolon separated command chain, e.g. 'info; strings -n 8'"`
	Project string `json:"project,omitempty" jsonschema:"project to open (default project when empty)"`
	SHA256  string `json:"sha256,omitempty" jsonschema:"sha256 of the sample to open before the chain runs"`
}

// RunChainOutput is the output schema for the run_chain tool.
type RunChainOutput struct {
	ID       string                   `json:"id"`
	Project  string                   `json:"project"`
	Sample   string                   `json:"sample,omitempty"`
	Failures int                      `json:"failures"`
	Results  []domain.StatementResult `json:"results"`
}

// FindSamplesInput is the input schema for the find_samples tool.
type FindSamplesInput struct {
	Key     string `json:"key" jsonschema:"one of md5, sha256, ssdeep, tag, name, all, latest"`
	Value   string `json:"value,omitempty" jsonschema:"search term; for latest the number of samples"`
	Project string `json:"project,omitempty" jsonschema:"project to search, 'all' for every project"`
}

// FindSamplesOutput is the output schema for the find_samples tool.
type FindSamplesOutput struct {
	Projects []ProjectSamples `json:"projects"`
	Count    int              `json:"count"`
}

// ProjectSamples groups search hits by project.
type ProjectSamples struct {
	Project string         `json:"project"`
	Samples []SampleOutput `json:"samples"`
}

// SampleOutput is a sample record as reported to the assistant.
type SampleOutput struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Size      int64    `json:"size"`
	MD5       string   `json:"md5"`
	SHA1      string   `json:"sha1"`
	SHA256    string   `json:"sha256"`
	SSDeep    string   `json:"ssdeep,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"created_at"`
}

// ListProjectsInput is the (empty) input schema for the list_projects tool.
type ListProjectsInput struct{}

// ListProjectsOutput is the output schema for the list_projects tool.
type ListProjectsOutput struct {
	Projects []ProjectOutput `json:"projects"`
}

// ProjectOutput describes one project.
type ProjectOutput struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	CreatedAt string `json:"created_at"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "run_chain",
		Description: "Run a semicolon separated chain of specimen commands and analysis modules",
	}, s.handleRunChain)

	if s.ports.Samples != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "find_samples",
			Description: "Search stored malware samples by hash, fuzzy hash, tag or name",
		}, s.handleFindSamples)
	}

	if s.ports.Projects != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_projects",
			Description: "List sample projects",
		}, s.handleListProjects)
	}
}

func (s *Server) handleRunChain(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunChainInput,
) (*mcp.CallToolResult, RunChainOutput, error) {
	result, err := s.ports.Dispatcher.Dispatch(ctx, domain.ChainRequest{
		Project: input.Project,
		SHA256:  input.SHA256,
		Command: input.Command,
	})
	if err != nil {
		return nil, RunChainOutput{}, err
	}

	return nil, RunChainOutput{
		ID:       result.ID,
		Project:  result.Project,
		Sample:   result.Sample,
		Failures: result.Failures(),
		Results:  result.Results,
	}, nil
}

func (s *Server) handleFindSamples(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindSamplesInput,
) (*mcp.CallToolResult, FindSamplesOutput, error) {
	if s.ports.Samples == nil {
		return nil, FindSamplesOutput{}, errNoSampleService
	}
	key, err := domain.ParseSearchKey(input.Key)
	if err != nil {
		return nil, FindSamplesOutput{}, err
	}

	found, err := s.ports.Samples.Find(ctx, input.Project, domain.SearchQuery{Key: key, Value: input.Value})
	if err != nil {
		return nil, FindSamplesOutput{}, err
	}

	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)

	output := FindSamplesOutput{Projects: make([]ProjectSamples, 0, len(names))}
	for _, name := range names {
		group := ProjectSamples{Project: name, Samples: make([]SampleOutput, 0, len(found[name]))}
		for i := range found[name] {
			group.Samples = append(group.Samples, toSampleOutput(&found[name][i]))
		}
		output.Count += len(group.Samples)
		output.Projects = append(output.Projects, group)
	}
	return nil, output, nil
}

func (s *Server) handleListProjects(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListProjectsInput,
) (*mcp.CallToolResult, ListProjectsOutput, error) {
	projects, err := s.ports.Projects.List(ctx)
	if err != nil {
		return nil, ListProjectsOutput{}, err
	}

	output := ListProjectsOutput{Projects: make([]ProjectOutput, len(projects))}
	for i, p := range projects {
		output.Projects[i] = ProjectOutput{
			Name:      p.Name,
			Path:      p.Path,
			CreatedAt: formatTime(p.CreatedAt),
		}
	}
	return nil, output, nil
}

func toSampleOutput(s *domain.Sample) SampleOutput {
	return SampleOutput{
		Name:      s.Name,
		Type:      s.Type,
		Size:      s.Size,
		MD5:       s.MD5,
		SHA1:      s.SHA1,
		SHA256:    s.SHA256,
		SSDeep:    s.SSDeep,
		Tags:      s.Tags,
		CreatedAt: formatTime(s.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
