package mcp

import (
	"context"
	"io"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driving"
)

// mockDispatcher is a mock implementation of driving.Dispatcher.
type mockDispatcher struct {
	result *domain.ChainResult
	err    error
	got    domain.ChainRequest
}

func (m *mockDispatcher) Dispatch(_ context.Context, req domain.ChainRequest) (*domain.ChainResult, error) {
	m.got = req
	return m.result, m.err
}

// mockSampleService is a mock implementation of driving.SampleService.
type mockSampleService struct {
	found     map[string][]domain.Sample
	tags      []string
	err       error
	gotScope  string
	gotQuery  domain.SearchQuery
	gotTagsOf string
}

func (m *mockSampleService) Store(context.Context, string, string, io.Reader, []string) (*domain.Sample, error) {
	return nil, m.err
}

func (m *mockSampleService) StoreFile(context.Context, string, string, []string) ([]domain.Sample, error) {
	return nil, m.err
}

func (m *mockSampleService) Get(context.Context, string, string) (*domain.Sample, error) {
	return nil, m.err
}

func (m *mockSampleService) Open(context.Context, string, string) (io.ReadCloser, *domain.Sample, error) {
	return nil, nil, m.err
}

func (m *mockSampleService) Delete(context.Context, string, string) error {
	return m.err
}

func (m *mockSampleService) Find(_ context.Context, scope string, q domain.SearchQuery) (map[string][]domain.Sample, error) {
	m.gotScope, m.gotQuery = scope, q
	return m.found, m.err
}

func (m *mockSampleService) AddTags(context.Context, string, domain.SearchQuery, []string) (int, error) {
	return 0, m.err
}

func (m *mockSampleService) ListTags(_ context.Context, project string) ([]string, error) {
	m.gotTagsOf = project
	return m.tags, m.err
}

// mockProjectService is a mock implementation of driving.ProjectService.
type mockProjectService struct {
	projects []domain.Project
	err      error
}

func (m *mockProjectService) List(context.Context) ([]domain.Project, error) {
	return m.projects, m.err
}

func (m *mockProjectService) Create(_ context.Context, name string) (*domain.Project, error) {
	return &domain.Project{Name: name}, m.err
}

// mockCatalog is a mock implementation of driving.CommandCatalog.
type mockCatalog struct{}

func (mockCatalog) Builtins() []driving.CommandInfo {
	return []driving.CommandInfo{{Name: "info", Description: "Show information on the opened file"}}
}

func (mockCatalog) Modules() []driving.CommandInfo {
	return []driving.CommandInfo{{Name: "strings", Description: "Extract printable strings"}}
}
