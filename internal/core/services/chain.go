package services

import (
	"context"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
)

// Ensure chainContext implements the interface.
var _ driven.Chain = (*chainContext)(nil)

// chainContext is the explicit per-chain state threaded through every
// builtin and module invocation of one dispatch.
type chainContext struct {
	id      string
	project *ProjectContext
	session *SessionContext
}

func newChainContext(
	id string,
	catalog driven.ProjectCatalog,
	opener driven.WorkspaceOpener,
	inspector driven.FileInspector,
) *chainContext {
	c := &chainContext{
		id:      id,
		project: NewProjectContext(catalog, opener),
	}
	c.session = NewSessionContext(inspector, c.resolveSample)
	return c
}

// resolveSample looks a sample up in whichever project is active.
func (c *chainContext) resolveSample(ctx context.Context, sha256 string) (*domain.Sample, error) {
	ws := c.project.Workspace()
	if ws == nil {
		return nil, domain.ErrNotFound
	}
	return ws.Database.Get(ctx, sha256)
}

func (c *chainContext) ID() string { return c.id }

func (c *chainContext) Project() domain.Project {
	project, _ := c.project.Active()
	return project
}

func (c *chainContext) Workspace() *driven.Workspace {
	return c.project.Workspace()
}

func (c *chainContext) SwitchProject(ctx context.Context, name string) error {
	return c.project.Open(ctx, name)
}

func (c *chainContext) Session() *domain.SessionSample {
	return c.session.Current()
}

func (c *chainContext) OpenSession(ctx context.Context, path string) error {
	return c.session.New(ctx, path)
}

func (c *chainContext) CloseSession() {
	c.session.Close()
}
