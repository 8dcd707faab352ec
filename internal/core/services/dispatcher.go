package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
	"github.com/custodia-labs/specimen/internal/core/ports/driving"
	"github.com/custodia-labs/specimen/internal/logger"
)

// Ensure Dispatcher implements the interfaces.
var (
	_ driving.Dispatcher     = (*Dispatcher)(nil)
	_ driving.CommandCatalog = (*Dispatcher)(nil)
)

// Dispatcher executes command chains. Each Dispatch call owns its project
// and session state, so one Dispatcher serves concurrent callers.
type Dispatcher struct {
	catalog   driven.ProjectCatalog
	opener    driven.WorkspaceOpener
	inspector driven.FileInspector
	registry  *ModuleRegistry
	ingest    ingester

	builtins     map[string]builtin
	builtinOrder []builtin

	timeout time.Duration
	newID   func() string
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithStatementTimeout bounds the run time of every statement.
// A zero or negative duration disables the bound.
func WithStatementTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.timeout = d
	}
}

// WithIDGenerator replaces the chain ID generator.
func WithIDGenerator(fn func() string) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.newID = fn
	}
}

// NewDispatcher creates a dispatcher over the given storage and modules.
func NewDispatcher(
	catalog driven.ProjectCatalog,
	opener driven.WorkspaceOpener,
	inspector driven.FileInspector,
	registry *ModuleRegistry,
	opts ...DispatcherOption,
) *Dispatcher {
	if registry == nil {
		registry = &ModuleRegistry{modules: map[string]driven.ModuleDescriptor{}}
	}
	d := &Dispatcher{
		catalog:   catalog,
		opener:    opener,
		inspector: inspector,
		registry:  registry,
		ingest:    ingester{inspector: inspector},
		timeout:   domain.DefaultStatementTimeout,
		newID:     uuid.NewString,
	}
	d.builtinOrder = d.builtinTable()
	d.builtins = make(map[string]builtin, len(d.builtinOrder))
	for _, b := range d.builtinOrder {
		d.builtins[b.name] = b
	}
	for _, name := range registry.Names() {
		if _, clash := d.builtins[name]; clash {
			logger.Warn("module %s is shadowed by the builtin of the same name", name)
		}
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs every statement of req.Command in order. Errors returned
// come only from validating the request, opening the project or priming
// the session. Once the first statement starts, every failure is recorded
// in the result and the remaining statements still run. The session is
// always closed before Dispatch returns.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.ChainRequest) (*domain.ChainResult, error) {
	statements := domain.ParseChain(req.Command)
	if len(statements) == 0 {
		return nil, fmt.Errorf("%w: no command given", domain.ErrInvalidInput)
	}
	if req.SHA256 != "" {
		kind, err := domain.ClassifyHash(req.SHA256)
		if err != nil {
			return nil, err
		}
		if kind != domain.HashSHA256 {
			return nil, fmt.Errorf("%w: sample must be identified by sha256", domain.ErrInvalidInput)
		}
	}

	chain := newChainContext(d.newID(), d.catalog, d.opener, d.inspector)
	logger.Section("Chain " + chain.ID())

	// Project opening.
	if err := chain.SwitchProject(ctx, req.Project); err != nil {
		return nil, err
	}

	result := &domain.ChainResult{ID: chain.ID()}

	// Session closing runs however the loop ends.
	defer func() {
		if session := chain.Session(); session != nil {
			result.Sample = session.Sample.SHA256
		}
		result.Project = chain.Project().Name
		chain.CloseSession()
	}()

	// Session priming.
	primed, err := d.prime(ctx, chain, req.SHA256)
	if err != nil {
		return nil, err
	}

	// Executing.
	var sink domain.OutputSink
	primedIn := chain.Project().Name
	for _, stmt := range statements {
		// The primed sample belongs to the request project only.
		if primed != "" && chain.Project().Name != primedIn {
			primed = ""
		}
		logger.Debug("executing %q", stmt.String())
		sink.Append(d.execute(ctx, chain, stmt, primed))
	}
	result.Results = sink.Results()

	return result, nil
}

// prime opens the session on the request sample. It returns the sample's
// repository path so module statements can re-open it later in the chain.
// An unknown sample leaves the session unset.
func (d *Dispatcher) prime(ctx context.Context, chain *chainContext, sha256 string) (string, error) {
	if sha256 == "" {
		return "", nil
	}

	ws := chain.Workspace()
	if _, err := ws.Database.Get(ctx, sha256); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("sample %s not in project %s, continuing without session", sha256, ws.Project.Name)
			return "", nil
		}
		return "", err
	}

	path, err := ws.Repository.Path(ctx, sha256)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("sample %s is recorded but missing from the repository", sha256)
			return "", nil
		}
		return "", err
	}

	if err := chain.OpenSession(ctx, path); err != nil {
		return "", err
	}
	return path, nil
}

// execute resolves and runs one statement. It never returns an error;
// failures are reported in the returned result.
func (d *Dispatcher) execute(ctx context.Context, chain *chainContext, stmt domain.Statement, primed string) domain.StatementResult {
	res := domain.StatementResult{
		Root:    stmt.Root,
		Args:    stmt.Args,
		Outcome: domain.OutcomeSuccess,
	}

	var (
		entries []domain.Entry
		err     error
	)

	if b, ok := d.builtins[stmt.Root]; ok {
		err = d.guard(ctx, func(ctx context.Context) error {
			var runErr error
			entries, runErr = b.run(ctx, chain, stmt.Args)
			return runErr
		})
	} else if desc, ok := d.registry.Lookup(stmt.Root); ok {
		if primed != "" && chain.Session() == nil {
			if reErr := chain.OpenSession(ctx, primed); reErr != nil {
				logger.Warn("re-opening session for %s: %v", stmt.Root, reErr)
			}
		}
		var mod driven.Module
		err = d.guard(ctx, func(ctx context.Context) error {
			mod = desc.New()
			if err := mod.ParseArgs(stmt.Args); err != nil {
				return err
			}
			return mod.Run(ctx, chain)
		})
		entries = moduleOutput(mod)
	} else {
		res.Outcome = domain.OutcomeUnknownCommand
		res.Message = fmt.Sprintf("%s is not a valid command", stmt.Root)
		res.Entries = []domain.Entry{domain.ErrorEntry(res.Message)}
		logger.Debug("%v: %s", domain.ErrUnknownCommand, stmt.Root)
		return res
	}

	res.Entries = append(make([]domain.Entry, 0, len(entries)+1), entries...)
	if err != nil {
		res.Outcome = domain.OutcomeExecutionFailed
		res.Message = fmt.Sprintf("Unable to complete the command %s: %v", stmt.Root, err)
		res.Entries = append(res.Entries, domain.ErrorEntry(res.Message))
		logger.Debug("%v: %s", domain.ErrExecutionFailed, res.Message)
	}
	return res
}

// guard runs fn under the statement timeout and converts a panic into an
// error.
func (d *Dispatcher) guard(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrExecutionFailed, r)
		}
	}()

	err = fn(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s: %w", d.timeout, err)
	}
	return err
}

// moduleOutput collects whatever a module produced, including after a
// failure or panic.
func moduleOutput(mod driven.Module) (entries []domain.Entry) {
	if mod == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("collecting module output: %v", r)
			entries = nil
		}
	}()
	return mod.Output()
}
