package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
	"github.com/custodia-labs/specimen/internal/core/ports/driving"
)

// builtinFunc runs one builtin statement against the chain and returns the
// entries it produced. Entries are returned even when err is non-nil.
type builtinFunc func(ctx context.Context, chain *chainContext, args []string) ([]domain.Entry, error)

type builtin struct {
	name        string
	description string
	run         builtinFunc
}

// sampleHeader is the column layout shared by every sample listing.
var sampleHeader = []string{"#", "Name", "Mime", "SHA256", "Tags"}

func (d *Dispatcher) builtinTable() []builtin {
	return []builtin{
		{"help", "Show this help message", d.runHelp},
		{"projects", "List or switch existing projects", d.runProjects},
		{"open", "Open a stored sample by md5 or sha256", d.runOpen},
		{"close", "Close the current session", d.runClose},
		{"info", "Show information on the opened sample", d.runInfo},
		{"store", "Store files in the current project", d.runStore},
		{"find", "Find samples by md5, sha256, ssdeep, tag, name, all or latest", d.runFind},
		{"tags", "Add tags to the opened sample or list all tags", d.runTags},
		{"delete", "Delete the opened sample", d.runDelete},
	}
}

// newFlagSet returns a silent flag set that reports errors instead of
// exiting.
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, fs.Name(), err)
	}
	return nil
}

func (d *Dispatcher) runHelp(_ context.Context, _ *chainContext, _ []string) ([]domain.Entry, error) {
	var rows [][]string
	for _, info := range d.Builtins() {
		rows = append(rows, []string{info.Name, info.Description})
	}
	entries := []domain.Entry{
		domain.InfoEntry("Commands"),
		domain.TableEntry([]string{"Command", "Description"}, rows),
	}

	modules := d.Modules()
	if len(modules) > 0 {
		rows = nil
		for _, info := range modules {
			rows = append(rows, []string{info.Name, info.Description})
		}
		entries = append(entries,
			domain.InfoEntry("Modules"),
			domain.TableEntry([]string{"Command", "Description"}, rows),
		)
	}
	return entries, nil
}

func (d *Dispatcher) runProjects(ctx context.Context, chain *chainContext, args []string) ([]domain.Entry, error) {
	fs := newFlagSet("projects")
	list := fs.BoolP("list", "l", false, "list all existing projects")
	switchTo := fs.StringP("switch", "s", "", "switch to the specified project")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}

	switch {
	case *list:
		projects, err := d.catalog.List(ctx)
		if err != nil {
			return nil, err
		}
		current := chain.Project().Name
		rows := make([][]string, 0, len(projects))
		for _, p := range projects {
			marker := ""
			if p.Name == current {
				marker = "Yes"
			}
			rows = append(rows, []string{p.Name, p.CreatedAt.Format(time.DateTime), marker})
		}
		return []domain.Entry{
			domain.TableEntry([]string{"Project Name", "Creation Time", "Current"}, rows),
		}, nil

	case *switchTo != "":
		name, err := domain.NormaliseProjectName(*switchTo)
		if err != nil {
			return nil, err
		}
		if _, err := d.catalog.Create(ctx, name); err != nil {
			return nil, err
		}
		previous := chain.Project().Name
		if err := chain.SwitchProject(ctx, name); err != nil {
			return nil, err
		}
		if previous != name {
			chain.CloseSession()
		}
		return []domain.Entry{domain.SuccessEntry(fmt.Sprintf("Switched to project %s", name))}, nil
	}

	return []domain.Entry{domain.InfoEntry("usage: projects [-l] [-s NAME]")}, nil
}

func (d *Dispatcher) runOpen(ctx context.Context, chain *chainContext, args []string) ([]domain.Entry, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: usage: open HASH", domain.ErrInvalidInput)
	}

	ws := chain.Workspace()
	sample, err := lookupSample(ctx, ws, args[0])
	if err != nil {
		return nil, err
	}
	path, err := ws.Repository.Path(ctx, sample.SHA256)
	if err != nil {
		return nil, err
	}
	if err := chain.OpenSession(ctx, path); err != nil {
		return nil, err
	}
	return []domain.Entry{domain.SuccessEntry(fmt.Sprintf("Session opened on %s", sample.Name))}, nil
}

func (d *Dispatcher) runClose(_ context.Context, chain *chainContext, _ []string) ([]domain.Entry, error) {
	chain.CloseSession()
	return []domain.Entry{domain.InfoEntry("Session closed")}, nil
}

func (d *Dispatcher) runInfo(_ context.Context, chain *chainContext, _ []string) ([]domain.Entry, error) {
	session := chain.Session()
	if session == nil {
		return nil, domain.ErrNoSession
	}

	s := session.Sample
	rows := [][]string{
		{"Name", s.Name},
		{"Tags", strings.Join(s.Tags, ", ")},
		{"Path", session.Path},
		{"Size", strconv.FormatInt(s.Size, 10)},
		{"Type", s.Type},
		{"MD5", s.MD5},
		{"SHA1", s.SHA1},
		{"SHA256", s.SHA256},
		{"SHA512", s.SHA512},
		{"SSdeep", s.SSDeep},
		{"CRC32", s.CRC32},
	}
	return []domain.Entry{domain.TableEntry([]string{"Key", "Value"}, rows)}, nil
}

func (d *Dispatcher) runStore(ctx context.Context, chain *chainContext, args []string) ([]domain.Entry, error) {
	fs := newFlagSet("store")
	path := fs.StringP("file", "f", "", "path to a file or directory to store")
	rawTags := fs.StringP("tags", "t", "", "comma-separated tags")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}

	target := *path
	if target == "" {
		session := chain.Session()
		if session == nil {
			return nil, fmt.Errorf("%w: specify a path with -f or open a session", domain.ErrInvalidInput)
		}
		if session.Stored {
			return []domain.Entry{domain.WarningEntry("The opened sample is already stored")}, nil
		}
		target = session.Path
	}

	stored, err := d.ingest.storeTree(ctx, chain.Workspace(), target, domain.ParseTags(*rawTags))
	entries := []domain.Entry{}
	if len(stored) > 0 {
		entries = append(entries,
			domain.SuccessEntry(fmt.Sprintf("Stored %d sample(s) in project %s", len(stored), chain.Project().Name)),
			sampleTable(stored),
		)
	}
	return entries, err
}

func (d *Dispatcher) runFind(ctx context.Context, chain *chainContext, args []string) ([]domain.Entry, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: usage: find KEY [VALUE]", domain.ErrInvalidInput)
	}
	key, err := domain.ParseSearchKey(args[0])
	if err != nil {
		return nil, err
	}
	query := domain.SearchQuery{Key: key, Value: strings.Join(args[1:], " ")}
	if query.Value == "" && key != domain.SearchAll && key != domain.SearchLatest {
		return nil, fmt.Errorf("%w: find %s needs a value", domain.ErrInvalidInput, key)
	}

	samples, err := chain.Workspace().Database.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return []domain.Entry{domain.InfoEntry("No matching samples found")}, nil
	}
	return []domain.Entry{sampleTable(samples)}, nil
}

func (d *Dispatcher) runTags(ctx context.Context, chain *chainContext, args []string) ([]domain.Entry, error) {
	fs := newFlagSet("tags")
	add := fs.StringP("add", "a", "", "comma-separated tags to add to the opened sample")
	list := fs.BoolP("list", "l", false, "list all tags")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}

	ws := chain.Workspace()
	switch {
	case *list:
		tags, err := ws.Database.ListTags(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([][]string, 0, len(tags))
		for _, t := range tags {
			rows = append(rows, []string{t})
		}
		return []domain.Entry{domain.TableEntry([]string{"Tag"}, rows)}, nil

	case *add != "":
		session, err := storedSession(chain)
		if err != nil {
			return nil, err
		}
		tags := domain.ParseTags(*add)
		if err := ws.Database.AddTags(ctx, session.Sample.SHA256, tags); err != nil {
			return nil, err
		}
		session.Sample.Tags = domain.UnionTags(session.Sample.Tags, tags)
		return []domain.Entry{domain.SuccessEntry("Tags added to the opened sample")}, nil
	}

	return []domain.Entry{domain.InfoEntry("usage: tags [-a TAGS] [-l]")}, nil
}

func (d *Dispatcher) runDelete(ctx context.Context, chain *chainContext, _ []string) ([]domain.Entry, error) {
	session, err := storedSession(chain)
	if err != nil {
		return nil, err
	}

	ws := chain.Workspace()
	sha := session.Sample.SHA256
	if err := ws.Database.Delete(ctx, sha); err != nil {
		return nil, err
	}
	if err := ws.Repository.Delete(ctx, sha); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	chain.CloseSession()
	return []domain.Entry{domain.SuccessEntry(fmt.Sprintf("Deleted sample %s", sha))}, nil
}

// storedSession returns the session sample if it is recorded in the
// active project.
func storedSession(chain driven.Chain) (*domain.SessionSample, error) {
	session := chain.Session()
	if session == nil {
		return nil, domain.ErrNoSession
	}
	if !session.Stored {
		return nil, fmt.Errorf("%w: the opened sample is not stored", domain.ErrNotFound)
	}
	return session, nil
}

func sampleTable(samples []domain.Sample) domain.Entry {
	rows := make([][]string, 0, len(samples))
	for i, s := range samples {
		rows = append(rows, []string{
			strconv.Itoa(i + 1), s.Name, s.Type, s.SHA256, strings.Join(s.Tags, ", "),
		})
	}
	return domain.TableEntry(sampleHeader, rows)
}

// Builtins returns the builtin commands in help order.
func (d *Dispatcher) Builtins() []driving.CommandInfo {
	out := make([]driving.CommandInfo, 0, len(d.builtinOrder))
	for _, b := range d.builtinOrder {
		out = append(out, driving.CommandInfo{Name: b.name, Description: b.description})
	}
	return out
}

// Modules returns the registered modules sorted by token.
func (d *Dispatcher) Modules() []driving.CommandInfo {
	descs := d.registry.List()
	out := make([]driving.CommandInfo, 0, len(descs))
	for _, desc := range descs {
		out = append(out, driving.CommandInfo{Name: desc.Name, Description: desc.Description})
	}
	return out
}
