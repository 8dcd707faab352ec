// Package eyara scans samples with YARA rules through the yextend binary,
// which also descends into archives and reports matches per child file.
package eyara

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
	"github.com/custodia-labs/specimen/internal/modules/base"
)

// Name is the command token of the module.
const Name = "eyara"

// IndexFile is the generated rule index inside the rules directory.
const IndexFile = "index.yara"

// Header is the column layout of the match table.
var Header = []string{"Rule", "Type", "Child", "Md5"}

// Ensure Module implements the interface.
var _ driven.Module = (*Module)(nil)

// Module implements "eyara scan [-r RULE] [-a]".
type Module struct {
	base.Collector

	scanner  driven.Scanner
	rulesDir string

	rule string
	all  bool
}

// New creates an eyara module instance.
func New(scanner driven.Scanner, rulesDir string) *Module {
	return &Module{scanner: scanner, rulesDir: rulesDir}
}

// Descriptor returns the registry entry for the module.
func Descriptor(scanner driven.Scanner, rulesDir string) driven.ModuleDescriptor {
	return driven.ModuleDescriptor{
		Name:        Name,
		Description: "Yara extended parser",
		New:         func() driven.Module { return New(scanner, rulesDir) },
	}
}

// ParseArgs accepts the scan subcommand and its flags.
func (m *Module) ParseArgs(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: eyara scan [-r RULE] [-a]", domain.ErrInvalidInput)
	}
	if args[0] != "scan" {
		return fmt.Errorf("%w: unknown eyara subcommand %q", domain.ErrInvalidInput, args[0])
	}

	fs := base.NewFlagSet("eyara scan")
	fs.StringVarP(&m.rule, "rule", "r", "", "rule file (default: generated "+IndexFile+")")
	fs.BoolVarP(&m.all, "all", "a", false, "scan all stored files")
	return base.ParseFlags(fs, args[1:])
}

type target struct {
	name   string
	sha256 string
	path   string
}

// Run scans the session sample, or every stored sample when -a is given
// or no session is open. A failure on one sample is reported and the scan
// moves on to the next.
func (m *Module) Run(ctx context.Context, chain driven.Chain) error {
	if err := m.scanner.Available(); err != nil {
		return err
	}

	rules := m.rule
	if rules == "" {
		index, err := WriteRuleIndex(m.rulesDir)
		if err != nil {
			return err
		}
		rules = index
	}
	if info, err := os.Stat(rules); err != nil || info.IsDir() {
		return fmt.Errorf("%w: rule file %s", domain.ErrNotFound, rules)
	}

	targets, err := m.targets(ctx, chain)
	if err != nil {
		return err
	}

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.Info("Scanning %s (%s)", t.name, t.sha256)

		matches, err := m.scanner.Scan(ctx, rules, t.path)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			m.Error("Unable to process file: %v", err)
			continue
		}
		if len(matches) == 0 {
			continue
		}

		rows := make([][]string, 0, len(matches))
		for _, match := range matches {
			rows = append(rows, []string{match.Rule, match.Type, match.Child, match.MD5})
		}
		m.Table(Header, rows)
	}
	return nil
}

func (m *Module) targets(ctx context.Context, chain driven.Chain) ([]target, error) {
	if session := chain.Session(); session != nil && !m.all {
		return []target{{name: session.Sample.Name, sha256: session.Sample.SHA256, path: session.Path}}, nil
	}

	m.Info("Scanning all files.")
	ws := chain.Workspace()
	samples, err := ws.Database.Find(ctx, domain.SearchQuery{Key: domain.SearchAll})
	if err != nil {
		return nil, err
	}

	targets := make([]target, 0, len(samples))
	for _, s := range samples {
		path, err := ws.Repository.Path(ctx, s.SHA256)
		if err != nil {
			m.Warning("Skipping %s: %v", s.SHA256, err)
			continue
		}
		targets = append(targets, target{name: s.Name, sha256: s.SHA256, path: path})
	}
	return targets, nil
}

// WriteRuleIndex regenerates dir/index.yara so that it includes every
// .yar and .yara file in dir, and returns its path.
func WriteRuleIndex(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: rules directory %s", domain.ErrNotFound, dir)
		}
		return "", fmt.Errorf("reading rules directory: %w", err)
	}

	var includes []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == IndexFile {
			continue
		}
		if ext := filepath.Ext(name); ext != ".yar" && ext != ".yara" {
			continue
		}
		includes = append(includes, fmt.Sprintf("include %q\n", name))
	}
	sort.Strings(includes)

	index := filepath.Join(dir, IndexFile)
	if err := os.WriteFile(index, []byte(strings.Join(includes, "")), 0o600); err != nil {
		return "", fmt.Errorf("writing rule index: %w", err)
	}
	return index, nil
}
