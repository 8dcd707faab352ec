// Package fuzzy ranks stored samples by ssdeep similarity to the session
// sample.
package fuzzy

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/glaslos/ssdeep"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
	"github.com/custodia-labs/specimen/internal/modules/base"
	"github.com/custodia-labs/specimen/internal/logger"
)

// Name is the command token of the module.
const Name = "fuzzy"

// DefaultThreshold is the lowest similarity score reported.
const DefaultThreshold = 1

// Header is the column layout of the similarity table.
var Header = []string{"Score", "Name", "SHA256"}

// Ensure Module implements the interface.
var _ driven.Module = (*Module)(nil)

// Module implements "fuzzy [-t THRESHOLD]".
type Module struct {
	base.Collector

	threshold int
}

// New creates a fuzzy module instance.
func New() *Module {
	return &Module{threshold: DefaultThreshold}
}

// Descriptor returns the registry entry for the module.
func Descriptor() driven.ModuleDescriptor {
	return driven.ModuleDescriptor{
		Name:        Name,
		Description: "Search for similar samples through fuzzy hashing",
		New:         func() driven.Module { return New() },
	}
}

// ParseArgs reads the score threshold, between 0 and 100.
func (m *Module) ParseArgs(args []string) error {
	fs := base.NewFlagSet(Name)
	fs.IntVarP(&m.threshold, "threshold", "t", DefaultThreshold, "minimum similarity score (0-100)")
	if err := base.ParseFlags(fs, args); err != nil {
		return err
	}
	if m.threshold < 0 || m.threshold > 100 {
		return fmt.Errorf("%w: threshold must be between 0 and 100", domain.ErrInvalidInput)
	}
	return nil
}

type similar struct {
	score  int
	sample domain.Sample
}

// Run compares the session sample against every other stored sample.
func (m *Module) Run(ctx context.Context, chain driven.Chain) error {
	session := chain.Session()
	if session == nil {
		return domain.ErrNoSession
	}
	reference := session.Sample.SSDeep
	if reference == "" {
		m.Warning("The opened sample has no ssdeep hash")
		return nil
	}

	samples, err := chain.Workspace().Database.Find(ctx, domain.SearchQuery{Key: domain.SearchAll})
	if err != nil {
		return err
	}

	var matches []similar
	for _, s := range samples {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.SHA256 == session.Sample.SHA256 || s.SSDeep == "" {
			continue
		}
		score, err := ssdeep.Distance(reference, s.SSDeep)
		if err != nil {
			logger.Debug("comparing %s: %v", s.SHA256, err)
			continue
		}
		if score >= m.threshold && score > 0 {
			matches = append(matches, similar{score: score, sample: s})
		}
	}

	if len(matches) == 0 {
		m.Info("No similar samples found")
		return nil
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	rows := make([][]string, 0, len(matches))
	for _, match := range matches {
		rows = append(rows, []string{strconv.Itoa(match.score), match.sample.Name, match.sample.SHA256})
	}
	m.Table(Header, rows)
	return nil
}
