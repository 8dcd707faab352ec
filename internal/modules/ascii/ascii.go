// Package ascii extracts printable ASCII strings from a sample.
package ascii

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
	"github.com/custodia-labs/specimen/internal/modules/base"
)

// Name is the command token of the module.
const Name = "strings"

// Defaults for the extraction flags.
const (
	DefaultMinLength = 4
	DefaultLimit     = 200
)

// Ensure Module implements the interface.
var _ driven.Module = (*Module)(nil)

// Module implements "strings [-n MIN] [-l LIMIT]".
type Module struct {
	base.Collector

	minLength int
	limit     int
}

// New creates a strings module instance.
func New() *Module {
	return &Module{minLength: DefaultMinLength, limit: DefaultLimit}
}

// Descriptor returns the registry entry for the module.
func Descriptor() driven.ModuleDescriptor {
	return driven.ModuleDescriptor{
		Name:        Name,
		Description: "Extract printable strings from the opened sample",
		New:         func() driven.Module { return New() },
	}
}

// ParseArgs reads the minimum string length and the output limit.
// A limit of zero prints every string.
func (m *Module) ParseArgs(args []string) error {
	fs := base.NewFlagSet(Name)
	fs.IntVarP(&m.minLength, "min", "n", DefaultMinLength, "minimum string length")
	fs.IntVarP(&m.limit, "limit", "l", DefaultLimit, "maximum strings to print (0 for all)")
	if err := base.ParseFlags(fs, args); err != nil {
		return err
	}
	if m.minLength < 1 {
		return fmt.Errorf("%w: minimum length must be positive", domain.ErrInvalidInput)
	}
	if m.limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

// Run lists the strings of the session sample with their file offsets.
func (m *Module) Run(ctx context.Context, chain driven.Chain) error {
	session := chain.Session()
	if session == nil {
		return domain.ErrNoSession
	}

	f, err := os.Open(session.Path)
	if err != nil {
		return fmt.Errorf("opening sample: %w", err)
	}
	defer f.Close()

	found, err := Extract(ctx, f, m.minLength, m.limit)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		m.Info("No strings found")
		return nil
	}

	rows := make([][]string, 0, len(found))
	for _, s := range found {
		rows = append(rows, []string{fmt.Sprintf("0x%08x", s.Offset), s.Text})
	}
	m.Table([]string{"Offset", "String"}, rows)
	if m.limit > 0 && len(found) == m.limit {
		m.Info("Output limited to %d strings", m.limit)
	}
	return nil
}

// Match is one printable run and where it starts.
type Match struct {
	Offset int64
	Text   string
}

func printable(b byte) bool {
	return b == '\t' || (b >= 0x20 && b <= 0x7e)
}

// Extract returns runs of at least minLength printable ASCII bytes, up to
// limit runs (0 for no limit).
func Extract(ctx context.Context, r io.Reader, minLength, limit int) ([]Match, error) {
	br := bufio.NewReader(r)
	var (
		out    []Match
		run    []byte
		start  int64
		offset int64
	)

	flush := func() {
		if len(run) >= minLength {
			out = append(out, Match{Offset: start, Text: string(run)})
		}
		run = run[:0]
	}

	for {
		if offset%65536 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading sample: %w", err)
		}

		if printable(b) {
			if len(run) == 0 {
				start = offset
			}
			run = append(run, b)
		} else {
			flush()
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		offset++
	}
	flush()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
