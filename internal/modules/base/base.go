// Package base holds the pieces every analysis module shares: an entry
// collector and silent flag parsing.
package base

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/custodia-labs/specimen/internal/core/domain"
)

// Collector gathers the entries a module emits while it runs. Embed it to
// satisfy the Output method of driven.Module.
type Collector struct {
	entries []domain.Entry
}

// Info appends an informational line.
func (o *Collector) Info(format string, args ...any) {
	o.entries = append(o.entries, domain.InfoEntry(fmt.Sprintf(format, args...)))
}

// Success appends a success line.
func (o *Collector) Success(format string, args ...any) {
	o.entries = append(o.entries, domain.SuccessEntry(fmt.Sprintf(format, args...)))
}

// Warning appends a warning line.
func (o *Collector) Warning(format string, args ...any) {
	o.entries = append(o.entries, domain.WarningEntry(fmt.Sprintf(format, args...)))
}

// Error appends an error line. The module keeps running.
func (o *Collector) Error(format string, args ...any) {
	o.entries = append(o.entries, domain.ErrorEntry(fmt.Sprintf(format, args...)))
}

// Table appends a table.
func (o *Collector) Table(header []string, rows [][]string) {
	o.entries = append(o.entries, domain.TableEntry(header, rows))
}

// Output returns everything collected so far.
func (o *Collector) Output() []domain.Entry {
	return o.entries
}

// NewFlagSet returns a flag set that reports errors instead of printing
// usage or exiting.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// ParseFlags parses args and wraps failures as domain.ErrInvalidInput.
func ParseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, fs.Name(), err)
	}
	return nil
}
