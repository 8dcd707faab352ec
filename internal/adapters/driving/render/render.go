// Package render formats command chain output for terminals.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/custodia-labs/specimen/internal/core/domain"
)

// Styles controls how entries are decorated.
type Styles struct {
	Info    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Border  lipgloss.Style
}

// DefaultStyles returns the styles used by the command line. Colours are
// dropped automatically when output is not a terminal.
func DefaultStyles() Styles {
	return Styles{
		Info:    lipgloss.NewStyle(),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Header:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:    lipgloss.NewStyle().Padding(0, 1),
		Border:  lipgloss.NewStyle(),
	}
}

// Message prefixes.
const (
	prefixInfo    = "[*] "
	prefixSuccess = "[+] "
	prefixWarning = "[!] "
	prefixError   = "[!] "
)

// Entry renders a single output entry.
func Entry(e domain.Entry, st Styles) string {
	switch e.Type {
	case domain.EntryInfo:
		return st.Info.Render(prefixInfo + text(e.Data))
	case domain.EntrySuccess:
		return st.Success.Render(prefixSuccess + text(e.Data))
	case domain.EntryWarning:
		return st.Warning.Render(prefixWarning + text(e.Data))
	case domain.EntryError:
		return st.Error.Render(prefixError + text(e.Data))
	case domain.EntryTable:
		if t, ok := e.Data.(domain.Table); ok {
			return Table(t, st)
		}
	}
	data, err := json.MarshalIndent(e.Data, "", "  ")
	if err != nil {
		return fmt.Sprint(e.Data)
	}
	return string(data)
}

// Table renders a bordered table.
func Table(t domain.Table, st Styles) string {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.Border).
		Headers(t.Header...).
		Rows(t.Rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.Header
			}
			return st.Cell
		})
	return tbl.String()
}

// Entries renders entries one per line.
func Entries(entries []domain.Entry, st Styles) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, Entry(e, st))
	}
	return strings.Join(lines, "\n")
}

// Chain writes every statement's entries in order.
func Chain(w io.Writer, res *domain.ChainResult, st Styles) error {
	for _, r := range res.Results {
		if len(r.Entries) == 0 {
			continue
		}
		if _, err := fmt.Fprintln(w, Entries(r.Entries, st)); err != nil {
			return err
		}
	}
	return nil
}

func text(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
