package domain

// EntryType classifies a single output entry.
type EntryType string

// Output entry types.
const (
	EntryInfo    EntryType = "info"
	EntrySuccess EntryType = "success"
	EntryWarning EntryType = "warning"
	EntryError   EntryType = "error"
	EntryTable   EntryType = "table"
	EntryItem    EntryType = "item"
)

// Entry is one structured result produced by a builtin or module.
// Data is a string for message entries, a Table for table entries,
// and any JSON-serialisable value for item entries.
type Entry struct {
	Type EntryType `json:"type"`
	Data any       `json:"data"`
}

// Table is tabular entry data.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// InfoEntry creates an informational message entry.
func InfoEntry(msg string) Entry { return Entry{Type: EntryInfo, Data: msg} }

// SuccessEntry creates a success message entry.
func SuccessEntry(msg string) Entry { return Entry{Type: EntrySuccess, Data: msg} }

// WarningEntry creates a warning message entry.
func WarningEntry(msg string) Entry { return Entry{Type: EntryWarning, Data: msg} }

// ErrorEntry creates an error message entry.
func ErrorEntry(msg string) Entry { return Entry{Type: EntryError, Data: msg} }

// TableEntry creates a table entry.
func TableEntry(header []string, rows [][]string) Entry {
	return Entry{Type: EntryTable, Data: Table{Header: header, Rows: rows}}
}

// ItemEntry creates an entry carrying a structured value.
func ItemEntry(v any) Entry { return Entry{Type: EntryItem, Data: v} }

// Outcome is how a single statement ended.
type Outcome string

// Statement outcomes.
const (
	OutcomeSuccess         Outcome = "success"
	OutcomeUnknownCommand  Outcome = "unknown_command"
	OutcomeExecutionFailed Outcome = "execution_failed"
)

// StatementResult attributes the outcome and output of one statement.
type StatementResult struct {
	// Root is the statement's command token.
	Root string `json:"root"`

	// Args are the statement's positional arguments.
	Args []string `json:"args,omitempty"`

	// Outcome is success, unknown_command or execution_failed.
	Outcome Outcome `json:"outcome"`

	// Message describes a failure. Empty on success.
	Message string `json:"message,omitempty"`

	// Entries is the handler output, in the order it was produced.
	Entries []Entry `json:"entries"`
}

// Failed returns true if the statement did not succeed.
func (r StatementResult) Failed() bool {
	return r.Outcome != OutcomeSuccess
}

// ChainRequest is a caller's request to execute a command chain.
type ChainRequest struct {
	// Project is the project to activate. Empty means the default project.
	Project string

	// SHA256 optionally names a sample to prime the session with.
	SHA256 string

	// Command is the raw command chain.
	Command string
}

// ChainResult is the aggregated output of one chain, in statement order.
type ChainResult struct {
	// ID uniquely identifies the chain execution.
	ID string `json:"id"`

	// Project is the project active when the chain finished.
	Project string `json:"project"`

	// Sample is the sha256 of the sample open when the session was closed.
	Sample string `json:"sample,omitempty"`

	// Results holds one entry per executed statement.
	Results []StatementResult `json:"results"`
}

// Failures returns the number of statements that did not succeed.
func (r *ChainResult) Failures() int {
	n := 0
	for i := range r.Results {
		if r.Results[i].Failed() {
			n++
		}
	}
	return n
}

// OutputSink accumulates statement results for one chain.
// It only ever appends, so results stay in statement order.
type OutputSink struct {
	results []StatementResult
}

// Append adds a statement result after all previously appended ones.
func (s *OutputSink) Append(r StatementResult) {
	s.results = append(s.results, r)
}

// Len returns the number of accumulated results.
func (s *OutputSink) Len() int {
	return len(s.results)
}

// Results returns a copy of the accumulated results.
func (s *OutputSink) Results() []StatementResult {
	out := make([]StatementResult, len(s.results))
	copy(out, s.results)
	return out
}
