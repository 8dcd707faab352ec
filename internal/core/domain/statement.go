package domain

import "strings"

// StatementSeparator separates statements in a command chain.
const StatementSeparator = ";"

// Statement is one parsed unit of a command chain.
type Statement struct {
	// Root is the command token.
	Root string

	// Args are the remaining whitespace-separated tokens, passed through unparsed.
	Args []string
}

// ParseChain splits a raw command string into statements.
// Chunks are split on ';', trimmed, and dropped when empty. There is no
// quoting or escaping; interpretation of arguments is left to the handler.
func ParseChain(raw string) []Statement {
	var statements []Statement
	for _, chunk := range strings.Split(raw, StatementSeparator) {
		words := strings.Fields(chunk)
		if len(words) == 0 {
			continue
		}
		stmt := Statement{Root: words[0]}
		if len(words) > 1 {
			stmt.Args = words[1:]
		}
		statements = append(statements, stmt)
	}
	return statements
}

// String renders the statement back into command form.
func (s Statement) String() string {
	if len(s.Args) == 0 {
		return s.Root
	}
	return s.Root + " " + strings.Join(s.Args, " ")
}
