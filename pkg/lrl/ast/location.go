package ast

import "fmt"

// Location is the source position of an AST node in the rule document.
// It enables precise error reporting with file, line, and column.
type Location struct {
	File   string // Path to the rule file (or a synthetic name for in-memory documents)
	Line   int    // Line number (1-based)
	Column int    // Column number (1-based)
}

// String returns the location as "file:line:column".
func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// IsValid reports whether the location carries usable file and line
// information.
func (l Location) IsValid() bool {
	return l.File != "" && l.Line > 0
}
