package ast

import "fmt"

// Position represents a location in the source code.
type Position struct {
	Line   int `json:"line" yaml:"line"`     // 1-based line number
	Column int `json:"column" yaml:"column"` // 1-based column number
	Offset int `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Before reports whether p comes strictly before other.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span represents a range in source code.
type Span struct {
	Start Position `json:"start" yaml:"start"`
	End   Position `json:"end" yaml:"end"`
}

// Contains returns true if the span contains the given position.
// The end position is exclusive.
func (s Span) Contains(p Position) bool {
	if !s.IsValid() || !p.IsValid() {
		return false
	}
	return !p.Before(s.Start) && p.Before(s.End)
}

// IsValid returns true if both start and end positions are valid.
func (s Span) IsValid() bool {
	return s.Start.IsValid() && s.End.IsValid()
}

func (s Span) String() string {
	if !s.IsValid() {
		return "-"
	}
	return s.Start.String() + "-" + s.End.String()
}
