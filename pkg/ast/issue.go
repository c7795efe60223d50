package ast

import "strings"

// Severity indicates the importance of a parser issue.
type Severity int

// Severity levels for issues.
const (
	// SeverityError indicates the tree may be incomplete.
	SeverityError Severity = iota
	// SeverityWarning indicates a recoverable problem.
	SeverityWarning
	// SeverityInfo indicates informational feedback.
	SeverityInfo
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a string to a Severity value.
// Returns the severity and true if valid, or SeverityError and false if invalid.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(s) {
	case "error":
		return SeverityError, true
	case "warning":
		return SeverityWarning, true
	case "info":
		return SeverityInfo, true
	default:
		return SeverityError, false
	}
}

// IssueKind classifies where an issue was raised.
type IssueKind string

// Issue kinds as reported by the parser.
const (
	IssueLexical   IssueKind = "lexical"
	IssueSyntactic IssueKind = "syntactic"
	IssueSemantic  IssueKind = "semantic"
)

// Issue is a problem reported alongside a tree.
type Issue struct {
	Kind     IssueKind `json:"type"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Range    Span      `json:"position"`
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
