// Package output renders command results for terminals, pipes and scripts.
//
// A Renderer writes styled text when attached to a terminal, plain
// markdown when piped, and JSON on request.
package output

import "strings"

// OutputMode selects how command results are written.
type OutputMode string

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Mode parses an output mode name. Unknown or empty names map to ModeAuto.
func Mode(s string) OutputMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "tty":
		return ModeText
	case "markdown", "md":
		return ModeMarkdown
	case "json":
		return ModeJSON
	default:
		return ModeAuto
	}
}
