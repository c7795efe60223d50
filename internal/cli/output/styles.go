package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used for terminal output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Path    lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusSkipped lipgloss.Style
	StatusFailed  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Info:    r.NewStyle().Foreground(lipgloss.Color("12")),
		Path:    r.NewStyle().Foreground(lipgloss.Color("13")).Underline(true),

		StatusSuccess: r.NewStyle().Foreground(lipgloss.Color("10")).SetString("✓"),
		StatusSkipped: r.NewStyle().Foreground(lipgloss.Color("8")).SetString("-"),
		StatusFailed:  r.NewStyle().Foreground(lipgloss.Color("9")).SetString("✗"),
	}
}

// StatusStyle returns the icon style for a status name
// ("success", "skipped" or "failed").
func (s *Styles) StatusStyle(status string) lipgloss.Style {
	switch status {
	case "success", "rendered":
		return s.StatusSuccess
	case "skipped", "unchanged":
		return s.StatusSkipped
	default:
		return s.StatusFailed
	}
}
