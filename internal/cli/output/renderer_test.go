package output

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func newTest(mode OutputMode, tty bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, tty, mode), out, errOut
}

func TestMode(t *testing.T) {
	tests := map[string]OutputMode{
		"":         ModeAuto,
		"auto":     ModeAuto,
		"TEXT":     ModeText,
		"md":       ModeMarkdown,
		"markdown": ModeMarkdown,
		" json ":   ModeJSON,
		"html":     ModeAuto,
	}
	for in, want := range tests {
		assert.Equal(t, want, Mode(in), "Mode(%q)", in)
	}
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode OutputMode
		tty  bool
		want OutputMode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{"", false, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
		{ModeText, false, ModeText},
	}
	for _, tt := range tests {
		r, _, _ := newTest(tt.mode, tt.tty)
		assert.Equal(t, tt.want, r.EffectiveMode())
	}
}

func TestRenderer_MarkdownHasNoANSI(t *testing.T) {
	r, out, errOut := newTest(ModeAuto, false)

	r.Header(1, "Render Summary")
	r.StatusLine("custupd.json", "rendered", "5 statements")
	r.StatusLine("orders.yaml", "skipped", "")
	r.Success("done")
	r.Muted("state saved")
	r.Warning("1 input failed")
	r.Table([]string{"Input", "Status"}, [][]string{{"custupd.json", "rendered"}})

	got := out.String()
	assert.False(t, ansi.MatchString(got+errOut.String()))
	assert.Contains(t, got, "# Render Summary")
	assert.Contains(t, got, "- [rendered] custupd.json (5 statements)")
	assert.Contains(t, got, "- [skipped] orders.yaml\n")
	assert.Contains(t, got, "**done**")
	assert.Contains(t, got, "_state saved_")
	assert.Contains(t, got, "| custupd.json | rendered |")
	assert.Contains(t, errOut.String(), "Warning: 1 input failed")
}

func TestRenderer_Text(t *testing.T) {
	r, out, _ := newTest(ModeText, true)

	r.StatusLine("custupd.json", "rendered", "")
	r.StatusLine("broken.json", "failed", "bad root")
	r.Table([]string{"Input"}, [][]string{{"custupd.json"}})

	got := out.String()
	assert.Contains(t, got, "✓")
	assert.Contains(t, got, "✗")
	assert.Contains(t, got, "bad root")
	assert.Contains(t, got, "┌")
}

func TestRenderer_JSON(t *testing.T) {
	r, out, _ := newTest(ModeJSON, false)
	require.NoError(t, r.JSON(map[string]int{"rendered": 2}))
	assert.Equal(t, "{\n  \"rendered\": 2\n}\n", out.String())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "## Inputs\n", FormatHeader(2, "Inputs"))
	assert.Equal(t, "# X\n", FormatHeader(0, "X"))
	assert.Equal(t, "###### X\n", FormatHeader(9, "X"))
	assert.Equal(t, "- **Entities**: 4", FormatKeyValue("Entities", "4"))

	block := FormatCodeBlock("plantuml", "@startuml\n@enduml\n")
	assert.Equal(t, "```plantuml\n@startuml\n@enduml\n```", block)
	assert.Equal(t, 2, strings.Count(block, "```"))
}
