package puml

import (
	"bytes"
	"strings"
)

const indentSize = 2

// printer writes PlantUML text with block indentation.
type printer struct {
	output      *bytes.Buffer
	depth       int
	atLineStart bool

	diagram *Diagram
	classic bool
}

func newPrinter() *printer {
	return &printer{
		output:      &bytes.Buffer{},
		atLineStart: true,
	}
}

// String returns the rendered output.
func (p *printer) String() string {
	return strings.TrimRight(p.output.String(), "\n") + "\n"
}

func (p *printer) write(s string) {
	if p.atLineStart && len(s) > 0 && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *printer) writeln() {
	p.output.WriteByte('\n')
	p.atLineStart = true
}

// line writes a complete line.
func (p *printer) line(parts ...string) {
	p.write(strings.Join(parts, ""))
	p.writeln()
}

func (p *printer) writeIndent() {
	for i := 0; i < p.depth*indentSize; i++ {
		p.output.WriteByte(' ')
	}
	p.atLineStart = false
}

func (p *printer) indent() {
	p.depth++
}

func (p *printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

// block writes an opening line, the indented body and the closing line.
func (p *printer) block(open, closing string, body func()) {
	p.line(open)
	p.indent()
	body()
	p.dedent()
	p.line(closing)
}
