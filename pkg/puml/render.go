package puml

import (
	"fmt"
	"strings"
)

// ClientActor is the participant that starts the program.
const ClientActor = "client"

// Style selects the layout of the rendered text.
type Style string

// Styles.
const (
	// StyleStandard uses opt frames, call-style messages and activation bars.
	StyleStandard Style = "standard"
	// StyleClassic reproduces the layout of the earlier RPG to PlantUML
	// generator: teoz pragma, hidden footbox, a black and white skinparam
	// block, "group IF" frames and space-separated message arguments.
	StyleClassic Style = "classic"
)

// ParseStyle parses a style name. The empty string is the standard style.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case "", StyleStandard:
		return StyleStandard, nil
	case StyleClassic:
		return StyleClassic, nil
	default:
		return "", fmt.Errorf("unknown diagram style %q (expected standard or classic)", s)
	}
}

const classicSkinparam = `skinparam sequence {
    ArrowColor Black
    LifeLineBorderColor #000000
    LifeLineBackgroundColor #FFFFFF

    ParticipantBorderColor #000000
    ParticipantBackgroundColor #FFFFFF

    ParticipantFontColor #000000
}`

// Options controls diagram rendering.
type Options struct {
	// Title overrides the diagram title when set.
	Title string
	// Autonumber numbers the messages.
	Autonumber bool
	// EntryCall draws the client calling Program before the main flow.
	EntryCall bool
	// Program is the participant that owns the main flow.
	Program string
	// Style selects the layout; empty means StyleStandard.
	Style Style
}

// Render formats a diagram as PlantUML text.
func Render(d *Diagram, opts Options) string {
	p := newPrinter()
	p.diagram = d
	p.classic = opts.Style == StyleClassic

	p.line("@startuml")
	if p.classic {
		p.line("'https://plantuml.com/sequence-diagram")
		p.line("!pragma teoz true")
		p.line("hide footbox")
	}

	title := d.Title
	if opts.Title != "" {
		title = opts.Title
	}
	if title != "" {
		p.line("title ", title)
	}
	if opts.Autonumber {
		p.line("autonumber")
	}

	for _, part := range d.Participants {
		p.participant(part)
	}
	if p.classic {
		for _, l := range strings.Split(classicSkinparam, "\n") {
			p.line(l)
		}
	}

	entry := opts.EntryCall && opts.Program != "" &&
		d.Participant(ClientActor) != nil && d.Participant(opts.Program) != nil
	program := d.AliasOf(opts.Program)
	if entry {
		if p.classic {
			p.line(d.AliasOf(ClientActor), " -> ", program, " :")
		} else {
			p.line(d.AliasOf(ClientActor), " -> ", program, " : run")
			p.line("activate ", program)
		}
	}

	p.statements(d.Statements)

	if entry && !p.classic {
		p.line("deactivate ", program)
	}
	p.line("@enduml")
	return p.String()
}

func (p *printer) participant(part *Participant) {
	decl := part.Type.String() + ` "` + escape(part.Name) + `"`
	if alias := part.Alias(); alias != part.Name {
		decl += " as " + alias
	}
	if part.Color.Set {
		decl += " " + part.Color.Hex()
	}
	p.line(decl)
}

func (p *printer) statements(stmts []Statement) {
	for _, s := range stmts {
		p.statement(s)
	}
}

func (p *printer) statement(s Statement) {
	switch v := s.(type) {
	case *Invoke:
		p.invoke(v)
	case *If:
		head := "opt "
		if p.classic {
			head = "group IF "
		}
		p.block(head+v.Condition, "end", func() { p.statements(v.Body) })
	case *Loop:
		head := "loop"
		if v.Kind != "" {
			head += " " + v.Kind
		}
		if v.Condition != "" {
			head += " " + v.Condition
		}
		p.block(head, "end", func() { p.statements(v.Body) })
	case *Empty, nil:
	}
}

func (p *printer) invoke(v *Invoke) {
	arrow := "->"
	if v.Color.Set {
		arrow = "-[" + v.Color.Hex() + "]>"
	}
	callee := p.diagram.AliasOf(v.Callee)
	caller := p.diagram.AliasOf(v.Caller)

	if p.classic {
		msg := strings.TrimSpace(v.Method + " " + strings.Join(v.Args, " "))
		p.line(caller, " ", arrow, " ", callee, " : ", msg)
		p.statements(v.Body)
		return
	}

	p.line(caller, " ", arrow, " ", callee, " : ", v.Method, "(", strings.Join(v.Args, ", "), ")")
	if isEmpty(v.Body) {
		return
	}
	p.line("activate ", callee)
	p.indent()
	p.statements(v.Body)
	p.dedent()
	p.line("deactivate ", callee)
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `'`)
}
