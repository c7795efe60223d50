// Package puml models PlantUML sequence diagrams and renders them as text.
package puml

import (
	"fmt"
	"image/color"
	"strings"
)

// EntityType is the participant kind of an entity.
type EntityType int

// Entity types.
const (
	Actor EntityType = iota
	Entity
	Database
)

// String returns the PlantUML keyword for the entity type.
func (t EntityType) String() string {
	switch t {
	case Actor:
		return "actor"
	case Database:
		return "database"
	default:
		return "entity"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t EntityType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Color is an optional RGB color. The zero value means no color.
type Color struct {
	color.RGBA
	Set bool
}

// RGB returns a set color.
func RGB(r, g, b uint8) Color {
	return Color{RGBA: color.RGBA{R: r, G: g, B: b, A: 0xff}, Set: true}
}

// Hex returns the color as #RRGGBB, or "" when unset.
func (c Color) Hex() string {
	if !c.Set {
		return ""
	}
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// Participant is a diagram participant.
type Participant struct {
	Name  string     `json:"name"`
	Type  EntityType `json:"type"`
	Color Color      `json:"color,omitempty"`

	alias string
}

// Alias returns the identifier used for the participant in diagram text.
// It is unique within the diagram the participant was added to.
func (p *Participant) Alias() string {
	if p.alias == "" {
		return Alias(p.Name)
	}
	return p.alias
}

// Alias converts a participant name to a PlantUML identifier.
func Alias(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Diagram is a sequence diagram: participants in declaration order followed by statements.
type Diagram struct {
	Title        string        `json:"title,omitempty"`
	Participants []*Participant `json:"participants"`
	Statements   []Statement   `json:"statements"`
}

// New returns an empty diagram.
func New() *Diagram {
	return &Diagram{}
}

// Participant returns the participant with the given name, or nil.
func (d *Diagram) Participant(name string) *Participant {
	for _, p := range d.Participants {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// AddParticipant appends a participant unconditionally. Names that reduce to
// an identifier already in use get a numeric suffix (CUST_, CUST__2, ...).
func (d *Diagram) AddParticipant(name string, typ EntityType) *Participant {
	p := &Participant{Name: name, Type: typ, alias: d.uniqueAlias(Alias(name))}
	d.Participants = append(d.Participants, p)
	return p
}

// AliasOf returns the identifier of the named participant, or the plain
// alias of the name when it is not declared.
func (d *Diagram) AliasOf(name string) string {
	if p := d.Participant(name); p != nil {
		return p.Alias()
	}
	return Alias(name)
}

func (d *Diagram) uniqueAlias(base string) string {
	used := make(map[string]bool, len(d.Participants))
	for _, p := range d.Participants {
		used[p.Alias()] = true
	}
	alias := base
	for n := 2; used[alias]; n++ {
		alias = fmt.Sprintf("%s_%d", base, n)
	}
	return alias
}

// EnsureParticipant adds a participant unless one with the same name exists.
// The first declaration wins, including its type and color.
func (d *Diagram) EnsureParticipant(name string, typ EntityType, c ...Color) *Participant {
	if p := d.Participant(name); p != nil {
		return p
	}
	p := d.AddParticipant(name, typ)
	if len(c) > 0 {
		p.Color = c[0]
	}
	return p
}

// Add appends a top-level statement.
func (d *Diagram) Add(s Statement) {
	d.Statements = append(d.Statements, s)
}
