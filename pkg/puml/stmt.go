package puml

// Statement is a marker interface for diagram statements.
type Statement interface {
	stmtNode()
}

// Invoke is a message from Caller to Callee. Statements in Body happen while
// the callee is active.
type Invoke struct {
	Caller string      `json:"caller"`
	Callee string      `json:"callee"`
	Method string      `json:"method"`
	Args   []string    `json:"args,omitempty"`
	Color  Color       `json:"color,omitempty"`
	Body   []Statement `json:"body,omitempty"`
}

func (*Invoke) stmtNode() {}

// Add appends a statement to the invoke body.
func (i *Invoke) Add(s Statement) { i.Body = append(i.Body, s) }

// If is an optional fragment guarded by Condition.
type If struct {
	Condition string      `json:"condition"`
	Body      []Statement `json:"body,omitempty"`
}

func (*If) stmtNode() {}

// Add appends a statement to the fragment body.
func (i *If) Add(s Statement) { i.Body = append(i.Body, s) }

// HasEmptyBody reports whether nothing in the body would be drawn.
func (i *If) HasEmptyBody() bool {
	return isEmpty(i.Body)
}

// Loop is a loop fragment. Kind is the loop flavour (e.g. UNTIL, WHILE).
type Loop struct {
	Kind      string      `json:"kind"`
	Condition string      `json:"condition"`
	Body      []Statement `json:"body,omitempty"`
}

func (*Loop) stmtNode() {}

// Add appends a statement to the loop body.
func (l *Loop) Add(s Statement) { l.Body = append(l.Body, s) }

// Empty draws nothing. It stands in for statements with no diagram counterpart.
type Empty struct{}

func (*Empty) stmtNode() {}

func isEmpty(stmts []Statement) bool {
	for _, s := range stmts {
		if _, ok := s.(*Empty); !ok {
			return false
		}
	}
	return true
}

// Count returns the number of non-empty statements, nested ones included.
func Count(stmts []Statement) int {
	n := 0
	for _, s := range stmts {
		switch v := s.(type) {
		case *Invoke:
			n += 1 + Count(v.Body)
		case *If:
			n += 1 + Count(v.Body)
		case *Loop:
			n += 1 + Count(v.Body)
		}
	}
	return n
}
