// Package ast provides the language-neutral building blocks shared by every
// syntax tree handled by rpgflow: source positions, the Node interface,
// traversal helpers and parser issues.
//
// Concrete node types live in their language packages (see pkg/rpg).
// This package imports only the standard library.
package ast

// Node is the base interface for all AST nodes.
type Node interface {
	// NodeType returns the simple type name of the node (e.g. "CompilationUnit").
	NodeType() string
	// Span returns the source range of the node. The zero Span means unknown.
	Span() Span
	// Children returns the direct child nodes in source order.
	Children() []Node
}

// Base carries the source span for embedding in concrete nodes.
type Base struct {
	Range Span
}

// Span implements Node.
func (b Base) Span() Span { return b.Range }
