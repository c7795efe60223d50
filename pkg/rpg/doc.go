// Package rpg defines the RPG program model consumed by rpgflow.
//
// The model mirrors the subset of the external RPG parser's tree that the
// diagram transformation understands: the compilation unit, its subroutines,
// control-flow statements, record-level file operations and the expressions
// they use. Nodes the model does not know are preserved as Unsupported
// statements or expressions so that a tree always loads.
//
// Trees are read from the parser's AST export (JSON or YAML) with Load and
// LoadFile.
package rpg
