package transform

import (
	"unicode/utf16"

	"github.com/leapstack-labs/rpgflow/pkg/puml"
)

// NameColor derives a stable color from a participant name. Equal names
// always get the same color, across runs and across programs, and the values
// match the colors produced by the JVM tooling for the same names.
func NameColor(name string) puml.Color {
	code := int64(stringHash(name))
	return puml.RGB(
		component(code*11+73),
		component(code*97+113),
		component(code*71+373),
	)
}

// Darker returns the color with every component halved.
func Darker(c puml.Color) puml.Color {
	return puml.RGB(
		component(int64(c.R/2)),
		component(int64(c.G/2)),
		component(int64(c.B/2)),
	)
}

// stringHash is the 32-bit polynomial string hash over UTF-16 code units
// (s[0]*31^(n-1) + ... + s[n-1]) with wrapping arithmetic.
func stringHash(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(u)
	}
	return h
}

// component truncates v to 32 bits and folds it into [0, 255).
func component(v int64) uint8 {
	n := int32(v)
	u := uint32(n)
	if n < 0 {
		u = uint32(-int64(n))
	}
	return uint8(u % 255)
}
