package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameColor(t *testing.T) {
	tests := []struct {
		name   string
		hash   int32
		color  string
		darker string
	}{
		{name: "CUSTMAST", hash: 1388731336, color: "#1986A4", darker: "#0C4352"},
		{name: "CUSTHIST", hash: 1388590069, color: "#F7AACE", darker: "#7B5567"},
		{name: "ORDERS", hash: -1955440923, color: "#3CB38A", darker: "#1E5945"},
		{name: "", hash: 0, color: "#497176", darker: "#24383B"},
		{name: "Ä€", hash: 14440, color: "#304E03", darker: "#182701"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.hash, stringHash(tt.name))
			c := NameColor(tt.name)
			assert.Equal(t, tt.color, c.Hex())
			assert.Equal(t, tt.darker, Darker(c).Hex())
		})
	}
}

func TestNameColor_Stable(t *testing.T) {
	assert.Equal(t, NameColor("ORDERS"), NameColor("ORDERS"))
	assert.NotEqual(t, NameColor("ORDERS"), NameColor("orders"))
}

func TestComponent(t *testing.T) {
	tests := []struct {
		in   int64
		want uint8
	}{
		{0, 0},
		{73, 73},
		{255, 0},
		{256, 1},
		{-300, 45},
		{math.MinInt32, 128},
		{int64(1)<<32 + 5, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, component(tt.in), "component(%d)", tt.in)
	}
}
