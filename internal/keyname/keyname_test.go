package keyname

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vlmcollector/internal/model"
)

func TestLookupLetters(t *testing.T) {
	name, ok := Lookup(0x41)
	assert.True(t, ok)
	assert.Equal(t, "A", name)

	name, ok = Lookup(0x5A)
	assert.True(t, ok)
	assert.Equal(t, "Z", name)
}

func TestLookupDigits(t *testing.T) {
	name, ok := Lookup(0x30)
	assert.True(t, ok)
	assert.Equal(t, "zero", name)

	name, ok = Lookup(0x39)
	assert.True(t, ok)
	assert.Equal(t, "nine", name)
}

func TestLookupFunctionKeys(t *testing.T) {
	name, ok := Lookup(0x70)
	assert.True(t, ok)
	assert.Equal(t, "One", name)

	name, ok = Lookup(0x7B) // F12
	assert.True(t, ok)
	assert.Equal(t, "Twelve", name)
}

func TestLookupUnknownDroppedSilently(t *testing.T) {
	name, ok := Lookup(0xFF)
	assert.False(t, ok)
	assert.Equal(t, "", name)

	// An unassigned code within range also reports not-ok.
	name, ok = Lookup(0x07)
	assert.False(t, ok)
	assert.Equal(t, "", name)
}

func TestMouseButtonName(t *testing.T) {
	cases := map[model.MouseButton]string{
		model.MouseLeft:   "MouseLeft",
		model.MouseRight:  "MouseRight",
		model.MouseMiddle: "MouseMiddle",
		model.MouseX1:     "MouseX1",
		model.MouseX2:     "MouseX2",
	}
	for button, want := range cases {
		assert.Equal(t, want, MouseButtonName(button))
	}
}
