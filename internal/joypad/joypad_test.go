package joypad_test

import (
	"testing"

	"github.com/retrohertz/dmgcore/internal/joypad"
	"github.com/retrohertz/dmgcore/internal/state"
	"github.com/stretchr/testify/assert"
)

func TestPowerOnDefaultReadsAllReleased(t *testing.T) {
	j := joypad.New()
	assert.Equal(t, uint8(0xCF), j.Read())
}

func TestSelectingDPadExposesDPadNibble(t *testing.T) {
	j := joypad.New()
	j.Write(0x20) // select d-pad (bit 4 low)
	j.Press(joypad.ButtonDown)
	assert.Equal(t, uint8(0xE0|0x07), j.Read())
}

func TestSelectingButtonsExposesButtonNibble(t *testing.T) {
	j := joypad.New()
	j.Write(0x10) // select buttons (bit 5 low)
	j.Press(joypad.ButtonA)
	assert.Equal(t, uint8(0xD0|0x0E), j.Read())
}

func TestPressReturnsTrueOnlyOnHighToLowTransitionWhenSelected(t *testing.T) {
	j := joypad.New()
	j.Write(0x10) // buttons selected
	assert.True(t, j.Press(joypad.ButtonA))
	assert.False(t, j.Press(joypad.ButtonA)) // already held, no edge
}

func TestPressReturnsFalseWhenNibbleNotSelected(t *testing.T) {
	j := joypad.New()
	j.Write(0x20) // d-pad selected, not buttons
	assert.False(t, j.Press(joypad.ButtonA))
}

func TestReleaseClearsHeldState(t *testing.T) {
	j := joypad.New()
	j.Write(0x10)
	j.Press(joypad.ButtonStart)
	j.Release(joypad.ButtonStart)
	assert.True(t, j.Press(joypad.ButtonStart))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	j := joypad.New()
	j.Write(0x10)
	j.Press(joypad.ButtonB)

	st := state.New()
	j.Save(st)

	loaded := joypad.New()
	loaded.Load(state.FromBytes(st.Bytes()))
	assert.Equal(t, j.Read(), loaded.Read())
}
