// Package joypad emulates the JOYP latch: an 8-button state vector
// multiplexed onto a 4-bit nibble selected by the two upper bits of JOYP.
package joypad

import (
	"github.com/retrohertz/dmgcore/internal/state"
)

// Button identifies a single physical button. Bit layout matches the two
// 4-bit JOYP nibbles: the low nibble of each group is what the guest reads.
type Button = uint8

const (
	ButtonRight Button = 1 << iota
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonA
	ButtonB
	ButtonSelect
	ButtonStart
)

// State holds the joypad's observable register plus the host-side button
// vector. Button bits are 1 = released, matching the guest-facing polarity.
type State struct {
	selectButtons bool // JOYP bit 5, 0 = buttons selected
	selectDPad    bool // JOYP bit 4, 0 = d-pad selected
	buttons       uint8
	dpad          uint8
}

// New returns a joypad with every button released and both select bits
// clear, matching the JOYP power-on default of 0xCF.
func New() *State {
	return &State{
		selectButtons: false,
		selectDPad:    false,
		buttons:       0x0F,
		dpad:          0x0F,
	}
}

// Read returns the current value of JOYP (0xFF00).
func (s *State) Read() uint8 {
	v := uint8(0xC0)
	if s.selectButtons {
		v |= 0x20
	}
	if s.selectDPad {
		v |= 0x10
	}
	switch {
	case !s.selectDPad:
		v |= s.dpad & 0x0F
	case !s.selectButtons:
		v |= s.buttons & 0x0F
	default:
		v |= 0x0F
	}
	return v
}

// Write updates the nibble-select bits from a guest write to JOYP.
func (s *State) Write(v uint8) {
	s.selectButtons = v&0x20 != 0
	s.selectDPad = v&0x10 != 0
}

// Press marks a button as held. It returns true if this is a high-to-low
// transition on a currently-selected nibble, which raises IF bit 4.
func (s *State) Press(b Button) bool {
	mask := s.mask(b)
	wasUp := s.bit(b)&mask != 0
	s.setBit(b, false)
	return wasUp && s.selected(b)
}

// Release marks a button as no longer held.
func (s *State) Release(b Button) {
	s.setBit(b, true)
}

func (s *State) selected(b Button) bool {
	if b <= ButtonDown {
		return !s.selectDPad
	}
	return !s.selectButtons
}

// mask reduces a Button constant to its 0-3 bit position within whichever
// nibble (d-pad or buttons) it belongs to.
func (s *State) mask(b Button) uint8 {
	if b <= ButtonDown {
		return b
	}
	return b >> 4
}

func (s *State) bit(b Button) uint8 {
	if b <= ButtonDown {
		return s.dpad
	}
	return s.buttons
}

func (s *State) setBit(b Button, released bool) {
	mask := s.mask(b)
	if released {
		if b <= ButtonDown {
			s.dpad |= mask
		} else {
			s.buttons |= mask
		}
	} else {
		if b <= ButtonDown {
			s.dpad &^= mask
		} else {
			s.buttons &^= mask
		}
	}
}

var _ state.Stater = (*State)(nil)

func (s *State) Save(st *state.State) {
	st.WriteBool(s.selectButtons)
	st.WriteBool(s.selectDPad)
	st.Write8(s.buttons)
	st.Write8(s.dpad)
}

func (s *State) Load(st *state.State) {
	s.selectButtons = st.ReadBool()
	s.selectDPad = st.ReadBool()
	s.buttons = st.Read8()
	s.dpad = st.Read8()
}
