// Package timer emulates the DIV/TIMA/TMA/TAC divider and programmable
// counter, advanced by the CPU once per M-cycle of every instruction.
package timer

import (
	"github.com/retrohertz/dmgcore/internal/interrupts"
	"github.com/retrohertz/dmgcore/internal/state"
)

// periods maps TAC's low two bits to the TIMA increment period in T-cycles.
var periods = [4]uint16{1024, 16, 64, 256}

// Controller holds the 16-bit internal divider and the TIMA/TMA/TAC trio.
type Controller struct {
	div16      uint16 // internal divider; DIV is the high byte
	tima, tma  uint8
	tac        uint8
	accum      uint16 // T-cycles accumulated toward the next TIMA tick
	irq        *interrupts.Service
}

// New returns a Controller with the power-on DIV default of 0xAB.
func New(irq *interrupts.Service) *Controller {
	return &Controller{div16: 0xAB00, irq: irq}
}

// Tick advances the timer by the given number of T-cycles; the CPU calls it
// with 4 once per M-cycle.
func (c *Controller) Tick(tCycles uint8) {
	for i := uint8(0); i < tCycles; i++ {
		c.div16++
		if c.tac&0x04 == 0 {
			continue
		}
		c.accum++
		period := periods[c.tac&0x03]
		if c.accum >= period {
			c.accum -= period
			c.tima++
			if c.tima == 0 {
				c.tima = c.tma
				c.irq.Request(interrupts.Timer)
			}
		}
	}
}

// ReadDIV returns the visible DIV register: the high byte of the internal
// 16-bit divider.
func (c *Controller) ReadDIV() uint8 { return uint8(c.div16 >> 8) }

// WriteDIV resets the internal divider to 0 regardless of the written value.
func (c *Controller) WriteDIV(uint8) {
	c.div16 = 0
	c.accum = 0
}

func (c *Controller) ReadTIMA() uint8  { return c.tima }
func (c *Controller) WriteTIMA(v uint8) { c.tima = v }

func (c *Controller) ReadTMA() uint8  { return c.tma }
func (c *Controller) WriteTMA(v uint8) { c.tma = v }

func (c *Controller) ReadTAC() uint8  { return c.tac | 0xF8 }
func (c *Controller) WriteTAC(v uint8) {
	c.tac = v & 0x07
}

var _ state.Stater = (*Controller)(nil)

func (c *Controller) Save(st *state.State) {
	st.Write16(c.div16)
	st.Write8(c.tima)
	st.Write8(c.tma)
	st.Write8(c.tac)
	st.Write16(c.accum)
}

func (c *Controller) Load(st *state.State) {
	c.div16 = st.Read16()
	c.tima = st.Read8()
	c.tma = st.Read8()
	c.tac = st.Read8()
	c.accum = st.Read16()
}
