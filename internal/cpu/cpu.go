// Package cpu implements the Sharp LR35902 instruction set: register file,
// ALU, the primary and CB-prefixed opcode tables, and interrupt dispatch.
// Every memory access advances the timer, PPU and APU by exactly one
// M-cycle (4 T-cycles), so callers never tick peripherals directly.
package cpu

import (
	"github.com/retrohertz/dmgcore/internal/bus"
	"github.com/retrohertz/dmgcore/internal/interrupts"
	"github.com/retrohertz/dmgcore/internal/state"
)

// peripheral is satisfied by any component whose Tick advances it by a
// whole number of T-cycles.
type peripheral interface {
	Tick(tCycles uint8)
}

// CPU holds the register file and drives the bus and every ticked
// peripheral one instruction at a time.
type CPU struct {
	A, F, B, C, D, E, H, L uint8
	SP, PC                 uint16
	halted                 bool
	haltBug                bool

	bus *bus.Bus
	irq *interrupts.Service

	timer peripheral
	ppu   peripheral
	apu   peripheral

	currentTick uint8
}

// New returns a CPU wired to bus for memory access and to timer/ppu/apu for
// per-access cycle accounting. The power-on register values are applied.
func New(b *bus.Bus, irq *interrupts.Service, timer, ppu, apu peripheral) *CPU {
	return &CPU{
		A: 0x01, F: 0xB0,
		B: 0x00, C: 0x13,
		D: 0x00, E: 0xD8,
		H: 0x01, L: 0x4D,
		SP: 0xFFFE, PC: 0x0100,

		bus:   b,
		irq:   irq,
		timer: timer,
		ppu:   ppu,
		apu:   apu,
	}
}

// Step executes one instruction (or one HALT/interrupt-dispatch cycle) and
// returns the number of T-cycles consumed, always a multiple of 4.
func (c *CPU) Step() uint8 {
	c.currentTick = 0

	// Apply any IME-enable armed by an EI one full instruction ago, before
	// fetching so the delay lasts exactly one instruction.
	c.irq.Tick()

	if c.halted {
		c.tickCycle()
		if c.irq.Pending() {
			c.halted = false
		}
	} else {
		opcode := c.readInstruction()
		if c.haltBug {
			c.PC--
			c.haltBug = false
		}
		c.runInstruction(opcode)
	}

	if c.irq.ReadyToDispatch() {
		c.dispatchInterrupt()
	}

	return c.currentTick
}

func (c *CPU) runInstruction(opcode uint8) {
	if opcode == 0xCB {
		c.decodeCB(c.readOperand())
		return
	}
	c.decode(opcode)
}

// dispatchInterrupt pushes PC, jumps to the highest-priority pending
// interrupt's vector and clears IME, costing 20 T-cycles.
func (c *CPU) dispatchInterrupt() {
	_, vector, ok := c.irq.NextSource()
	if !ok {
		return
	}
	c.SP--
	c.writeByte(c.SP, uint8(c.PC>>8))
	c.SP--
	c.writeByte(c.SP, uint8(c.PC&0xFF))
	c.PC = vector
	c.irq.DisableImmediately()

	c.tickCycle()
	c.tickCycle()
	c.tickCycle()
}

func (c *CPU) readInstruction() uint8 {
	c.tickCycle()
	v := c.bus.Read(c.PC)
	c.PC++
	return v
}

func (c *CPU) readOperand() uint8 {
	c.tickCycle()
	v := c.bus.Read(c.PC)
	c.PC++
	return v
}

func (c *CPU) skipOperand() {
	c.tickCycle()
	c.PC++
}

func (c *CPU) readByte(addr uint16) uint8 {
	c.tickCycle()
	return c.bus.Read(addr)
}

func (c *CPU) writeByte(addr uint16, v uint8) {
	c.tickCycle()
	c.bus.Write(addr, v)
}

// readHL/writeHL are the (HL)-indirect accesses used throughout the opcode
// tables wherever register index 6 appears.
func (c *CPU) readHL() uint8   { return c.readByte(c.hl()) }
func (c *CPU) writeHL(v uint8) { c.writeByte(c.hl(), v) }

func (c *CPU) tick() {
	c.timer.Tick(4)
	c.ppu.Tick(4)
	c.apu.Tick(4)
	c.currentTick += 4
}

func (c *CPU) tickCycle() { c.tick() }

var _ state.Stater = (*CPU)(nil)

func (c *CPU) Save(s *state.State) {
	s.Write8(c.A)
	s.Write8(c.F)
	s.Write8(c.B)
	s.Write8(c.C)
	s.Write8(c.D)
	s.Write8(c.E)
	s.Write8(c.H)
	s.Write8(c.L)
	s.Write16(c.SP)
	s.Write16(c.PC)
	s.WriteBool(c.halted)
	s.WriteBool(c.haltBug)
}

func (c *CPU) Load(s *state.State) {
	c.A = s.Read8()
	c.F = s.Read8()
	c.B = s.Read8()
	c.C = s.Read8()
	c.D = s.Read8()
	c.E = s.Read8()
	c.H = s.Read8()
	c.L = s.Read8()
	c.SP = s.Read16()
	c.PC = s.Read16()
	c.halted = s.ReadBool()
	c.haltBug = s.ReadBool()
}
