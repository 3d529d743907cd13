// Package gameboy wires a cartridge, bus and every peripheral into a single
// runnable machine, and exposes the frame-stepping and save-state API a host
// program drives.
package gameboy

import (
	"fmt"

	"github.com/retrohertz/dmgcore/internal/apu"
	"github.com/retrohertz/dmgcore/internal/bus"
	"github.com/retrohertz/dmgcore/internal/cartridge"
	"github.com/retrohertz/dmgcore/internal/cpu"
	"github.com/retrohertz/dmgcore/internal/interrupts"
	"github.com/retrohertz/dmgcore/internal/joypad"
	"github.com/retrohertz/dmgcore/internal/ppu"
	"github.com/retrohertz/dmgcore/internal/state"
	"github.com/retrohertz/dmgcore/internal/timer"
)

// ClockSpeed is the DMG's master clock, in Hz.
const ClockSpeed = 4194304

// maxTicksPerFrame bounds RunFrame so a cartridge that disables the LCD
// forever cannot hang the caller: two full frames' worth of T-cycles.
const maxTicksPerFrame = 2 * 70224

// GameBoy owns every component of one emulated machine.
type GameBoy struct {
	Cart   *cartridge.Cartridge
	Bus    *bus.Bus
	CPU    *cpu.CPU
	PPU    *ppu.PPU
	APU    *apu.APU
	Timer  *timer.Controller
	Joypad *joypad.State
	IRQ    *interrupts.Service
}

// New loads rom and returns a fully wired GameBoy ready to run from 0x0100.
func New(rom []byte, opts ...Option) (*GameBoy, error) {
	cart, err := cartridge.Load(rom)
	if err != nil {
		return nil, fmt.Errorf("gameboy: load cartridge: %w", err)
	}

	irq := interrupts.New()
	tmr := timer.New(irq)
	pad := joypad.New()
	b := bus.New(cart, irq, tmr, pad)

	video := ppu.New(&b.VRAM, &b.OAM, irq)
	sound := apu.New(44100)
	b.AttachPPU(video)
	b.AttachAPU(sound)

	g := &GameBoy{
		Cart:   cart,
		Bus:    b,
		PPU:    video,
		APU:    sound,
		Timer:  tmr,
		Joypad: pad,
		IRQ:    irq,
	}

	for _, opt := range opts {
		opt(g)
	}

	// Built after the options so the CPU ticks the APU that WithSampleRate
	// may have swapped in.
	g.CPU = cpu.New(b, irq, tmr, video, g.APU)

	return g, nil
}

// RunFrame steps the CPU until the PPU reports a completed frame, or until
// the safety bound is hit (an LCD-disabled cartridge never sets it).
func (g *GameBoy) RunFrame() {
	ticks := 0
	for ticks < maxTicksPerFrame {
		ticks += int(g.CPU.Step())
		if g.PPU.FrameReady() {
			return
		}
	}
}

// PressButton marks a button as held, raising the joypad interrupt on a
// high-to-low transition of a currently selected nibble.
func (g *GameBoy) PressButton(b joypad.Button) {
	if g.Joypad.Press(b) {
		g.IRQ.Request(interrupts.Joypad)
	}
}

// ReleaseButton marks a button as no longer held.
func (g *GameBoy) ReleaseButton(b joypad.Button) {
	g.Joypad.Release(b)
}

// Frame returns the most recently completed 160x144 framebuffer.
func (g *GameBoy) Frame() *ppu.Framebuffer { return &g.PPU.FB }

// DrainAudio returns and clears the interleaved stereo samples produced
// since the last call.
func (g *GameBoy) DrainAudio() []float32 { return g.APU.DrainSamples() }

// BatteryRAM returns a copy of the cartridge's persistent RAM, or nil if the
// cartridge has no battery.
func (g *GameBoy) BatteryRAM() []byte {
	if !g.Cart.Battery() {
		return nil
	}
	ram := g.Cart.RAM()
	out := make([]byte, len(ram))
	copy(out, ram)
	return out
}

// LoadBatteryRAM restores previously saved persistent RAM.
func (g *GameBoy) LoadBatteryRAM(data []byte) {
	g.Cart.LoadRAM(data)
}

// SaveState serializes the whole machine into a compressed, checksummed
// blob. Component order: CPU, bus (RAM regions + IRQ + cartridge),
// PPU, APU, timer, joypad.
func (g *GameBoy) SaveState() ([]byte, error) {
	s := state.New()
	g.CPU.Save(s)
	g.Bus.Save(s)
	g.PPU.Save(s)
	g.APU.Save(s)
	g.Timer.Save(s)
	g.Joypad.Save(s)
	return state.Encode(s.Bytes())
}

// LoadState restores a blob produced by SaveState. On any validation failure
// the machine is left untouched.
func (g *GameBoy) LoadState(blob []byte) error {
	raw, err := state.Decode(blob)
	if err != nil {
		return err
	}
	s := state.FromBytes(raw)
	g.CPU.Load(s)
	g.Bus.Load(s)
	g.PPU.Load(s)
	g.APU.Load(s)
	g.Timer.Load(s)
	g.Joypad.Load(s)
	return nil
}
