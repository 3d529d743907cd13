package gameboy_test

import (
	"testing"

	"github.com/retrohertz/dmgcore/internal/cartridge"
	"github.com/retrohertz/dmgcore/internal/gameboy"
	"github.com/retrohertz/dmgcore/internal/joypad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testROM(program []byte) []byte {
	rom := make([]byte, 0x8000)
	copy(rom[0x134:], []byte("TEST"))
	rom[0x147] = byte(cartridge.ROM)
	rom[0x149] = 0x00
	copy(rom[0x0100:], program)
	return rom
}

func TestNewAppliesOptions(t *testing.T) {
	g, err := gameboy.New(testROM(nil), gameboy.WithSampleRate(22050))
	require.NoError(t, err)
	assert.NotNil(t, g.APU)
}

func TestRunFrameStopsAtFrameBoundary(t *testing.T) {
	// An infinite loop (JP to itself) never disables the LCD, so RunFrame
	// must return once the PPU completes a frame rather than looping forever.
	g, err := gameboy.New(testROM([]byte{0xC3, 0x00, 0x01})) // JP 0x0100
	require.NoError(t, err)

	g.RunFrame()
	assert.False(t, g.PPU.FrameReady(), "FrameReady is edge-triggered and was already consumed by RunFrame")
}

func TestPressButtonRaisesJoypadInterruptOnlyOnEdge(t *testing.T) {
	g, err := gameboy.New(testROM(nil))
	require.NoError(t, err)
	g.IRQ.WriteIE(g.IRQ.ReadIE() | 0x10) // enable Joypad source

	g.Bus.Write(0xFF00, 0x10) // select button nibble so presses are observed
	g.PressButton(joypad.ButtonA)
	assert.True(t, g.IRQ.Pending())

	g.IRQ.NextSource() // clear it
	g.PressButton(joypad.ButtonA) // already held: no new edge
	assert.False(t, g.IRQ.Pending())
}

func TestBatteryRAMRoundTripsThroughSaveAndLoad(t *testing.T) {
	rom := testROM(nil)
	rom[0x147] = byte(cartridge.MBC1RAMBATT)
	rom[0x149] = 0x02 // 8 KiB RAM

	g, err := gameboy.New(rom)
	require.NoError(t, err)
	require.True(t, g.Cart.Battery())

	saved := make([]byte, 0x2000)
	saved[0] = 0xAB
	g.LoadBatteryRAM(saved)

	out := g.BatteryRAM()
	assert.Equal(t, byte(0xAB), out[0])
}

func TestSaveStateLoadStateRoundTrip(t *testing.T) {
	g, err := gameboy.New(testROM([]byte{
		0x3E, 0x2A, // LD A, 0x2A
		0x06, 0x07, // LD B, 7
	}))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		g.CPU.Step()
	}

	blob, err := g.SaveState()
	require.NoError(t, err)

	fresh, err := gameboy.New(testROM(nil))
	require.NoError(t, err)
	require.NoError(t, fresh.LoadState(blob))

	assert.Equal(t, g.CPU.A, fresh.CPU.A)
	assert.Equal(t, g.CPU.B, fresh.CPU.B)
	assert.Equal(t, g.CPU.PC, fresh.CPU.PC)
}

func TestLoadStateRejectsCorruptBlobWithoutMutatingMachine(t *testing.T) {
	g, err := gameboy.New(testROM([]byte{0x3E, 0x2A})) // LD A, 0x2A
	require.NoError(t, err)
	g.CPU.Step()
	before := g.CPU.A

	err = g.LoadState([]byte("not a real save state"))
	assert.Error(t, err)
	assert.Equal(t, before, g.CPU.A, "a failed load must leave the machine untouched")
}
