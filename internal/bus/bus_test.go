package bus_test

import (
	"testing"

	"github.com/retrohertz/dmgcore/internal/bus"
	"github.com/retrohertz/dmgcore/internal/cartridge"
	"github.com/retrohertz/dmgcore/internal/interrupts"
	"github.com/retrohertz/dmgcore/internal/joypad"
	"github.com/retrohertz/dmgcore/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) *bus.Bus {
	rom := make([]byte, 0x8000)
	copy(rom[0x134:], []byte("TEST"))
	rom[0x147] = byte(cartridge.ROM)
	rom[0x149] = 0x00

	cart, err := cartridge.Load(rom)
	require.NoError(t, err)

	irq := interrupts.New()
	tm := timer.New(irq)
	jp := joypad.New()
	return bus.New(cart, irq, tm, jp)
}

func TestEchoRAMAliasesWorkRAM(t *testing.T) {
	b := newTestBus(t)
	b.Write(0xC010, 0x55)
	assert.Equal(t, uint8(0x55), b.Read(0xE010))

	b.Write(0xE020, 0x66)
	assert.Equal(t, uint8(0x66), b.Read(0xC020))
}

func TestUnmappedRegionReadsAsFF(t *testing.T) {
	b := newTestBus(t)
	assert.Equal(t, uint8(0xFF), b.Read(0xFEA0))
}

func TestOAMDMACopiesAllBytesFromSourcePage(t *testing.T) {
	b := newTestBus(t)
	for i := 0; i < 0xA0; i++ {
		b.Write(0xC000+uint16(i), byte(i))
	}
	b.Write(0xFF46, 0xC0)
	for i := 0; i < 0xA0; i++ {
		assert.Equal(t, byte(i), b.Read(0xFE00+uint16(i)))
	}
}

func TestHRAMReadWrite(t *testing.T) {
	b := newTestBus(t)
	b.Write(0xFF90, 0x12)
	assert.Equal(t, uint8(0x12), b.Read(0xFF90))
}

func TestInterruptEnableRegisterAtTopOfAddressSpace(t *testing.T) {
	b := newTestBus(t)
	b.Write(0xFFFF, 0x1F)
	assert.Equal(t, uint8(0x1F), b.Read(0xFFFF))
}

func TestJoypadRegisterRoutedThroughBus(t *testing.T) {
	b := newTestBus(t)
	b.Write(0xFF00, 0x10) // select buttons nibble
	assert.Equal(t, uint8(0xDF), b.Read(0xFF00))
}
