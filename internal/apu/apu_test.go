package apu_test

import (
	"testing"

	"github.com/retrohertz/dmgcore/internal/apu"
	"github.com/retrohertz/dmgcore/internal/state"
	"github.com/stretchr/testify/assert"
)

const frameSequencerDots = 4194304 / 512

func tickN(a *apu.APU, n int) {
	for n > 0 {
		step := n
		if step > 255 {
			step = 255
		}
		a.Tick(uint8(step))
		n -= step
	}
}

func TestRegistersIgnoredWhilePoweredOff(t *testing.T) {
	a := apu.New(44100)
	a.Write(0xFF26, 0x00) // power off
	before := a.Read(0xFF11)
	a.Write(0xFF11, 0xFF) // duty=3, length=63 -- must be dropped while powered off
	assert.Equal(t, before, a.Read(0xFF11), "writes to NR11 while powered off must have no effect")
}

func TestWaveRAMIsAlwaysWritableRegardlessOfPower(t *testing.T) {
	a := apu.New(44100)
	a.Write(0xFF30, 0xAB)
	assert.Equal(t, uint8(0xAB), a.Read(0xFF30))
}

func TestLengthCounterDisablesChannelOnReachingZero(t *testing.T) {
	a := apu.New(44100)
	a.Write(0xFF26, 0x80) // power on
	a.Write(0xFF11, 0x3F) // duty 0, length load 63 -> lengthCtr = 1
	a.Write(0xFF12, 0xF0) // DAC enabled, volume 15
	a.Write(0xFF14, 0xC0) // trigger + length enable

	assert.Equal(t, uint8(0x81), a.Read(0xFF26)&0x81, "channel 1 must be enabled right after trigger")

	tickN(a, frameSequencerDots) // exactly one frame-sequencer step (step 0: clock length)

	assert.Equal(t, uint8(0x80), a.Read(0xFF26)&0x81, "channel 1 must disable once its length counter hits zero")
}

func TestLengthCounterDoesNotDisableWhenNotEnabled(t *testing.T) {
	a := apu.New(44100)
	a.Write(0xFF26, 0x80)
	a.Write(0xFF11, 0x3F)
	a.Write(0xFF12, 0xF0)
	a.Write(0xFF14, 0x80) // trigger only, length counting NOT enabled

	tickN(a, frameSequencerDots*2)

	assert.Equal(t, uint8(0x01), a.Read(0xFF26)&0x01, "channel stays enabled when length counting is off")
}

func TestPowerOffZeroesChannelsButPreservesWaveRAM(t *testing.T) {
	a := apu.New(44100)
	a.Write(0xFF30, 0x5A) // wave RAM, writable even while off
	a.Write(0xFF26, 0x80) // power on
	a.Write(0xFF11, 0x3F)
	a.Write(0xFF12, 0xF0)
	a.Write(0xFF14, 0x80)

	a.Write(0xFF26, 0x00) // power off

	assert.Equal(t, uint8(0x00), a.Read(0xFF26)&0x0F, "every channel enable flag clears on power-off")
	assert.Equal(t, uint8(0x5A), a.Read(0xFF30), "wave RAM must survive power-off")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	a := apu.New(44100)
	a.Write(0xFF26, 0x80)
	a.Write(0xFF24, 0x77) // NR50 volume
	a.Write(0xFF25, 0xF0) // NR51 panning

	st := state.New()
	a.Save(st)

	loaded := apu.New(44100)
	loaded.Load(state.FromBytes(st.Bytes()))

	assert.Equal(t, a.Read(0xFF24), loaded.Read(0xFF24))
	assert.Equal(t, a.Read(0xFF25), loaded.Read(0xFF25))
}
