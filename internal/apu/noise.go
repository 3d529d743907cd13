package apu

import "github.com/retrohertz/dmgcore/internal/state"

var divisorTable = [8]uint16{8, 16, 32, 48, 64, 80, 96, 112}

// noiseChannel implements NR41-NR44: a pseudo-random bit sequence (LFSR)
// driven by an envelope and length counter, used for percussion/noise.
type noiseChannel struct {
	enabled    bool
	dacEnabled bool

	lengthCtr uint
	lengthOn  bool

	startVolume uint8
	addMode     bool
	envPeriod   uint8
	envTimer    uint8
	volume      uint8

	clockShift  uint8
	widthMode   bool
	divisorCode uint8

	freqTimer uint16
	lfsr      uint16
}

func newNoiseChannel() *noiseChannel {
	return &noiseChannel{lfsr: 0x7FFF}
}

func (c *noiseChannel) step() {
	if c.freqTimer == 0 {
		c.freqTimer = divisorTable[c.divisorCode] << c.clockShift
		newBit := (c.lfsr & 1) ^ ((c.lfsr >> 1) & 1)
		c.lfsr = (c.lfsr >> 1) | (newBit << 14)
		if c.widthMode {
			c.lfsr &^= 1 << 6
			c.lfsr |= newBit << 6
		}
		return
	}
	c.freqTimer--
}

func (c *noiseChannel) lengthStep() {
	if c.lengthOn && c.lengthCtr > 0 {
		c.lengthCtr--
		if c.lengthCtr == 0 {
			c.enabled = false
		}
	}
}

func (c *noiseChannel) envelopeStep() {
	if c.envPeriod == 0 {
		return
	}
	if c.envTimer > 0 {
		c.envTimer--
		if c.envTimer == 0 {
			c.envTimer = c.envPeriod
			if c.addMode && c.volume < 0xF {
				c.volume++
			} else if !c.addMode && c.volume > 0 {
				c.volume--
			}
		}
	}
}

func (c *noiseChannel) amplitude() float32 {
	if !c.enabled || !c.dacEnabled {
		return 0
	}
	if c.lfsr&1 != 0 {
		return 0
	}
	return float32(c.volume)/7.5 - 1
}

func (c *noiseChannel) read(reg uint16) uint8 {
	switch reg {
	case 1: // NR41
		return 0xFF
	case 2: // NR42
		b := c.startVolume<<4 | c.envPeriod
		if c.addMode {
			b |= 0x08
		}
		return b
	case 3: // NR43
		b := c.clockShift << 4
		if c.widthMode {
			b |= 0x08
		}
		return b | c.divisorCode
	case 4: // NR44
		b := uint8(0)
		if c.lengthOn {
			b |= 0x40
		}
		return b | 0xBF
	default:
		return 0xFF
	}
}

func (c *noiseChannel) write(reg uint16, v uint8, firstHalf bool) {
	switch reg {
	case 1:
		c.lengthCtr = 64 - uint(v&0x3F)
	case 2:
		c.addMode = v&0x08 != 0
		c.startVolume = v >> 4
		c.envPeriod = v & 0x07
		c.dacEnabled = v&0xF8 != 0
		if !c.dacEnabled {
			c.enabled = false
		}
	case 3:
		c.clockShift = v >> 4
		c.widthMode = v&0x08 != 0
		c.divisorCode = v & 0x07
	case 4:
		lengthOn := v&0x40 != 0
		if firstHalf && !c.lengthOn && lengthOn && c.lengthCtr > 0 {
			c.lengthCtr--
			if c.lengthCtr == 0 {
				c.enabled = false
			}
		}
		c.lengthOn = lengthOn
		if v&0x80 != 0 {
			c.enabled = c.dacEnabled
			if c.lengthCtr == 0 {
				c.lengthCtr = 64
				if c.lengthOn && firstHalf {
					c.lengthCtr--
				}
			}
			c.envTimer = c.envPeriod
			c.volume = c.startVolume
			c.lfsr = 0x7FFF
		}
	}
}

func (c *noiseChannel) save(s *state.State) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacEnabled)
	s.Write32(uint32(c.lengthCtr))
	s.WriteBool(c.lengthOn)
	s.Write8(c.startVolume)
	s.WriteBool(c.addMode)
	s.Write8(c.envPeriod)
	s.Write8(c.envTimer)
	s.Write8(c.volume)
	s.Write8(c.clockShift)
	s.WriteBool(c.widthMode)
	s.Write8(c.divisorCode)
	s.Write16(c.freqTimer)
	s.Write16(c.lfsr)
}

func (c *noiseChannel) load(s *state.State) {
	c.enabled = s.ReadBool()
	c.dacEnabled = s.ReadBool()
	c.lengthCtr = uint(s.Read32())
	c.lengthOn = s.ReadBool()
	c.startVolume = s.Read8()
	c.addMode = s.ReadBool()
	c.envPeriod = s.Read8()
	c.envTimer = s.Read8()
	c.volume = s.Read8()
	c.clockShift = s.Read8()
	c.widthMode = s.ReadBool()
	c.divisorCode = s.Read8()
	c.freqTimer = s.Read16()
	c.lfsr = s.Read16()
}
