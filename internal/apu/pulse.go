package apu

import "github.com/retrohertz/dmgcore/internal/state"

var dutyTable = [4][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 1, 1, 1},
	{0, 1, 1, 1, 1, 1, 1, 0},
}

// pulseChannel implements NR10-NR14 when hasSweep is true (channel 1) and
// NR21-NR24 otherwise (channel 2): a duty-cycle square wave with a volume
// envelope, length counter, and an optional frequency sweep.
type pulseChannel struct {
	hasSweep bool

	enabled    bool
	dacEnabled bool

	duty      uint8
	dutyPos   uint8
	lengthCtr uint
	lengthOn  bool

	freq      uint16
	freqTimer uint16

	startVolume uint8
	addMode     bool
	envPeriod   uint8
	envTimer    uint8
	volume      uint8

	sweepPeriod uint8
	sweepShift  uint8
	sweepNegate bool
	sweepTimer  uint8
	shadowFreq  uint16
	sweepOn     bool
	negateUsed  bool
}

func newPulseChannel(hasSweep bool) *pulseChannel {
	c := &pulseChannel{hasSweep: hasSweep}
	if hasSweep {
		c.duty = 2
		c.startVolume = 0xF
		c.envPeriod = 3
		c.dacEnabled = true
	}
	return c
}

func (c *pulseChannel) step() {
	if c.freqTimer == 0 {
		c.freqTimer = (2048 - c.freq) * 4
		c.dutyPos = (c.dutyPos + 1) & 7
		return
	}
	c.freqTimer--
}

func (c *pulseChannel) lengthStep() {
	if c.lengthOn && c.lengthCtr > 0 {
		c.lengthCtr--
		if c.lengthCtr == 0 {
			c.enabled = false
		}
	}
}

func (c *pulseChannel) envelopeStep() {
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

func (c *pulseChannel) sweepClock() {
	if !c.hasSweep {
		return
	}
	if c.sweepTimer > 0 {
		c.sweepTimer--
	}
	if c.sweepTimer != 0 {
		return
	}
	if c.sweepPeriod > 0 {
		c.sweepTimer = c.sweepPeriod
	} else {
		c.sweepTimer = 8
	}
	if c.sweepOn && c.sweepPeriod > 0 {
		next := c.sweepCalc()
		if next <= 0x7FF && c.sweepShift > 0 {
			c.shadowFreq = next
			c.freq = next
			c.sweepCalc()
		}
	}
}

func (c *pulseChannel) sweepCalc() uint16 {
	delta := c.shadowFreq >> c.sweepShift
	next := c.shadowFreq + delta
	if c.sweepNegate {
		next = c.shadowFreq - delta
	}
	c.negateUsed = c.sweepNegate
	if next > 0x7FF {
		c.enabled = false
	}
	return next
}

func (c *pulseChannel) amplitude() float32 {
	if !c.enabled || !c.dacEnabled {
		return 0
	}
	raw := dutyTable[c.duty][c.dutyPos] * c.volume
	return float32(raw)/7.5 - 1
}

// read reconstructs the register byte for reg offsets 0 (NRx0), 1 (NRx1),
// 2 (NRx2), 3 (NRx3), 4 (NRx4) relative to the channel's base address.
func (c *pulseChannel) read(reg uint16) uint8 {
	switch reg {
	case 0:
		if !c.hasSweep {
			return 0xFF
		}
		b := (c.sweepPeriod << 4) | c.sweepShift
		if c.sweepNegate {
			b |= 0x08
		}
		return b | 0x80
	case 1:
		return c.duty<<6 | 0x3F
	case 2:
		b := c.startVolume<<4 | c.envPeriod
		if c.addMode {
			b |= 0x08
		}
		return b
	case 3:
		return 0xFF
	case 4:
		b := uint8(0)
		if c.lengthOn {
			b |= 0x40
		}
		return b | 0xBF
	default:
		return 0xFF
	}
}

func (c *pulseChannel) write(reg uint16, v uint8, firstHalf bool) {
	switch reg {
	case 0:
		if !c.hasSweep {
			return
		}
		c.sweepPeriod = (v & 0x70) >> 4
		c.sweepNegate = v&0x08 != 0
		c.sweepShift = v & 0x07
		if !c.sweepNegate && c.negateUsed {
			c.enabled = false
		}
	case 1:
		c.duty = (v & 0xC0) >> 6
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
		c.freq = (c.freq & 0x700) | uint16(v)
	case 4:
		c.freq = (c.freq & 0x0FF) | (uint16(v&0x07) << 8)
		lengthOn := v&0x40 != 0
		if firstHalf && !c.lengthOn && lengthOn && c.lengthCtr > 0 {
			c.lengthCtr--
			if c.lengthCtr == 0 {
				c.enabled = false
			}
		}
		c.lengthOn = lengthOn
		if v&0x80 != 0 {
			c.trigger(firstHalf)
		}
	}
}

func (c *pulseChannel) trigger(firstHalf bool) {
	c.enabled = c.dacEnabled
	if c.lengthCtr == 0 {
		c.lengthCtr = 64
		if c.lengthOn && firstHalf {
			c.lengthCtr--
		}
	}
	c.envTimer = c.envPeriod
	c.volume = c.startVolume
	if c.hasSweep {
		c.shadowFreq = c.freq
		if c.sweepPeriod > 0 {
			c.sweepTimer = c.sweepPeriod
		} else {
			c.sweepTimer = 8
		}
		c.sweepOn = c.sweepPeriod > 0 || c.sweepShift > 0
		c.negateUsed = false
		if c.sweepShift > 0 {
			c.sweepCalc()
		}
	}
}

func (c *pulseChannel) save(s *state.State) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacEnabled)
	s.Write8(c.duty)
	s.Write8(c.dutyPos)
	s.Write32(uint32(c.lengthCtr))
	s.WriteBool(c.lengthOn)
	s.Write16(c.freq)
	s.Write16(c.freqTimer)
	s.Write8(c.startVolume)
	s.WriteBool(c.addMode)
	s.Write8(c.envPeriod)
	s.Write8(c.envTimer)
	s.Write8(c.volume)
	s.Write8(c.sweepPeriod)
	s.Write8(c.sweepShift)
	s.WriteBool(c.sweepNegate)
	s.Write8(c.sweepTimer)
	s.Write16(c.shadowFreq)
	s.WriteBool(c.sweepOn)
	s.WriteBool(c.negateUsed)
}

func (c *pulseChannel) load(s *state.State) {
	c.enabled = s.ReadBool()
	c.dacEnabled = s.ReadBool()
	c.duty = s.Read8()
	c.dutyPos = s.Read8()
	c.lengthCtr = uint(s.Read32())
	c.lengthOn = s.ReadBool()
	c.freq = s.Read16()
	c.freqTimer = s.Read16()
	c.startVolume = s.Read8()
	c.addMode = s.ReadBool()
	c.envPeriod = s.Read8()
	c.envTimer = s.Read8()
	c.volume = s.Read8()
	c.sweepPeriod = s.Read8()
	c.sweepShift = s.Read8()
	c.sweepNegate = s.ReadBool()
	c.sweepTimer = s.Read8()
	c.shadowFreq = s.Read16()
	c.sweepOn = s.ReadBool()
	c.negateUsed = s.ReadBool()
}
