package apu

import "github.com/retrohertz/dmgcore/internal/state"

// waveChannel implements NR30-NR34: a 32-sample, 4-bit programmable
// waveform played back from wave RAM.
type waveChannel struct {
	enabled    bool
	dacEnabled bool

	lengthCtr uint
	lengthOn  bool

	volumeShift uint8

	freq      uint16
	freqTimer uint16

	position     uint8
	sampleBuffer uint8
	ram          [16]byte
}

func newWaveChannel() *waveChannel {
	return &waveChannel{volumeShift: 4}
}

func (c *waveChannel) step() {
	if c.freqTimer == 0 {
		c.freqTimer = (2048 - c.freq) * 2
		c.position = (c.position + 1) % 32
		sample := c.ram[c.position/2]
		if c.position%2 == 0 {
			sample >>= 4
		} else {
			sample &= 0x0F
		}
		c.sampleBuffer = sample
		return
	}
	c.freqTimer--
}

func (c *waveChannel) lengthStep() {
	if c.lengthOn && c.lengthCtr > 0 {
		c.lengthCtr--
		if c.lengthCtr == 0 {
			c.enabled = false
		}
	}
}

func (c *waveChannel) amplitude() float32 {
	if !c.enabled || !c.dacEnabled {
		return 0
	}
	v := c.sampleBuffer >> c.volumeShift
	return float32(v)/7.5 - 1
}

func (c *waveChannel) read(reg uint16) uint8 {
	switch reg {
	case 0: // NR30
		b := uint8(0)
		if c.dacEnabled {
			b |= 0x80
		}
		return b | 0x7F
	case 1: // NR31
		return 0xFF
	case 2: // NR32
		return c.volumeCode()<<5 | 0x9F
	case 3: // NR33
		return 0xFF
	case 4: // NR34
		b := uint8(0)
		if c.lengthOn {
			b |= 0x40
		}
		return b | 0xBF
	default:
		return 0xFF
	}
}

func (c *waveChannel) volumeCode() uint8 {
	switch c.volumeShift {
	case 4:
		return 0
	case 0:
		return 1
	case 1:
		return 2
	case 2:
		return 3
	default:
		return 0
	}
}

func (c *waveChannel) write(reg uint16, v uint8, firstHalf bool) {
	switch reg {
	case 0:
		c.dacEnabled = v&0x80 != 0
		if !c.dacEnabled {
			c.enabled = false
		}
	case 1:
		c.lengthCtr = 256 - uint(v)
	case 2:
		switch (v & 0x60) >> 5 {
		case 0:
			c.volumeShift = 4
		case 1:
			c.volumeShift = 0
		case 2:
			c.volumeShift = 1
		case 3:
			c.volumeShift = 2
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
			c.enabled = c.dacEnabled
			if c.lengthCtr == 0 {
				c.lengthCtr = 256
				if c.lengthOn && firstHalf {
					c.lengthCtr--
				}
			}
			c.position = 0
			c.freqTimer = (2048-c.freq)*2 + 6
		}
	}
}

// readRAM/writeRAM service 0xFF30-0xFF3F directly; wave RAM is always
// addressable regardless of channel state or APU power.
func (c *waveChannel) readRAM(off uint16) uint8  { return c.ram[off] }
func (c *waveChannel) writeRAM(off uint16, v uint8) { c.ram[off] = v }

func (c *waveChannel) powerOff() {
	ram := c.ram
	*c = waveChannel{}
	c.ram = ram
}

func (c *waveChannel) save(s *state.State) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacEnabled)
	s.Write32(uint32(c.lengthCtr))
	s.WriteBool(c.lengthOn)
	s.Write8(c.volumeShift)
	s.Write16(c.freq)
	s.Write16(c.freqTimer)
	s.Write8(c.position)
	s.Write8(c.sampleBuffer)
	s.WriteRaw(c.ram[:])
}

func (c *waveChannel) load(s *state.State) {
	c.enabled = s.ReadBool()
	c.dacEnabled = s.ReadBool()
	c.lengthCtr = uint(s.Read32())
	c.lengthOn = s.ReadBool()
	c.volumeShift = s.Read8()
	c.freq = s.Read16()
	c.freqTimer = s.Read16()
	c.position = s.Read8()
	c.sampleBuffer = s.Read8()
	s.ReadRaw(c.ram[:])
}
