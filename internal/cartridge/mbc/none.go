package mbc

import "github.com/retrohertz/dmgcore/internal/state"

// None is a flat 32 KiB ROM with an optional flat RAM region and no bank
// switching at all, the "NoMBC" variant.
type None struct {
	rom []byte
	ram []byte
}

// NewNone returns a None controller. rom is padded to 32 KiB if shorter.
func NewNone(rom []byte, ramSize int) *None {
	if len(rom) < 0x8000 {
		padded := make([]byte, 0x8000)
		copy(padded, rom)
		for i := len(rom); i < 0x8000; i++ {
			padded[i] = 0xFF
		}
		rom = padded
	}
	return &None{rom: rom, ram: make([]byte, ramSize)}
}

func (m *None) ReadROM(addr uint16) uint8 {
	if int(addr) < len(m.rom) {
		return m.rom[addr]
	}
	return 0xFF
}

func (m *None) ReadRAM(addr uint16) uint8 {
	off := addr - 0xA000
	if int(off) < len(m.ram) {
		return m.ram[off]
	}
	return 0xFF
}

func (m *None) WriteRAM(addr uint16, v uint8) {
	off := addr - 0xA000
	if int(off) < len(m.ram) {
		m.ram[off] = v
	}
}

func (m *None) WriteControl(uint16, uint8) {}

func (m *None) RAM() []byte         { return m.ram }
func (m *None) LoadRAM(data []byte) { copy(m.ram, data) }

func (m *None) Save(s *state.State) { s.WriteBytes(m.ram) }
func (m *None) Load(s *state.State) { copy(m.ram, s.ReadBytes()) }
