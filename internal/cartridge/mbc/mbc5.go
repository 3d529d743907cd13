package mbc

import "github.com/retrohertz/dmgcore/internal/state"

// MBC5 implements the MBC5 bank controller: a 9-bit ROM bank split across two registers
// (no "0 maps to 1" fixup, unlike the earlier controllers) and a 4-bit RAM
// bank.
type MBC5 struct {
	rom      []byte
	ram      []byte
	romBanks int
	ramBanks int

	ramEnabled bool
	romBank    uint16
	ramBank    uint8
}

// NewMBC5 returns an MBC5 controller.
func NewMBC5(rom []byte, ramSize int) *MBC5 {
	return &MBC5{
		rom:      rom,
		ram:      make([]byte, ramSize),
		romBanks: bankCount(len(rom), 0x4000),
		ramBanks: bankCount(ramSize, 0x2000),
		romBank:  1,
	}
}

func (m *MBC5) ReadROM(addr uint16) uint8 {
	if addr < 0x4000 {
		return m.rom[addr]
	}
	off := int(m.romBank)%m.romBanks*0x4000 + int(addr-0x4000)
	if off < len(m.rom) {
		return m.rom[off]
	}
	return 0xFF
}

func (m *MBC5) ReadRAM(addr uint16) uint8 {
	if !m.ramEnabled || len(m.ram) == 0 {
		return 0xFF
	}
	off := int(m.ramBank)%m.ramBanks*0x2000 + int(addr-0xA000)
	if off < len(m.ram) {
		return m.ram[off]
	}
	return 0xFF
}

func (m *MBC5) WriteRAM(addr uint16, v uint8) {
	if !m.ramEnabled || len(m.ram) == 0 {
		return
	}
	off := int(m.ramBank)%m.ramBanks*0x2000 + int(addr-0xA000)
	if off < len(m.ram) {
		m.ram[off] = v
	}
}

func (m *MBC5) WriteControl(addr uint16, v uint8) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = v&0x0F == 0x0A
	case addr < 0x3000:
		m.romBank = (m.romBank & 0x100) | uint16(v)
	case addr < 0x4000:
		m.romBank = (m.romBank & 0x0FF) | (uint16(v&0x01) << 8)
	case addr < 0x6000:
		m.ramBank = v & 0x0F
	}
}

func (m *MBC5) RAM() []byte         { return m.ram }
func (m *MBC5) LoadRAM(data []byte) { copy(m.ram, data) }

var _ state.Stater = (*MBC5)(nil)

func (m *MBC5) Save(s *state.State) {
	s.WriteBytes(m.ram)
	s.WriteBool(m.ramEnabled)
	s.Write16(m.romBank)
	s.Write8(m.ramBank)
}

func (m *MBC5) Load(s *state.State) {
	copy(m.ram, s.ReadBytes())
	m.ramEnabled = s.ReadBool()
	m.romBank = s.Read16()
	m.ramBank = s.Read8()
}
