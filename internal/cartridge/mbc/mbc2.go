package mbc

import "github.com/retrohertz/dmgcore/internal/state"

// MBC2 has a fixed 16-bank ROM switch and a built-in 512x4-bit RAM array;
// reads return the stored nibble in the low 4 bits with the high nibble
// forced to 1.
type MBC2 struct {
	rom      []byte
	ram      [512]byte
	romBanks int

	ramEnabled bool
	romBank    uint8
}

// NewMBC2 returns an MBC2 controller.
func NewMBC2(rom []byte) *MBC2 {
	return &MBC2{
		rom:      rom,
		romBanks: bankCount(len(rom), 0x4000),
		romBank:  1,
	}
}

func (m *MBC2) ReadROM(addr uint16) uint8 {
	if addr < 0x4000 {
		return m.rom[addr]
	}
	off := int(m.romBank)%m.romBanks*0x4000 + int(addr-0x4000)
	if off < len(m.rom) {
		return m.rom[off]
	}
	return 0xFF
}

func (m *MBC2) ReadRAM(addr uint16) uint8 {
	if !m.ramEnabled {
		return 0xFF
	}
	return m.ram[addr&0x1FF] | 0xF0
}

func (m *MBC2) WriteRAM(addr uint16, v uint8) {
	if m.ramEnabled {
		m.ram[addr&0x1FF] = v & 0x0F
	}
}

func (m *MBC2) WriteControl(addr uint16, v uint8) {
	if addr >= 0x4000 {
		return
	}
	if addr&0x0100 == 0 {
		m.ramEnabled = v&0x0F == 0x0A
		return
	}
	bank := v & 0x0F
	if bank == 0 {
		bank = 1
	}
	m.romBank = bank
}

func (m *MBC2) RAM() []byte         { return m.ram[:] }
func (m *MBC2) LoadRAM(data []byte) { copy(m.ram[:], data) }

var _ state.Stater = (*MBC2)(nil)

func (m *MBC2) Save(s *state.State) {
	s.WriteRaw(m.ram[:])
	s.WriteBool(m.ramEnabled)
	s.Write8(m.romBank)
}

func (m *MBC2) Load(s *state.State) {
	s.ReadRaw(m.ram[:])
	m.ramEnabled = s.ReadBool()
	m.romBank = s.Read8()
}
