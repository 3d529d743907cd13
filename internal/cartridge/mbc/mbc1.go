package mbc

import "github.com/retrohertz/dmgcore/internal/state"

// nintendoLogo is the boot logo embedded at 0x0104-0x0133 in every cartridge
// header; repeated occurrences at 256 KiB strides identify an MBC1
// "multicart" cartridge.
var nintendoLogo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B,
	0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E,
	0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC,
	0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// MBC1 implements the MBC1 bank controller: a 5-bit low ROM-bank selector, a
// 2-bit register shared between the ROM-bank high bits and the RAM bank
// depending on the banking mode, and a RAM-enable gate.
type MBC1 struct {
	rom []byte
	ram []byte

	romBanks, ramBanks int

	ramEnabled bool
	low        uint8 // 0x2000-0x3FFF, 5 bits, 0 treated as 1
	high       uint8 // 0x4000-0x5FFF, 2 bits
	mode       bool  // 0x6000-0x7FFF: false = ROM banking mode, true = RAM banking mode

	multicart bool
}

// NewMBC1 returns an MBC1 controller over rom/ramSize bytes of external RAM.
func NewMBC1(rom []byte, ramSize int) *MBC1 {
	m := &MBC1{
		rom:      rom,
		ram:      make([]byte, ramSize),
		romBanks: bankCount(len(rom), 0x4000),
		ramBanks: bankCount(ramSize, 0x2000),
		low:      1,
	}
	m.detectMulticart()
	return m
}

func (m *MBC1) detectMulticart() {
	if len(m.rom) != 1024*1024 {
		return
	}
	matches := 0
	for bank := 0; bank < 4; bank++ {
		base := bank * 0x40000
		ok := true
		for i, b := range nintendoLogo {
			if base+0x104+i >= len(m.rom) || m.rom[base+0x104+i] != b {
				ok = false
				break
			}
		}
		if ok {
			matches++
		}
	}
	m.multicart = matches > 1
}

func (m *MBC1) bankShift() uint8 {
	if m.multicart {
		return 4
	}
	return 5
}

func (m *MBC1) lowMask() uint8 {
	if m.multicart {
		return 0x0F
	}
	return 0x1F
}

func (m *MBC1) romBank0() int {
	if m.mode {
		return int(m.high<<m.bankShift()) % m.romBanks
	}
	return 0
}

func (m *MBC1) romBankHi() int {
	bank := int(m.low) | int(m.high)<<m.bankShift()
	return bank % m.romBanks
}

func (m *MBC1) ramBank() int {
	if m.mode {
		return int(m.high) % m.ramBanks
	}
	return 0
}

func (m *MBC1) ReadROM(addr uint16) uint8 {
	if addr < 0x4000 {
		return m.rom[m.romBank0()*0x4000+int(addr)]
	}
	off := m.romBankHi()*0x4000 + int(addr-0x4000)
	if off < len(m.rom) {
		return m.rom[off]
	}
	return 0xFF
}

func (m *MBC1) ReadRAM(addr uint16) uint8 {
	if !m.ramEnabled || len(m.ram) == 0 {
		return 0xFF
	}
	off := m.ramBank()*0x2000 + int(addr-0xA000)
	if off < len(m.ram) {
		return m.ram[off]
	}
	return 0xFF
}

func (m *MBC1) WriteRAM(addr uint16, v uint8) {
	if !m.ramEnabled || len(m.ram) == 0 {
		return
	}
	off := m.ramBank()*0x2000 + int(addr-0xA000)
	if off < len(m.ram) {
		m.ram[off] = v
	}
}

func (m *MBC1) WriteControl(addr uint16, v uint8) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = v&0x0F == 0x0A
	case addr < 0x4000:
		v &= m.lowMask()
		if v == 0 {
			v = 1
		}
		m.low = v
	case addr < 0x6000:
		m.high = v & 0x03
	default:
		m.mode = v&0x01 != 0
	}
}

func (m *MBC1) RAM() []byte         { return m.ram }
func (m *MBC1) LoadRAM(data []byte) { copy(m.ram, data) }

var _ state.Stater = (*MBC1)(nil)

func (m *MBC1) Save(s *state.State) {
	s.WriteBytes(m.ram)
	s.WriteBool(m.ramEnabled)
	s.Write8(m.low)
	s.Write8(m.high)
	s.WriteBool(m.mode)
}

func (m *MBC1) Load(s *state.State) {
	copy(m.ram, s.ReadBytes())
	m.ramEnabled = s.ReadBool()
	m.low = s.Read8()
	m.high = s.Read8()
	m.mode = s.ReadBool()
}
