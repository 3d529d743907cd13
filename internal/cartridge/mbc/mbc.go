// Package mbc implements the cartridge-side bank controllers: None, MBC1,
// MBC2, MBC3 (with RTC), and MBC5. Each variant translates guest addresses
// in 0x0000-0x7FFF and 0xA000-0xBFFF into offsets within its own rom/ram
// slices and reacts to "control writes" into the ROM address space.
package mbc

import "github.com/retrohertz/dmgcore/internal/state"

// Controller is the interface the bus talks to for every cartridge region.
// ReadROM/ReadRAM/WriteRAM/WriteControl are all total: they never fail, per
// the bus's total-access contract.
type Controller interface {
	// ReadROM reads from 0x0000-0x7FFF.
	ReadROM(addr uint16) uint8
	// ReadRAM reads from 0xA000-0xBFFF (or the RTC register, for MBC3).
	ReadRAM(addr uint16) uint8
	// WriteRAM writes to 0xA000-0xBFFF.
	WriteRAM(addr uint16, v uint8)
	// WriteControl handles writes into 0x0000-0x7FFF, which on real
	// hardware never touch ROM but instead latch bank-select state.
	WriteControl(addr uint16, v uint8)

	// RAM returns the live external-RAM contents for persistence.
	RAM() []byte
	// LoadRAM overwrites the external RAM with previously-saved bytes.
	LoadRAM(data []byte)

	state.Stater
}

// bankCount returns how many n-byte banks fit in size, at least 1.
func bankCount(size, bankSize int) int {
	n := size / bankSize
	if n < 1 {
		return 1
	}
	return n
}
