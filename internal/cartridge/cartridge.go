// Package cartridge parses the DMG ROM header and dispatches to the right
// bank controller variant.
package cartridge

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/retrohertz/dmgcore/internal/cartridge/mbc"
	"github.com/retrohertz/dmgcore/internal/state"
)

// Cartridge owns the parsed header and the selected bank controller.
type Cartridge struct {
	mbc.Controller
	header   Header
	checksum uint64
}

// Load parses rom and constructs the matching bank controller. It returns a
// cartridge format error for a truncated header or an unrecognised
// cartridge type; the core is not initialized in that case.
func Load(rom []byte) (*Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}

	var ctrl mbc.Controller
	switch h.CartridgeType {
	case ROM, ROMRAM, ROMRAMBATT:
		ctrl = mbc.NewNone(rom, h.RAMSize)
	case MBC1, MBC1RAM, MBC1RAMBATT:
		ctrl = mbc.NewMBC1(rom, h.RAMSize)
	case MBC2, MBC2BATT:
		ctrl = mbc.NewMBC2(rom)
	case MBC3, MBC3RAM, MBC3RAMBATT, MBC3TIMERBATT, MBC3TIMERRAMBATT:
		ctrl = mbc.NewMBC3(rom, h.RAMSize)
	case MBC5, MBC5RAM, MBC5RAMBATT, MBC5RUMBLE, MBC5RUMBLERAM, MBC5RUMBLERAMBATT:
		ctrl = mbc.NewMBC5(rom, h.RAMSize)
	default:
		return nil, fmt.Errorf("cartridge: unsupported cartridge type 0x%02X", h.CartridgeType)
	}

	return &Cartridge{
		Controller: ctrl,
		header:     h,
		checksum:   xxhash.Sum64(rom),
	}, nil
}

// Header returns the parsed cartridge header.
func (c *Cartridge) Header() Header { return c.header }

// Title returns the cartridge's ASCII title.
func (c *Cartridge) Title() string { return c.header.Title }

// Battery reports whether the cartridge participates in persistent RAM.
func (c *Cartridge) Battery() bool { return c.header.Battery }

// Checksum returns an xxhash identity hash of the loaded ROM image, suitable
// as a persistent-RAM filename key.
func (c *Cartridge) Checksum() uint64 { return c.checksum }

var _ state.Stater = (*Cartridge)(nil)
