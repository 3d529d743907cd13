package cartridge

import (
	"fmt"
	"strings"
)

// Type is the raw cartridge-type byte at ROM offset 0x0147.
type Type uint8

const (
	ROM               Type = 0x00
	MBC1              Type = 0x01
	MBC1RAM           Type = 0x02
	MBC1RAMBATT       Type = 0x03
	MBC2              Type = 0x05
	MBC2BATT          Type = 0x06
	ROMRAM            Type = 0x08
	ROMRAMBATT        Type = 0x09
	MBC3TIMERBATT     Type = 0x0F
	MBC3TIMERRAMBATT  Type = 0x10
	MBC3              Type = 0x11
	MBC3RAM           Type = 0x12
	MBC3RAMBATT       Type = 0x13
	MBC5              Type = 0x19
	MBC5RAM           Type = 0x1A
	MBC5RAMBATT       Type = 0x1B
	MBC5RUMBLE        Type = 0x1C
	MBC5RUMBLERAM     Type = 0x1D
	MBC5RUMBLERAMBATT Type = 0x1E
)

// batteryBacked lists the cartridge types that participate in
// persistent RAM.
var batteryBacked = map[Type]bool{
	MBC1RAMBATT:       true,
	MBC2BATT:          true,
	ROMRAMBATT:        true,
	MBC3TIMERBATT:     true,
	MBC3TIMERRAMBATT:  true,
	MBC3RAMBATT:       true,
	MBC5RAMBATT:       true,
	MBC5RUMBLERAMBATT: true,
}

var ramSizes = map[uint8]int{
	0x00: 0,
	0x01: 2 * 1024, // unofficial code seen in some dumps; treated as 2KiB
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

// Header is the parsed 0x0100-0x014F cartridge header.
type Header struct {
	Title         string
	CartridgeType Type
	ROMSize       int
	RAMSize       int
	Battery       bool
}

// ParseHeader parses the header embedded in rom. It returns a cartridge
// format error if rom is too short to contain one.
func ParseHeader(rom []byte) (Header, error) {
	if len(rom) < 0x150 {
		return Header{}, fmt.Errorf("cartridge: truncated header: got %d bytes, need at least %d", len(rom), 0x150)
	}

	var h Header
	h.Title = strings.TrimRight(string(rom[0x134:0x144]), "\x00")
	h.CartridgeType = Type(rom[0x147])

	romCode := rom[0x148]
	h.ROMSize = 32 * 1024 * (1 << romCode)

	ramCode := rom[0x149]
	size, ok := ramSizes[ramCode]
	if !ok {
		return Header{}, fmt.Errorf("cartridge: unrecognised RAM size code 0x%02X", ramCode)
	}
	h.RAMSize = size
	h.Battery = batteryBacked[h.CartridgeType]

	return h, nil
}
