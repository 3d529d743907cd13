package cartridge_test

import (
	"testing"

	"github.com/retrohertz/dmgcore/internal/cartridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalROM(cartType byte, ramCode byte) []byte {
	rom := make([]byte, 0x8000)
	copy(rom[0x134:], []byte("TESTGAME"))
	rom[0x147] = cartType
	rom[0x148] = 0x00 // 32 KiB
	rom[0x149] = ramCode
	return rom
}

func TestLoadRejectsTruncatedROM(t *testing.T) {
	_, err := cartridge.Load(make([]byte, 0x10))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownCartridgeType(t *testing.T) {
	rom := minimalROM(0x7F, 0x00)
	_, err := cartridge.Load(rom)
	assert.Error(t, err)
}

func TestLoadDispatchesMBC1(t *testing.T) {
	rom := minimalROM(byte(cartridge.MBC1RAMBATT), 0x02)
	c, err := cartridge.Load(rom)
	require.NoError(t, err)
	assert.True(t, c.Battery())
	assert.Equal(t, "TESTGAME", c.Title())
}

func TestChecksumIsDeterministicForSameROM(t *testing.T) {
	rom := minimalROM(byte(cartridge.ROM), 0x00)
	a, err := cartridge.Load(rom)
	require.NoError(t, err)
	b, err := cartridge.Load(append([]byte(nil), rom...))
	require.NoError(t, err)
	assert.Equal(t, a.Checksum(), b.Checksum())
}

func TestChecksumDiffersForDifferentROM(t *testing.T) {
	romA := minimalROM(byte(cartridge.ROM), 0x00)
	romB := minimalROM(byte(cartridge.ROM), 0x00)
	romB[0x200] = 0xFF

	a, err := cartridge.Load(romA)
	require.NoError(t, err)
	b, err := cartridge.Load(romB)
	require.NoError(t, err)
	assert.NotEqual(t, a.Checksum(), b.Checksum())
}
