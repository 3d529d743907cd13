package ppu

import (
	"testing"

	"github.com/retrohertz/dmgcore/internal/interrupts"
	"github.com/stretchr/testify/assert"
)

func newRendererTestPPU() *PPU {
	var vram [0x2000]byte
	var oam [0xA0]byte
	return New(&vram, &oam, interrupts.New())
}

func TestRenderBackgroundDecodesTilePixelsThroughPalette(t *testing.T) {
	p := newRendererTestPPU()
	p.LCDC = 0x91 // LCD+BG on, unsigned tile addressing, BG map at 0x9800
	p.BGP = 0xE4  // identity-ish palette: index n maps to shade n

	// Tile 0 at 0x8000, row 0: low plane all 1s, high plane all 0s -> color
	// index 1 for every column in that row.
	p.vram[0x8000-0x8000] = 0xFF
	p.vram[0x8001-0x8000] = 0x00
	// tile map entry (0,0) already zero -> tile index 0.

	p.renderScanline()

	for x := 0; x < 8; x++ {
		assert.Equal(t, uint8(1), p.FB[0][x])
	}
}

func TestRenderWindowOnlyAdvancesLineCounterWhenVisible(t *testing.T) {
	p := newRendererTestPPU()
	p.LCDC = 0xB1 // LCD+BG+window on, window map 0x9800
	p.WY = 0
	p.WX = 200 // off the right edge of the 160px screen: never visible

	p.renderScanline()
	assert.Equal(t, uint8(0), p.windowLine)
}

func TestRenderWindowAdvancesLineCounterWhenVisible(t *testing.T) {
	p := newRendererTestPPU()
	p.LCDC = 0xB1
	p.WY = 0
	p.WX = 7 // window starts at screen column 0

	p.renderScanline()
	assert.Equal(t, uint8(1), p.windowLine)
}

func TestSpriteTransparentColorZeroDoesNotOverwriteBackground(t *testing.T) {
	p := newRendererTestPPU()
	p.LCDC = 0x93 // LCD+BG+sprites on, 8x8 sprites
	p.BGP = 0xE4
	p.OBP0 = 0xE4

	// Background tile 0, row 0: all color index 1 (same trick as above).
	p.vram[0] = 0xFF
	p.vram[1] = 0x00

	// Sprite 0 at OAM: y=16 (screen y=0), x=8 (screen x=0), tile 1, OBP0.
	p.oam[0] = 16
	p.oam[1] = 8
	p.oam[2] = 1
	p.oam[3] = 0x00
	// Tile 1 at 0x8010, row 0: all zero bits -> transparent (color index 0).
	p.vram[0x8010-0x8000] = 0x00
	p.vram[0x8011-0x8000] = 0x00

	p.renderScanline()

	// Background color 1 must still show through the transparent sprite pixel.
	assert.Equal(t, decodePalette(0xE4)[1], p.FB[0][0])
}

func TestTallSpriteUsesEvenTileIndexRegardlessOfOddSelection(t *testing.T) {
	p := newRendererTestPPU()
	p.LCDC = 0x97 // LCD+BG+sprites on, 8x16 tall sprites
	p.OBP0 = 0xE4

	// Odd tile index 5 selected; tall sprites must clear bit 0 to use tile 4
	// as the top half. Put distinct, non-transparent pixel data only in
	// tile 4's second row so only the masked (even) tile is visible.
	p.vram[0x8000+4*16+2-0x8000] = 0xFF // tile 4, row 1, low plane
	p.vram[0x8000+5*16+2-0x8000] = 0x00 // tile 5, row 1, low plane (unused)

	p.oam[0] = 16 // sy = 0
	p.oam[1] = 8  // sx = 0
	p.oam[2] = 5  // odd tile index
	p.oam[3] = 0x00

	p.LY = 1
	p.renderScanline()

	assert.Equal(t, decodePalette(0xE4)[1], p.FB[1][0])
}
