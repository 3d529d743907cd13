package ppu

// sprite mirrors one 4-byte OAM entry.
type sprite struct {
	y, x, tile, attr uint8
}

// renderScanline materializes the 160-pixel line at LY, in the order
// background, window, sprites.
func (p *PPU) renderScanline() {
	var bgColor [ScreenWidth]uint8 // raw 2-bit index before palette, for sprite priority

	if p.LCDC&0x01 != 0 {
		p.renderBackground(&bgColor)
	}
	if p.LCDC&0x20 != 0 && p.WY <= p.LY && int(p.WX)-7 <= ScreenWidth-1 {
		p.renderWindow(&bgColor)
	}
	if p.LCDC&0x02 != 0 {
		p.renderSprites(&bgColor)
	}
}

func (p *PPU) bgTileData(tileIndex uint8, signed bool) uint16 {
	if signed {
		return uint16(0x9000 + int(int8(tileIndex))*16)
	}
	return 0x8000 + uint16(tileIndex)*16
}

func (p *PPU) tilePixel(tileAddr uint16, row, col uint8) uint8 {
	lo := p.ReadVRAM(tileAddr + uint16(row)*2 - 0x8000)
	hi := p.ReadVRAM(tileAddr+uint16(row)*2+1-0x8000)
	bit := 7 - col
	loBit := (lo >> bit) & 1
	hiBit := (hi >> bit) & 1
	return hiBit<<1 | loBit
}

func decodePalette(pal uint8) [4]uint8 {
	return [4]uint8{pal & 0x03, (pal >> 2) & 0x03, (pal >> 4) & 0x03, (pal >> 6) & 0x03}
}

func (p *PPU) renderBackground(raw *[ScreenWidth]uint8) {
	mapBase := uint16(0x9800)
	if p.LCDC&0x08 != 0 {
		mapBase = 0x9C00
	}
	signed := p.LCDC&0x10 == 0
	pal := decodePalette(p.BGP)

	y := (p.LY + p.SCY) & 0xFF
	tileRow := uint16(y/8) * 32
	rowInTile := y % 8

	for x := uint16(0); x < ScreenWidth; x++ {
		px := uint8((x + uint16(p.SCX)) & 0xFF)
		tileCol := uint16(px / 8)
		colInTile := px % 8

		tileIndex := p.ReadVRAM(mapBase + tileRow + tileCol - 0x8000)
		tileAddr := p.bgTileData(tileIndex, signed)
		colorIdx := p.tilePixel(tileAddr, rowInTile, colInTile)

		raw[x] = colorIdx
		p.FB[p.LY][x] = pal[colorIdx]
	}
}

func (p *PPU) renderWindow(raw *[ScreenWidth]uint8) {
	mapBase := uint16(0x9800)
	if p.LCDC&0x40 != 0 {
		mapBase = 0x9C00
	}
	signed := p.LCDC&0x10 == 0
	pal := decodePalette(p.BGP)

	wx := int(p.WX) - 7
	contributed := false

	tileRow := uint16(p.windowLine/8) * 32
	rowInTile := p.windowLine % 8

	for x := 0; x < ScreenWidth; x++ {
		if x < wx {
			continue
		}
		contributed = true
		wxPix := uint16(x - wx)
		tileCol := wxPix / 8
		colInTile := uint8(wxPix % 8)

		tileIndex := p.ReadVRAM(mapBase + tileRow + tileCol - 0x8000)
		tileAddr := p.bgTileData(tileIndex, signed)
		colorIdx := p.tilePixel(tileAddr, rowInTile, colInTile)

		raw[x] = colorIdx
		p.FB[p.LY][x] = pal[colorIdx]
	}
	if contributed {
		p.windowLine++
	}
}

func (p *PPU) renderSprites(raw *[ScreenWidth]uint8) {
	tall := p.LCDC&0x04 != 0
	height := uint8(8)
	if tall {
		height = 16
	}

	var visible []sprite
	for i := 0; i < 40 && len(visible) < 10; i++ {
		base := uint16(i * 4)
		sy := p.ReadOAM(base) - 16
		if p.LY < sy || p.LY >= sy+height {
			continue
		}
		visible = append(visible, sprite{
			y:    sy,
			x:    p.ReadOAM(base+1) - 8,
			tile: p.ReadOAM(base + 2),
			attr: p.ReadOAM(base + 3),
		})
	}

	// Draw in descending X order so lower X (drawn last) wins ties.
	for i := 0; i < len(visible); i++ {
		for j := i + 1; j < len(visible); j++ {
			if visible[j].x > visible[i].x {
				visible[i], visible[j] = visible[j], visible[i]
			}
		}
	}

	for _, s := range visible {
		p.renderSprite(s, height, tall, raw)
	}
}

func (p *PPU) renderSprite(s sprite, height uint8, tall bool, raw *[ScreenWidth]uint8) {
	flipY := s.attr&0x40 != 0
	flipX := s.attr&0x20 != 0
	behindBG := s.attr&0x80 != 0
	useOBP1 := s.attr&0x10 != 0

	row := p.LY - s.y
	if flipY {
		row = height - 1 - row
	}

	tile := s.tile
	if tall {
		tile &^= 0x01
	}
	tileAddr := uint16(0x8000) + uint16(tile)*16

	var pal [4]uint8
	if useOBP1 {
		pal = decodePalette(p.OBP1)
	} else {
		pal = decodePalette(p.OBP0)
	}

	for col := uint8(0); col < 8; col++ {
		px := int(s.x) + int(col)
		if px < 0 || px >= ScreenWidth {
			continue
		}
		srcCol := col
		if flipX {
			srcCol = 7 - col
		}
		colorIdx := p.tilePixel(tileAddr, row, srcCol)
		if colorIdx == 0 {
			continue // transparent
		}
		if behindBG && raw[px] != 0 {
			continue
		}
		p.FB[p.LY][px] = pal[colorIdx]
	}
}
