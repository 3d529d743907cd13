// Package ppu implements the scanline-based tile/sprite/window renderer:
// the mode state machine, VBLANK/STAT interrupt sources, and the
// 160x144x2-bit framebuffer.
package ppu

import (
	"github.com/retrohertz/dmgcore/internal/interrupts"
	"github.com/retrohertz/dmgcore/internal/state"
)

const (
	ScreenWidth  = 160
	ScreenHeight = 144

	dotsPerLine = 456
	oamDots     = 80
	transferEnd = oamDots + 172 // 252

	// Mode values, matching the low 2 bits of STAT.
	ModeHBlank   = 0
	ModeVBlank   = 1
	ModeOAM      = 2
	ModeTransfer = 3
)

// Framebuffer is a fixed 160x144 grid of 2-bit color indices, a single 2D
// byte buffer rather than a packed bitstream.
type Framebuffer [ScreenHeight][ScreenWidth]uint8

// PPU holds every PPU register plus the internal mode/dot/line state.
type PPU struct {
	LCDC, STAT         uint8
	SCY, SCX           uint8
	LY, LYC            uint8
	BGP, OBP0, OBP1    uint8
	WY, WX             uint8

	mode        uint8
	dotCounter  uint16
	windowLine  uint8
	frameReady  bool
	prevLYCHit  bool

	vram *[0x2000]byte
	oam  *[0xA0]byte
	irq  *interrupts.Service

	FB Framebuffer
}

// New returns a PPU with the power-on defaults (LCDC=0x91, STAT=0x85,
// BGP=0xFC, OBP0=OBP1=0xFF), wired directly to the bus's VRAM/OAM arrays.
func New(vram *[0x2000]byte, oam *[0xA0]byte, irq *interrupts.Service) *PPU {
	return &PPU{
		LCDC: 0x91,
		STAT: 0x85,
		BGP:  0xFC,
		OBP0: 0xFF,
		OBP1: 0xFF,
		mode: ModeOAM,
		vram: vram,
		oam:  oam,
		irq:  irq,
	}
}

func (p *PPU) lcdEnabled() bool { return p.LCDC&0x80 != 0 }

// FrameReady reports (and clears) the frame-ready edge flag.
func (p *PPU) FrameReady() bool {
	if p.frameReady {
		p.frameReady = false
		return true
	}
	return false
}

// Tick advances the PPU by tCycles T-cycles.
func (p *PPU) Tick(tCycles uint8) {
	if !p.lcdEnabled() {
		p.mode = ModeHBlank
		p.LY = 0
		p.dotCounter = 0
		return
	}
	for i := uint8(0); i < tCycles; i++ {
		p.tickDot()
	}
}

func (p *PPU) tickDot() {
	p.dotCounter++

	if p.LY < ScreenHeight {
		switch {
		case p.dotCounter == oamDots:
			p.setMode(ModeTransfer)
		case p.dotCounter == transferEnd:
			p.renderScanline()
			p.setMode(ModeHBlank)
		}
	}

	if p.dotCounter >= dotsPerLine {
		p.dotCounter = 0
		p.LY++
		if p.LY == ScreenHeight {
			p.setMode(ModeVBlank)
			p.irq.Request(interrupts.VBlank)
			p.frameReady = true
		} else if p.LY == 154 {
			p.LY = 0
			p.windowLine = 0
			p.setMode(ModeOAM)
		} else if p.LY < ScreenHeight {
			p.setMode(ModeOAM)
		}
		p.checkLYC()
	}
}

func (p *PPU) setMode(m uint8) {
	if p.mode == m {
		return
	}
	p.mode = m
	switch m {
	case ModeHBlank:
		if p.STAT&0x08 != 0 {
			p.irq.Request(interrupts.LCDStat)
		}
	case ModeVBlank:
		if p.STAT&0x10 != 0 {
			p.irq.Request(interrupts.LCDStat)
		}
	case ModeOAM:
		if p.STAT&0x20 != 0 {
			p.irq.Request(interrupts.LCDStat)
		}
	}
}

func (p *PPU) checkLYC() {
	hit := p.LY == p.LYC
	if hit && !p.prevLYCHit && p.STAT&0x40 != 0 {
		p.irq.Request(interrupts.LCDStat)
	}
	p.prevLYCHit = hit
}

// ReadRegister services the 0xFF40-0xFF4B window (0xFF46/DMA is handled by
// the bus).
func (p *PPU) ReadRegister(addr uint16) uint8 {
	switch addr {
	case 0xFF40:
		return p.LCDC
	case 0xFF41:
		lycBit := uint8(0)
		if p.LY == p.LYC {
			lycBit = 0x04
		}
		return 0x80 | (p.STAT & 0x78) | lycBit | p.mode
	case 0xFF42:
		return p.SCY
	case 0xFF43:
		return p.SCX
	case 0xFF44:
		if !p.lcdEnabled() {
			return 0
		}
		return p.LY
	case 0xFF45:
		return p.LYC
	case 0xFF47:
		return p.BGP
	case 0xFF48:
		return p.OBP0
	case 0xFF49:
		return p.OBP1
	case 0xFF4A:
		return p.WY
	case 0xFF4B:
		return p.WX
	default:
		return 0xFF
	}
}

func (p *PPU) WriteRegister(addr uint16, v uint8) {
	switch addr {
	case 0xFF40:
		wasOn := p.lcdEnabled()
		p.LCDC = v
		if !wasOn && p.lcdEnabled() {
			p.mode = ModeOAM
			p.dotCounter = 0
			p.LY = 0
		}
	case 0xFF41:
		p.STAT = v & 0x78
	case 0xFF42:
		p.SCY = v
	case 0xFF43:
		p.SCX = v
	case 0xFF44:
		// read-only
	case 0xFF45:
		p.LYC = v
	case 0xFF47:
		p.BGP = v
	case 0xFF48:
		p.OBP0 = v
	case 0xFF49:
		p.OBP1 = v
	case 0xFF4A:
		p.WY = v
	case 0xFF4B:
		p.WX = v
	}
}

// ReadVRAM/ReadOAM give the renderer read access to the bus-owned VRAM and
// OAM arrays; addr is an offset from the start of each array.
func (p *PPU) ReadVRAM(addr uint16) uint8 { return p.vram[addr] }
func (p *PPU) ReadOAM(addr uint16) uint8  { return p.oam[addr] }

var _ state.Stater = (*PPU)(nil)

func (p *PPU) Save(s *state.State) {
	s.Write8(p.LCDC)
	s.Write8(p.STAT)
	s.Write8(p.SCY)
	s.Write8(p.SCX)
	s.Write8(p.LY)
	s.Write8(p.LYC)
	s.Write8(p.BGP)
	s.Write8(p.OBP0)
	s.Write8(p.OBP1)
	s.Write8(p.WY)
	s.Write8(p.WX)
	s.Write8(p.mode)
	s.Write16(p.dotCounter)
	s.Write8(p.windowLine)
	s.WriteBool(p.frameReady)
	s.WriteBool(p.prevLYCHit)
	for y := 0; y < ScreenHeight; y++ {
		s.WriteRaw(p.FB[y][:])
	}
}

func (p *PPU) Load(s *state.State) {
	p.LCDC = s.Read8()
	p.STAT = s.Read8()
	p.SCY = s.Read8()
	p.SCX = s.Read8()
	p.LY = s.Read8()
	p.LYC = s.Read8()
	p.BGP = s.Read8()
	p.OBP0 = s.Read8()
	p.OBP1 = s.Read8()
	p.WY = s.Read8()
	p.WX = s.Read8()
	p.mode = s.Read8()
	p.dotCounter = s.Read16()
	p.windowLine = s.Read8()
	p.frameReady = s.ReadBool()
	p.prevLYCHit = s.ReadBool()
	for y := 0; y < ScreenHeight; y++ {
		s.ReadRaw(p.FB[y][:])
	}
}
