// Package bus implements the 16-bit address-space arbiter: it owns the
// fixed-size VRAM/WRAM/OAM/HRAM arrays and routes cartridge and
// peripheral-register accesses to the right sub-component. Reads and writes
// are total: there are no bus faults.
package bus

import (
	"github.com/retrohertz/dmgcore/internal/cartridge"
	"github.com/retrohertz/dmgcore/internal/interrupts"
	"github.com/retrohertz/dmgcore/internal/joypad"
	"github.com/retrohertz/dmgcore/internal/state"
	"github.com/retrohertz/dmgcore/internal/timer"
	"github.com/sirupsen/logrus"
)

// PPU is the subset of ppu.PPU the bus needs to route I/O register accesses
// to, kept as an interface so bus does not import ppu (the PPU reaches VRAM
// and OAM through array pointers handed to ppu.New, not through the bus).
type PPU interface {
	ReadRegister(addr uint16) uint8
	WriteRegister(addr uint16, v uint8)
}

// APU is the subset of apu.APU the bus routes register accesses to.
type APU interface {
	Read(addr uint16) uint8
	Write(addr uint16, v uint8)
}

// Bus is the shared machine state: RAM regions plus references to every
// peripheral whose registers live in the 0xFF00-0xFF7F I/O window.
type Bus struct {
	VRAM [0x2000]byte
	WRAM [0x2000]byte
	OAM  [0xA0]byte
	HRAM [0x7F]byte

	Cart   *cartridge.Cartridge
	IRQ    *interrupts.Service
	Timer  *timer.Controller
	Joypad *joypad.State
	PPU    PPU
	APU    APU

	Log *logrus.Logger
}

// New returns a Bus wired to the given peripherals. PPU and APU are
// attached after construction via AttachPPU/AttachAPU (the façade builds the
// bus first, then the PPU over pointers to the bus's VRAM/OAM arrays, then
// the APU).
func New(cart *cartridge.Cartridge, irq *interrupts.Service, t *timer.Controller, jp *joypad.State) *Bus {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})
	return &Bus{
		Cart:   cart,
		IRQ:    irq,
		Timer:  t,
		Joypad: jp,
		Log:    l,
	}
}

func (b *Bus) AttachPPU(p PPU) { b.PPU = p }
func (b *Bus) AttachAPU(a APU) { b.APU = a }

// Read returns the byte visible to the guest at addr. Always succeeds.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x7FFF:
		return b.Cart.ReadROM(addr)
	case addr <= 0x9FFF:
		return b.VRAM[addr-0x8000]
	case addr <= 0xBFFF:
		return b.Cart.ReadRAM(addr)
	case addr <= 0xDFFF:
		return b.WRAM[addr-0xC000]
	case addr <= 0xFDFF:
		return b.WRAM[addr-0xE000]
	case addr <= 0xFE9F:
		return b.OAM[addr-0xFE00]
	case addr <= 0xFEFF:
		return 0xFF
	case addr <= 0xFF7F:
		return b.readIO(addr)
	case addr <= 0xFFFE:
		return b.HRAM[addr-0xFF80]
	default: // 0xFFFF
		return b.IRQ.ReadIE()
	}
}

// Write accepts a byte from the guest at addr. Always succeeds.
func (b *Bus) Write(addr uint16, v uint8) {
	switch {
	case addr <= 0x7FFF:
		b.Cart.WriteControl(addr, v)
	case addr <= 0x9FFF:
		b.VRAM[addr-0x8000] = v
	case addr <= 0xBFFF:
		b.Cart.WriteRAM(addr, v)
	case addr <= 0xDFFF:
		b.WRAM[addr-0xC000] = v
	case addr <= 0xFDFF:
		b.WRAM[addr-0xE000] = v
	case addr <= 0xFE9F:
		b.OAM[addr-0xFE00] = v
	case addr <= 0xFEFF:
		// unmapped, writes ignored
	case addr <= 0xFF7F:
		b.writeIO(addr, v)
	case addr <= 0xFFFE:
		b.HRAM[addr-0xFF80] = v
	default: // 0xFFFF
		b.IRQ.WriteIE(v)
	}
}

func (b *Bus) readIO(addr uint16) uint8 {
	switch {
	case addr == 0xFF00:
		return b.Joypad.Read()
	case addr == 0xFF04:
		return b.Timer.ReadDIV()
	case addr == 0xFF05:
		return b.Timer.ReadTIMA()
	case addr == 0xFF06:
		return b.Timer.ReadTMA()
	case addr == 0xFF07:
		return b.Timer.ReadTAC()
	case addr == 0xFF0F:
		return b.IRQ.ReadIF()
	case addr >= 0xFF10 && addr <= 0xFF3F:
		if b.APU != nil {
			return b.APU.Read(addr)
		}
		return 0xFF
	case addr >= 0xFF40 && addr <= 0xFF4B:
		if b.PPU != nil {
			return b.PPU.ReadRegister(addr)
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (b *Bus) writeIO(addr uint16, v uint8) {
	switch {
	case addr == 0xFF00:
		b.Joypad.Write(v)
	case addr == 0xFF04:
		b.Timer.WriteDIV(v)
	case addr == 0xFF05:
		b.Timer.WriteTIMA(v)
	case addr == 0xFF06:
		b.Timer.WriteTMA(v)
	case addr == 0xFF07:
		b.Timer.WriteTAC(v)
	case addr == 0xFF0F:
		b.IRQ.WriteIF(v)
	case addr == 0xFF46:
		b.oamDMA(v)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		if b.APU != nil {
			b.APU.Write(addr, v)
		}
	case addr >= 0xFF40 && addr <= 0xFF4B:
		if b.PPU != nil {
			b.PPU.WriteRegister(addr, v)
		}
	default:
		b.Log.Debugf("bus: unmapped I/O write 0x%02X -> 0x%04X", v, addr)
	}
}

// oamDMA implements the 0xFF46 OAM DMA transfer: 160 bytes are
// copied byte-by-byte through the normal bus read path, so cartridge- or
// echo-sourced DMA works identically to a CPU-driven copy.
func (b *Bus) oamDMA(v uint8) {
	src := uint16(v) << 8
	for i := uint16(0); i < 0xA0; i++ {
		b.OAM[i] = b.Read(src + i)
	}
}

var _ state.Stater = (*Bus)(nil)

func (b *Bus) Save(s *state.State) {
	s.WriteRaw(b.VRAM[:])
	s.WriteRaw(b.WRAM[:])
	s.WriteRaw(b.OAM[:])
	s.WriteRaw(b.HRAM[:])
	b.IRQ.Save(s)
	b.Cart.Save(s)
}

func (b *Bus) Load(s *state.State) {
	s.ReadRaw(b.VRAM[:])
	s.ReadRaw(b.WRAM[:])
	s.ReadRaw(b.OAM[:])
	s.ReadRaw(b.HRAM[:])
	b.IRQ.Load(s)
	b.Cart.Load(s)
}
