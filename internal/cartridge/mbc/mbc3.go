package mbc

import (
	"time"

	"github.com/retrohertz/dmgcore/internal/state"
)

// rtc holds the MBC3 real-time clock's live registers, advanced from a
// wall-clock timestamp rather than from emulated T-cycles. A deliberate
// consequence: a save-state round trip is not byte-stable across long host
// pauses, since the clock keeps advancing in the background.
type rtc struct {
	seconds, minutes, hours uint8
	days                    uint16 // 9-bit day counter
	halt                    bool
	carry                   bool // sticky day-overflow flag
	lastSync                time.Time
}

func newRTC() *rtc {
	return &rtc{lastSync: time.Now()}
}

// sync folds elapsed wall-clock time into the register set. A no-op while
// halted.
func (r *rtc) sync() {
	if r.halt {
		return
	}
	now := time.Now()
	elapsed := int64(now.Sub(r.lastSync).Seconds())
	if elapsed <= 0 {
		return
	}
	r.lastSync = r.lastSync.Add(time.Duration(elapsed) * time.Second)

	total := int64(r.seconds) + elapsed
	r.seconds = uint8(total % 60)
	total /= 60
	total += int64(r.minutes)
	r.minutes = uint8(total % 60)
	total /= 60
	total += int64(r.hours)
	r.hours = uint8(total % 24)
	total /= 24
	total += int64(r.days)
	if total > 511 {
		r.carry = true
	}
	r.days = uint16(total % 512)
}

// dayHigh packs the day-counter high bit, halt flag, and carry flag into
// the NR3-style single register exposed at RTC register index 4.
func (r *rtc) dayHigh() uint8 {
	v := uint8(r.days>>8) & 0x01
	if r.halt {
		v |= 0x40
	}
	if r.carry {
		v |= 0x80
	}
	return v
}

func (r *rtc) setDayHigh(v uint8) {
	r.days = (r.days & 0x00FF) | (uint16(v&0x01) << 8)
	r.halt = v&0x40 != 0
	r.carry = v&0x80 != 0
}

func (r *rtc) read(reg uint8) uint8 {
	switch reg {
	case 0x08:
		return r.seconds
	case 0x09:
		return r.minutes
	case 0x0A:
		return r.hours
	case 0x0B:
		return uint8(r.days)
	case 0x0C:
		return r.dayHigh()
	}
	return 0xFF
}

func (r *rtc) write(reg, v uint8) {
	switch reg {
	case 0x08:
		r.seconds = v
	case 0x09:
		r.minutes = v
	case 0x0A:
		r.hours = v
	case 0x0B:
		r.days = (r.days & 0xFF00) | uint16(v)
	case 0x0C:
		r.setDayHigh(v)
	}
}

// MBC3 implements the MBC3 bank controller: 7-bit ROM bank, a combined RAM-bank/RTC-
// register selector, and the RTC latch at 0x6000-0x7FFF.
type MBC3 struct {
	rom      []byte
	ram      []byte
	romBanks int

	ramEnabled bool
	romBank    uint8
	selector   uint8 // 0x00-0x03 RAM bank, 0x08-0x0C RTC register

	live    *rtc
	latched *rtc
	lastLatchWrite uint8
}

// NewMBC3 returns an MBC3 controller.
func NewMBC3(rom []byte, ramSize int) *MBC3 {
	m := &MBC3{
		rom:      rom,
		ram:      make([]byte, ramSize),
		romBanks: bankCount(len(rom), 0x4000),
		romBank:  1,
		live:     newRTC(),
		latched:  newRTC(),
	}
	m.lastLatchWrite = 0xFF // no write seen yet
	return m
}

func (m *MBC3) ReadROM(addr uint16) uint8 {
	if addr < 0x4000 {
		return m.rom[addr]
	}
	off := int(m.romBank)%m.romBanks*0x4000 + int(addr-0x4000)
	if off < len(m.rom) {
		return m.rom[off]
	}
	return 0xFF
}

func (m *MBC3) isRTCSelected() bool { return m.selector >= 0x08 && m.selector <= 0x0C }

func (m *MBC3) ReadRAM(addr uint16) uint8 {
	if !m.ramEnabled {
		return 0xFF
	}
	if m.isRTCSelected() {
		return m.latched.read(m.selector)
	}
	off := int(m.selector)*0x2000 + int(addr-0xA000)
	if off >= 0 && off < len(m.ram) {
		return m.ram[off]
	}
	return 0xFF
}

func (m *MBC3) WriteRAM(addr uint16, v uint8) {
	if !m.ramEnabled {
		return
	}
	if m.isRTCSelected() {
		m.live.sync()
		m.live.write(m.selector, v)
		return
	}
	off := int(m.selector)*0x2000 + int(addr-0xA000)
	if off >= 0 && off < len(m.ram) {
		m.ram[off] = v
	}
}

func (m *MBC3) WriteControl(addr uint16, v uint8) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = v&0x0F == 0x0A
	case addr < 0x4000:
		v &= 0x7F
		if v == 0 {
			v = 1
		}
		m.romBank = v
	case addr < 0x6000:
		m.selector = v
	default:
		if m.lastLatchWrite == 0x00 && v == 0x01 {
			m.live.sync()
			*m.latched = *m.live
		}
		m.lastLatchWrite = v
	}
}

func (m *MBC3) RAM() []byte         { return m.ram }
func (m *MBC3) LoadRAM(data []byte) { copy(m.ram, data) }

var _ state.Stater = (*MBC3)(nil)

func (m *MBC3) Save(s *state.State) {
	s.WriteBytes(m.ram)
	s.WriteBool(m.ramEnabled)
	s.Write8(m.romBank)
	s.Write8(m.selector)
	s.Write8(m.lastLatchWrite)
	saveRTC(s, m.live)
	saveRTC(s, m.latched)
}

func (m *MBC3) Load(s *state.State) {
	copy(m.ram, s.ReadBytes())
	m.ramEnabled = s.ReadBool()
	m.romBank = s.Read8()
	m.selector = s.Read8()
	m.lastLatchWrite = s.Read8()
	loadRTC(s, m.live)
	loadRTC(s, m.latched)
}

func saveRTC(s *state.State, r *rtc) {
	s.Write8(r.seconds)
	s.Write8(r.minutes)
	s.Write8(r.hours)
	s.Write16(r.days)
	s.WriteBool(r.halt)
	s.WriteBool(r.carry)
	s.Write64(uint64(r.lastSync.UnixNano()))
}

func loadRTC(s *state.State, r *rtc) {
	r.seconds = s.Read8()
	r.minutes = s.Read8()
	r.hours = s.Read8()
	r.days = s.Read16()
	r.halt = s.ReadBool()
	r.carry = s.ReadBool()
	r.lastSync = time.Unix(0, int64(s.Read64()))
}
