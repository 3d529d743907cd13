// Package interrupts holds the IF/IE/IME state shared by every peripheral
// that can request service from the CPU.
package interrupts

import "github.com/retrohertz/dmgcore/internal/state"

// Flag identifies one of the five interrupt sources, in dispatch-priority
// order (lowest bit wins when more than one is pending).
type Flag = uint8

const (
	VBlank Flag = 1 << iota
	LCDStat
	Timer
	Serial
	Joypad
)

// Vector is the fixed dispatch address for each Flag.
var Vector = map[Flag]uint16{
	VBlank:  0x0040,
	LCDStat: 0x0048,
	Timer:   0x0050,
	Serial:  0x0058,
	Joypad:  0x0060,
}

// Service is the IF/IE/IME triple. IME has the one-instruction-delayed
// "pending" semantics required by EI: SetIMEPending arms it, and
// Step must call Tick once per instruction boundary to apply it.
type Service struct {
	Flag    uint8 // IF, 0xFF0F
	Enable  uint8 // IE, 0xFFFF
	IME     bool
	pending bool
}

// New returns a Service with the power-on IF default of 0xE1: top 3 bits
// read as 1 and the VBlank bit already set.
func New() *Service {
	return &Service{Flag: 0xE1 & 0x1F}
}

func (s *Service) Request(f Flag) { s.Flag |= f }
func (s *Service) Clear(f Flag)   { s.Flag &^= f }

// Pending reports whether any enabled interrupt is currently flagged.
func (s *Service) Pending() bool { return s.Enable&s.Flag&0x1F != 0 }

// ReadyToDispatch reports whether the CPU should vector into an ISR this step.
func (s *Service) ReadyToDispatch() bool { return s.IME && s.Pending() }

// NextSource returns the lowest-priority-index pending & enabled source, and
// clears its IF bit as a side effect of dispatch.
func (s *Service) NextSource() (Flag, uint16, bool) {
	for _, f := range []Flag{VBlank, LCDStat, Timer, Serial, Joypad} {
		if s.Enable&s.Flag&f != 0 {
			s.Flag &^= f
			return f, Vector[f], true
		}
	}
	return 0, 0, false
}

// SetIMEPending arms IME to be set after the instruction following EI
// completes.
func (s *Service) SetIMEPending() { s.pending = true }

// DisableImmediately implements DI's immediate-clear semantics.
func (s *Service) DisableImmediately() {
	s.IME = false
	s.pending = false
}

// EnableImmediately implements RETI's atomic set semantics.
func (s *Service) EnableImmediately() {
	s.IME = true
	s.pending = false
}

// Tick applies a pending EI after one instruction has elapsed. Call once
// per completed instruction.
func (s *Service) Tick() {
	if s.pending {
		s.IME = true
		s.pending = false
	}
}

// ReadIF returns the value the guest observes at 0xFF0F: top 3 bits read as 1.
func (s *Service) ReadIF() uint8 { return s.Flag | 0xE0 }

// ReadIE returns the raw IE register.
func (s *Service) ReadIE() uint8 { return s.Enable }

func (s *Service) WriteIF(v uint8) { s.Flag = v & 0x1F }
func (s *Service) WriteIE(v uint8) { s.Enable = v }

var _ state.Stater = (*Service)(nil)

func (s *Service) Save(st *state.State) {
	st.Write8(s.Flag)
	st.Write8(s.Enable)
	st.WriteBool(s.IME)
	st.WriteBool(s.pending)
}

func (s *Service) Load(st *state.State) {
	s.Flag = st.Read8()
	s.Enable = st.Read8()
	s.IME = st.ReadBool()
	s.pending = st.ReadBool()
}
