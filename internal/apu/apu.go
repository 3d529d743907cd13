// Package apu implements the four-channel audio processing unit: two pulse
// channels, a programmable wave channel and a noise channel, mixed through a
// 512 Hz frame sequencer into stereo float32 samples.
package apu

import "github.com/retrohertz/dmgcore/internal/state"

const (
	clockHz            = 4194304
	frameSequencerDots = clockHz / 512 // 8192 T-cycles between frame sequencer steps
)

// APU owns the four channels, the panning/volume registers and the sample
// accumulator. Read/Write implement the bus.APU interface.
type APU struct {
	enabled bool

	pulse1 *pulseChannel
	pulse2 *pulseChannel
	wave   *waveChannel
	noise  *noiseChannel

	seqCounter int
	seqStep    uint8
	firstHalf  bool

	vinLeft, vinRight       bool
	volumeLeft, volumeRight uint8
	leftEnable, rightEnable [4]bool

	sampleRate       int
	cyclesPerSample  int
	sampleAccum      int
	samples          []float32
}

// New returns an APU that downsamples its internal 4.194304 MHz clock to
// sampleRate stereo frames per second.
func New(sampleRate int) *APU {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	a := &APU{
		enabled:         true,
		volumeLeft:      7,
		volumeRight:     7,
		leftEnable:      [4]bool{true, true, true, true},
		rightEnable:     [4]bool{true, true, false, false},
		pulse1:          newPulseChannel(true),
		pulse2:          newPulseChannel(false),
		wave:            newWaveChannel(),
		noise:           newNoiseChannel(),
		seqCounter:      frameSequencerDots,
		sampleRate:      sampleRate,
		cyclesPerSample: clockHz / sampleRate,
	}
	return a
}

// Tick advances every channel and the frame sequencer by tCycles T-cycles,
// appending newly produced stereo samples to the internal buffer.
func (a *APU) Tick(tCycles uint8) {
	if !a.enabled {
		return
	}
	for i := uint8(0); i < tCycles; i++ {
		a.tickDot()
	}
}

func (a *APU) tickDot() {
	a.pulse1.step()
	a.pulse2.step()
	a.wave.step()
	a.noise.step()

	a.seqCounter--
	if a.seqCounter <= 0 {
		a.seqCounter = frameSequencerDots
		a.firstHalf = a.seqStep&1 == 0

		switch a.seqStep {
		case 0, 4:
			a.clockLength()
		case 2, 6:
			a.clockLength()
			a.pulse1.sweepClock()
		case 7:
			a.pulse1.envelopeStep()
			a.pulse2.envelopeStep()
			a.noise.envelopeStep()
		}
		a.seqStep = (a.seqStep + 1) & 7
	}

	a.sampleAccum++
	if a.sampleAccum >= a.cyclesPerSample {
		a.sampleAccum = 0
		a.mixSample()
	}
}

func (a *APU) clockLength() {
	a.pulse1.lengthStep()
	a.pulse2.lengthStep()
	a.wave.lengthStep()
	a.noise.lengthStep()
}

func (a *APU) mixSample() {
	amps := [4]float32{
		a.pulse1.amplitude(),
		a.pulse2.amplitude(),
		a.wave.amplitude(),
		a.noise.amplitude(),
	}

	var left, right float32
	for i, amp := range amps {
		if a.leftEnable[i] {
			left += amp
		}
		if a.rightEnable[i] {
			right += amp
		}
	}

	left = (left / 4) * (float32(a.volumeLeft+1) / 8)
	right = (right / 4) * (float32(a.volumeRight+1) / 8)

	a.samples = append(a.samples, left, right)
}

// DrainSamples returns and clears the interleaved [left, right, left, ...]
// stereo samples produced since the last call.
func (a *APU) DrainSamples() []float32 {
	out := a.samples
	a.samples = nil
	return out
}

// Read services the 0xFF10-0xFF3F register window.
func (a *APU) Read(addr uint16) uint8 {
	switch {
	case addr >= 0xFF10 && addr <= 0xFF14:
		return a.pulse1.read(addr - 0xFF10)
	case addr >= 0xFF16 && addr <= 0xFF19:
		return a.pulse2.read(addr - 0xFF15)
	case addr >= 0xFF1A && addr <= 0xFF1E:
		return a.wave.read(addr - 0xFF1A)
	case addr >= 0xFF20 && addr <= 0xFF23:
		return a.noise.read(addr - 0xFF1F)
	case addr == 0xFF24:
		return a.readNR50()
	case addr == 0xFF25:
		return a.readNR51()
	case addr == 0xFF26:
		return a.readNR52()
	case addr >= 0xFF30 && addr <= 0xFF3F:
		return a.wave.readRAM(addr - 0xFF30)
	default:
		return 0xFF
	}
}

// Write services the 0xFF10-0xFF3F register window. Wave RAM stays writable
// even when the APU is powered off; every other register is ignored while
// disabled, matching real hardware's power-off behavior.
func (a *APU) Write(addr uint16, v uint8) {
	if addr >= 0xFF30 && addr <= 0xFF3F {
		a.wave.writeRAM(addr-0xFF30, v)
		return
	}
	if addr == 0xFF26 {
		a.writeNR52(v)
		return
	}
	if !a.enabled {
		return
	}

	switch {
	case addr >= 0xFF10 && addr <= 0xFF14:
		a.pulse1.write(addr-0xFF10, v, a.firstHalf)
	case addr >= 0xFF16 && addr <= 0xFF19:
		a.pulse2.write(addr-0xFF15, v, a.firstHalf)
	case addr >= 0xFF1A && addr <= 0xFF1E:
		a.wave.write(addr-0xFF1A, v, a.firstHalf)
	case addr >= 0xFF20 && addr <= 0xFF23:
		a.noise.write(addr-0xFF1F, v, a.firstHalf)
	case addr == 0xFF24:
		a.writeNR50(v)
	case addr == 0xFF25:
		a.writeNR51(v)
	}
}

func (a *APU) readNR50() uint8 {
	b := a.volumeRight | a.volumeLeft<<4
	if a.vinRight {
		b |= 0x08
	}
	if a.vinLeft {
		b |= 0x80
	}
	return b
}

func (a *APU) writeNR50(v uint8) {
	a.volumeRight = v & 0x07
	a.volumeLeft = (v >> 4) & 0x07
	a.vinRight = v&0x08 != 0
	a.vinLeft = v&0x80 != 0
}

func (a *APU) readNR51() uint8 {
	b := uint8(0)
	for i := 0; i < 4; i++ {
		if a.rightEnable[i] {
			b |= 1 << uint(i)
		}
		if a.leftEnable[i] {
			b |= 1 << uint(i+4)
		}
	}
	return b
}

func (a *APU) writeNR51(v uint8) {
	for i := 0; i < 4; i++ {
		a.rightEnable[i] = v&(1<<uint(i)) != 0
		a.leftEnable[i] = v&(1<<uint(i+4)) != 0
	}
}

func (a *APU) readNR52() uint8 {
	b := uint8(0x70)
	if a.enabled {
		b |= 0x80
	}
	if a.pulse1.enabled {
		b |= 0x01
	}
	if a.pulse2.enabled {
		b |= 0x02
	}
	if a.wave.enabled {
		b |= 0x04
	}
	if a.noise.enabled {
		b |= 0x08
	}
	return b
}

func (a *APU) writeNR52(v uint8) {
	wasOn := a.enabled
	a.enabled = v&0x80 != 0
	if wasOn && !a.enabled {
		*a.pulse1 = *newPulseChannel(true)
		*a.pulse2 = *newPulseChannel(false)
		a.wave.powerOff()
		*a.noise = *newNoiseChannel()
		a.volumeLeft, a.volumeRight = 0, 0
		a.vinLeft, a.vinRight = false, false
		a.leftEnable, a.rightEnable = [4]bool{}, [4]bool{}
	} else if !wasOn && a.enabled {
		a.seqStep = 0
	}
}

var _ state.Stater = (*APU)(nil)

func (a *APU) Save(s *state.State) {
	s.WriteBool(a.enabled)
	a.pulse1.save(s)
	a.pulse2.save(s)
	a.wave.save(s)
	a.noise.save(s)
	s.Write32(uint32(a.seqCounter))
	s.Write8(a.seqStep)
	s.WriteBool(a.firstHalf)
	s.WriteBool(a.vinLeft)
	s.WriteBool(a.vinRight)
	s.Write8(a.volumeLeft)
	s.Write8(a.volumeRight)
	for i := 0; i < 4; i++ {
		s.WriteBool(a.leftEnable[i])
		s.WriteBool(a.rightEnable[i])
	}
}

func (a *APU) Load(s *state.State) {
	a.enabled = s.ReadBool()
	a.pulse1.load(s)
	a.pulse2.load(s)
	a.wave.load(s)
	a.noise.load(s)
	a.seqCounter = int(s.Read32())
	a.seqStep = s.Read8()
	a.firstHalf = s.ReadBool()
	a.vinLeft = s.ReadBool()
	a.vinRight = s.ReadBool()
	a.volumeLeft = s.Read8()
	a.volumeRight = s.Read8()
	for i := 0; i < 4; i++ {
		a.leftEnable[i] = s.ReadBool()
		a.rightEnable[i] = s.ReadBool()
	}
	a.samples = nil
}
