package gameboy

import (
	"github.com/retrohertz/dmgcore/internal/apu"
	"github.com/sirupsen/logrus"
)

// Option configures a GameBoy at construction time.
type Option func(*GameBoy)

// WithCartridgeRAM seeds persistent cartridge RAM (battery save data) before
// the first instruction runs.
func WithCartridgeRAM(data []byte) Option {
	return func(g *GameBoy) {
		g.Cart.LoadRAM(data)
	}
}

// WithSampleRate overrides the APU's default 44100 Hz output rate.
func WithSampleRate(hz int) Option {
	return func(g *GameBoy) {
		g.APU = apu.New(hz)
		g.Bus.AttachAPU(g.APU)
	}
}

// WithLogger replaces the bus's default logrus logger.
func WithLogger(log *logrus.Logger) Option {
	return func(g *GameBoy) {
		g.Bus.Log = log
	}
}
