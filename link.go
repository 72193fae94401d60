package hvsp

import (
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Programmer drives one HVSP target through its six pins. It is not safe for
// concurrent use: the pins belong to the single session in flight.
type Programmer struct {
	pins Pins
	cfg  Config
	log  *slog.Logger

	timeouts int // ready waits that expired since the last reset
}

// New returns a Programmer bound to pins.
func New(pins Pins, opts ...Option) (*Programmer, error) {
	if err := pins.Validate(); err != nil {
		return nil, err
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Programmer{
		pins: pins,
		cfg:  cfg,
		log:  cfg.Logger,
	}, nil
}

// frameBits is the width of one HVSP frame: a leading 0, eight data bits
// MSB first and two trailing 0s.
// [ATtiny25|Figure 20-5. High-voltage Serial Programming Waveforms]
const frameBits = 11

// frame places v in bits 9..2 of an 11-bit frame.
func frame(v byte) uint16 {
	return uint16(v) << 2
}

func level(f uint16, bit int) gpio.Level {
	return f&(1<<bit) != 0
}

// Transfer shifts data into SDI and instr into SII, one bit per SCI pulse,
// and returns the byte the target shifted out on SDO during the same frame.
//
// It first waits for SDO to go high. Expiry of that wait is not an error:
// several frames in a sequence never raise SDO, so the shift proceeds anyway
// and the caller judges the returned value.
func (p *Programmer) Transfer(data, instr byte) (byte, error) {
	p.waitReady()

	dout := frame(data)
	iout := frame(instr)
	var in uint16
	for i := frameBits - 1; i >= 0; i-- {
		if err := p.pins.SDI.Out(level(dout, i)); err != nil {
			return 0, fmt.Errorf("SDI: %w", err)
		}
		if err := p.pins.SII.Out(level(iout, i)); err != nil {
			return 0, fmt.Errorf("SII: %w", err)
		}
		in <<= 1
		if p.pins.SDO.Read() {
			in |= 1
		}
		if err := p.pins.SCI.Out(gpio.High); err != nil {
			return 0, fmt.Errorf("SCI: %w", err)
		}
		if err := p.pins.SCI.Out(gpio.Low); err != nil {
			return 0, fmt.Errorf("SCI: %w", err)
		}
	}

	out := byte(in >> 2)
	p.log.Debug("frame", "sdi", hex8(data), "sii", hex8(instr), "sdo", hex8(out))
	return out, nil
}

// sequence sends frames in order and returns what the last one shifted out.
func (p *Programmer) sequence(frames ...[2]byte) (byte, error) {
	var out byte
	for _, f := range frames {
		var err error
		if out, err = p.Transfer(f[0], f[1]); err != nil {
			return 0, err
		}
	}
	return out, nil
}

// waitReady spins until SDO reads high or ReadyTimeout elapses. It reports
// whether the target signalled ready.
func (p *Programmer) waitReady() bool {
	deadline := time.Now().Add(p.cfg.ReadyTimeout)
	for !p.pins.SDO.Read() {
		if time.Now().After(deadline) {
			p.timeouts++
			p.log.Debug("SDO ready wait expired", "timeout", p.cfg.ReadyTimeout)
			return false
		}
	}
	return true
}

func hex8(b byte) string {
	return fmt.Sprintf("0x%02X", b)
}
