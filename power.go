package hvsp

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Timing holds the delays of the programming mode entry sequence.
type Timing struct {
	// VCCSettle is the wait between powering VCC and applying 12V to RESET.
	VCCSettle time.Duration
	// HVSettle is the wait after applying 12V before SDO is released.
	HVSettle time.Duration
	// ProgEnable is the wait after releasing SDO before the first
	// instruction is shifted in.
	ProgEnable time.Duration
}

// [ATtiny25|20.7.1 High-voltage Serial Programming Algorithm]
// The datasheet minimums are tens of ns to a few µs; these values leave
// margin for level shifters and slow supplies.
var DefaultTiming = Timing{
	VCCSettle:  20 * time.Microsecond,
	HVSettle:   10 * time.Microsecond,
	ProgEnable: 300 * time.Microsecond,
}

// EnterProgrammingMode powers the target up with SDI, SII and SDO held low
// and applies 12V to RESET, which latches the HVSP mode. The order is fixed
// by the silicon and must not change.
func (p *Programmer) EnterProgrammingMode() error {
	pins := p.pins
	steps := []struct {
		name string
		pin  Pin
		l    gpio.Level
	}{
		{"SDI", pins.SDI, gpio.Low},
		{"SII", pins.SII, gpio.Low},
		{"SDO", pins.SDO, gpio.Low},
		{"RST", pins.RST, gpio.High}, // level shifter is inverting: 12V off
		{"VCC", pins.VCC, gpio.High},
	}
	for _, s := range steps {
		if err := s.pin.Out(s.l); err != nil {
			return fmt.Errorf("enter programming mode: %s: %w", s.name, err)
		}
	}
	time.Sleep(p.cfg.Timing.VCCSettle)

	if err := pins.RST.Out(gpio.Low); err != nil { // 12V on
		return fmt.Errorf("enter programming mode: RST: %w", err)
	}
	time.Sleep(p.cfg.Timing.HVSettle)

	if err := pins.SDO.In(gpio.Float, gpio.NoEdge); err != nil {
		return fmt.Errorf("enter programming mode: SDO as input: %w", err)
	}
	time.Sleep(p.cfg.Timing.ProgEnable)

	p.log.Debug("programming mode entered")
	return nil
}

// ExitProgrammingMode drops the clock and VCC and switches 12V off. Callers
// that hand the target to a human should wait a little afterwards.
func (p *Programmer) ExitProgrammingMode() error {
	pins := p.pins
	var firstErr error
	for _, s := range []struct {
		name string
		pin  Pin
		l    gpio.Level
	}{
		{"SCI", pins.SCI, gpio.Low},
		{"VCC", pins.VCC, gpio.Low},
		{"RST", pins.RST, gpio.High}, // 12V off
	} {
		// keep going: 12V must come off even if an earlier line failed
		if err := s.pin.Out(s.l); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("exit programming mode: %s: %w", s.name, err)
		}
	}
	p.log.Debug("programming mode exited")
	return firstErr
}
