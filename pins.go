package hvsp

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// Pin is the part of gpio.PinIO the protocol needs. Any periph pin satisfies
// it; backends without periph support wrap their pins.
type Pin interface {
	Out(l gpio.Level) error
	In(pull gpio.Pull, edge gpio.Edge) error
	Read() gpio.Level
}

// Pins binds the six HVSP roles to host pins.
//
//	Role | Target pin (8-pin / 14-pin) | Direction
//	-----+-----------------------------+--------------------------------------
//	RST  | PB5 / PB3 via 12V switch    | out, inverted: High switches 12V off
//	SCI  | PB3 / PB0                   | out
//	SDO  | PB2 / PA4                   | out while powering up, then in
//	SII  | PB1 / PA5                   | out
//	SDI  | PB0 / PA6                   | out
//	VCC  | VCC                         | out, High powers the target
type Pins struct {
	RST Pin
	SCI Pin
	SDO Pin
	SII Pin
	SDI Pin
	VCC Pin
}

// Validate reports a missing role.
func (p Pins) Validate() error {
	var errs []error
	for _, r := range []struct {
		name string
		pin  Pin
	}{
		{"RST", p.RST},
		{"SCI", p.SCI},
		{"SDO", p.SDO},
		{"SII", p.SII},
		{"SDI", p.SDI},
		{"VCC", p.VCC},
	} {
		if r.pin == nil {
			errs = append(errs, fmt.Errorf("pin %s is not bound", r.name))
		}
	}
	return errors.Join(errs...)
}
