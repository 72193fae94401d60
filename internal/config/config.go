// Package config loads the pin binding of an HVSP programmer from TOML.
//
//	backend = "rpio"
//	ready_timeout = "300ms"
//
//	[pins]
//	rst = "GPIO17"
//	sci = "GPIO27"
//	...
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gentam/hvsp"
)

// Duration is a time.Duration spelled as "300ms" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Pins names the backend pin for each role. Button and LED are optional.
type Pins struct {
	RST    string `toml:"rst"`
	SCI    string `toml:"sci"`
	SDO    string `toml:"sdo"`
	SII    string `toml:"sii"`
	SDI    string `toml:"sdi"`
	VCC    string `toml:"vcc"`
	Button string `toml:"button"`
	LED    string `toml:"led"`
}

// Names returns the six HVSP roles.
func (p Pins) Names() hvsp.PinNames {
	return hvsp.PinNames{RST: p.RST, SCI: p.SCI, SDO: p.SDO, SII: p.SII, SDI: p.SDI, VCC: p.VCC}
}

type File struct {
	Backend      hvsp.Backend `toml:"backend"`
	ReadyTimeout Duration     `toml:"ready_timeout"`
	Pins         Pins         `toml:"pins"`
}

// Default is a Raspberry Pi binding on BCM numbering:
// the 12V stage and its level shifters hang off GPIO17..27.
func Default() File {
	return File{
		Backend:      hvsp.BackendRPIO,
		ReadyTimeout: Duration{hvsp.DefaultReadyTimeout},
		Pins: Pins{
			RST:    "GPIO17",
			SCI:    "GPIO27",
			SDO:    "GPIO22",
			SII:    "GPIO23",
			SDI:    "GPIO24",
			VCC:    "GPIO25",
			Button: "GPIO5",
			LED:    "GPIO6",
		},
	}
}

// Load reads path over Default. Keys missing from the file keep their
// default value.
func Load(path string) (File, error) {
	f := Default()
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return File{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return File{}, fmt.Errorf("config %s: unknown key %q", path, undec[0].String())
	}
	if err := f.Validate(); err != nil {
		return File{}, fmt.Errorf("config %s: %w", path, err)
	}
	return f, nil
}

// Validate reports an unknown backend, an unbound role, a negative timeout
// and any pin name used twice.
func (f File) Validate() error {
	var errs []error
	switch f.Backend {
	case hvsp.BackendHost, hvsp.BackendFTDI, hvsp.BackendRPIO:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", f.Backend))
	}
	if f.ReadyTimeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("negative ready_timeout %v", f.ReadyTimeout))
	}

	seen := map[string]string{}
	for _, r := range []struct {
		role     string
		name     string
		optional bool
	}{
		{"rst", f.Pins.RST, false},
		{"sci", f.Pins.SCI, false},
		{"sdo", f.Pins.SDO, false},
		{"sii", f.Pins.SII, false},
		{"sdi", f.Pins.SDI, false},
		{"vcc", f.Pins.VCC, false},
		{"button", f.Pins.Button, true},
		{"led", f.Pins.LED, true},
	} {
		if r.name == "" {
			if !r.optional {
				errs = append(errs, fmt.Errorf("pins.%s is not set", r.role))
			}
			continue
		}
		if other, ok := seen[r.name]; ok {
			errs = append(errs, fmt.Errorf("pin %q used for both %s and %s", r.name, other, r.role))
			continue
		}
		seen[r.name] = r.role
	}
	return errors.Join(errs...)
}
