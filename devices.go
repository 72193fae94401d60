package hvsp

import (
	"fmt"
	"slices"
)

// Signature is the part identifier at signature bytes 1 and 2; byte 0 is the
// manufacturer code (0x1E) and is not part of it.
type Signature uint16

func (s Signature) String() string {
	return fmt.Sprintf("0x%04X", uint16(s))
}

func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Family groups parts that share fuse layout and factory defaults.
type Family int

const (
	// FamilyTiny13 is the ATtiny13/13A: 8 pins, low and high fuse only.
	FamilyTiny13 Family = iota + 1
	// FamilyTinyX5X4 covers ATtiny24/44/84 (14 pins) and ATtiny25/45/85
	// (8 pins), all with an extended fuse byte.
	FamilyTinyX5X4
)

func (f Family) String() string {
	switch f {
	case FamilyTiny13:
		return "ATtiny13"
	case FamilyTinyX5X4:
		return "ATtinyX4/X5"
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Device describes a supported part and its factory fuse values.
type Device struct {
	Name      string    `json:"name"`
	Signature Signature `json:"signature"`
	Family    Family    `json:"family"`
	Pins      int       `json:"pins"`

	LFuse byte `json:"lfuse"`
	HFuse byte `json:"hfuse"`
	// EFuse is meaningful only when HasEFuse is set.
	EFuse    byte `json:"efuse,omitempty"`
	HasEFuse bool `json:"has_efuse"`
}

// Defaults returns the factory fuse values in write order: LFUSE, HFUSE and,
// when the part has one, EFUSE.
func (d *Device) Defaults() []FuseValue {
	v := []FuseValue{
		{Fuse: LFuse, Value: d.LFuse},
		{Fuse: HFuse, Value: d.HFuse},
	}
	if d.HasEFuse {
		v = append(v, FuseValue{Fuse: EFuse, Value: d.EFuse})
	}
	return v
}

func (d *Device) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.Signature)
}

var (
	sigATtiny13 Signature = 0x9007
	sigATtiny24 Signature = 0x910B
	sigATtiny25 Signature = 0x9108
	sigATtiny44 Signature = 0x9207
	sigATtiny45 Signature = 0x9206
	sigATtiny84 Signature = 0x930C
	sigATtiny85 Signature = 0x930B
)

func tinyX5X4(name string, sig Signature, pins int) Device {
	// [ATtiny25|20.2 Fuse Bytes] default: 8 MHz RC / CKDIV8, SPIEN
	return Device{
		Name:      name,
		Signature: sig,
		Family:    FamilyTinyX5X4,
		Pins:      pins,
		LFuse:     0x62,
		HFuse:     0xDF,
		EFuse:     0xFF,
		HasEFuse:  true,
	}
}

var knownDevices = map[Signature]Device{
	// [ATtiny13A|17.2 Fuse Bytes] default: 9.6 MHz RC / CKDIV8, SPIEN
	sigATtiny13: {
		Name:      "ATtiny13",
		Signature: sigATtiny13,
		Family:    FamilyTiny13,
		Pins:      8,
		LFuse:     0x6A,
		HFuse:     0xFF,
	},

	sigATtiny24: tinyX5X4("ATtiny24", sigATtiny24, 14),
	sigATtiny44: tinyX5X4("ATtiny44", sigATtiny44, 14),
	sigATtiny84: tinyX5X4("ATtiny84", sigATtiny84, 14),
	sigATtiny25: tinyX5X4("ATtiny25", sigATtiny25, 8),
	sigATtiny45: tinyX5X4("ATtiny45", sigATtiny45, 8),
	sigATtiny85: tinyX5X4("ATtiny85", sigATtiny85, 8),
}

// Classify returns the descriptor for sig. Unknown signatures are normal
// (unsupported part, bad wiring) and yield ok == false.
func Classify(sig Signature) (*Device, bool) {
	dev, ok := knownDevices[sig]
	if !ok {
		return nil, false
	}
	return &dev, true
}

// KnownDevices returns every supported part ordered by signature.
func KnownDevices() []Device {
	devs := make([]Device, 0, len(knownDevices))
	for _, d := range knownDevices {
		devs = append(devs, d)
	}
	slices.SortFunc(devs, func(a, b Device) int {
		return int(a.Signature) - int(b.Signature)
	})
	return devs
}
