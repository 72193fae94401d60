package hvsp

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/ftdi"
)

// EdgePin is a Pin that can also block for an input edge, as a start button
// needs. Every gpio.PinIO is one.
type EdgePin interface {
	Pin
	WaitForEdge(timeout time.Duration) bool
}

// Backend names a way of reaching host GPIO lines.
type Backend string

const (
	// BackendHost uses periph's host drivers (sysfs, /dev/gpiomem, ...);
	// pins are named as gpioreg knows them, e.g. "GPIO17".
	BackendHost Backend = "host"
	// BackendFTDI uses the D and C bus of an FT232H or FT2232H in GPIO
	// mode; pins are named "D0".."D7" and "C0".."C7".
	BackendFTDI Backend = "ftdi"
	// BackendRPIO maps the Raspberry Pi GPIO registers directly; pins are
	// BCM numbers, optionally prefixed with "GPIO".
	BackendRPIO Backend = "rpio"
)

// PinNames maps each HVSP role to a backend pin name.
type PinNames struct {
	RST string
	SCI string
	SDO string
	SII string
	SDI string
	VCC string
}

// Host resolves pin names on one backend.
type Host struct {
	FTDI *ftdi.FT232H // set for BackendFTDI

	backend Backend
	ftPins  map[string]gpio.PinIO
	rpio    *rpioBus
}

var hostInitialized atomic.Bool

func initHost() error {
	if hostInitialized.CompareAndSwap(false, true) {
		if _, err := host.Init(); err != nil {
			hostInitialized.Store(false)
			return fmt.Errorf("host initialization failed: %w", err)
		}
	}
	return nil
}

// NewHost opens backend b.
func NewHost(b Backend) (*Host, error) {
	h := &Host{backend: b}
	switch b {
	case BackendHost:
		if err := initHost(); err != nil {
			return nil, err
		}
	case BackendFTDI:
		if err := initHost(); err != nil {
			return nil, err
		}
		if err := h.findFT232H(); err != nil {
			return nil, err
		}
	case BackendRPIO:
		r, err := openRPIO()
		if err != nil {
			return nil, err
		}
		h.rpio = r
	default:
		return nil, fmt.Errorf("unknown backend %q", b)
	}
	return h, nil
}

func (h *Host) findFT232H() error {
	const (
		vendorID    = 0x0403 // FTDI
		productFT2H = 0x6010 // FT2232H
		productFT1H = 0x6014 // FT232H
	)

	info := ftdi.Info{}
	for _, dev := range ftdi.All() {
		dev.Info(&info)
		if info.VenID != vendorID || (info.DevID != productFT2H && info.DevID != productFT1H) {
			continue
		}
		if ft, ok := dev.(*ftdi.FT232H); ok {
			h.FTDI = ft
			h.ftPins = map[string]gpio.PinIO{
				"D0": ft.D0, "D1": ft.D1, "D2": ft.D2, "D3": ft.D3,
				"D4": ft.D4, "D5": ft.D5, "D6": ft.D6, "D7": ft.D7,
				"C0": ft.C0, "C1": ft.C1, "C2": ft.C2, "C3": ft.C3,
				"C4": ft.C4, "C5": ft.C5, "C6": ft.C6, "C7": ft.C7,
			}
			return nil
		}
	}

	return errors.New("FT232H/FT2232H not found")
}

// Pin resolves one pin name.
func (h *Host) Pin(name string) (EdgePin, error) {
	switch h.backend {
	case BackendHost:
		if p := gpioreg.ByName(name); p != nil {
			return p, nil
		}
	case BackendFTDI:
		if p, ok := h.ftPins[name]; ok && p != nil {
			return p, nil
		}
	case BackendRPIO:
		return h.rpio.pin(name)
	}
	return nil, fmt.Errorf("%s: unknown pin %q", h.backend, name)
}

// Pins resolves the six HVSP roles. A pin may serve only one role.
func (h *Host) Pins(names PinNames) (Pins, error) {
	var pins Pins
	seen := map[string]string{}
	for _, r := range []struct {
		role string
		name string
		dst  *Pin
	}{
		{"RST", names.RST, &pins.RST},
		{"SCI", names.SCI, &pins.SCI},
		{"SDO", names.SDO, &pins.SDO},
		{"SII", names.SII, &pins.SII},
		{"SDI", names.SDI, &pins.SDI},
		{"VCC", names.VCC, &pins.VCC},
	} {
		if other, ok := seen[r.name]; ok {
			return Pins{}, fmt.Errorf("pin %q bound to both %s and %s", r.name, other, r.role)
		}
		seen[r.name] = r.role
		p, err := h.Pin(r.name)
		if err != nil {
			return Pins{}, fmt.Errorf("%s: %w", r.role, err)
		}
		*r.dst = p
	}
	return pins, nil
}

// Close releases the backend. Pins resolved from it must not be used after.
func (h *Host) Close() error {
	if h.rpio != nil {
		return h.rpio.close()
	}
	if h.FTDI != nil {
		return h.FTDI.Halt()
	}
	return nil
}
