package hvsp

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
	"periph.io/x/conn/v3/gpio"
)

type rpioBus struct{}

func openRPIO() (*rpioBus, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpio: %w", err)
	}
	return &rpioBus{}, nil
}

func (b *rpioBus) close() error {
	return rpio.Close()
}

// BCM 0..27 are the lines on the 40-pin header.
const rpioMaxPin = 27

func (b *rpioBus) pin(name string) (EdgePin, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(name), "GPIO"))
	if err != nil || n < 0 || n > rpioMaxPin {
		return nil, fmt.Errorf("rpio: unknown pin %q", name)
	}
	return &rpioPin{pin: rpio.Pin(n)}, nil
}

// rpioPin adapts a register-mapped pin to EdgePin. Direction is switched
// lazily so that repeated Out calls cost one register write each.
type rpioPin struct {
	pin    rpio.Pin
	output bool
}

func (p *rpioPin) Out(l gpio.Level) error {
	if !p.output {
		p.pin.Output()
		p.output = true
	}
	if l {
		p.pin.High()
	} else {
		p.pin.Low()
	}
	return nil
}

func (p *rpioPin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.pin.Input()
	p.output = false

	switch pull {
	case gpio.PullUp:
		p.pin.PullUp()
	case gpio.PullDown:
		p.pin.PullDown()
	case gpio.Float:
		p.pin.PullOff()
	}

	switch edge {
	case gpio.RisingEdge:
		p.pin.Detect(rpio.RiseEdge)
	case gpio.FallingEdge:
		p.pin.Detect(rpio.FallEdge)
	case gpio.BothEdges:
		p.pin.Detect(rpio.AnyEdge)
	default:
		p.pin.Detect(rpio.NoEdge)
	}
	return nil
}

func (p *rpioPin) Read() gpio.Level {
	return p.pin.Read() == rpio.High
}

// WaitForEdge polls the edge detect status register. A negative timeout
// waits forever.
func (p *rpioPin) WaitForEdge(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if p.pin.EdgeDetected() {
			return true
		}
		if timeout >= 0 && time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}
