package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/gentam/hvsp"
	"periph.io/x/conn/v3/gpio"
)

// Button starts a session with a fixed action when a push button wired to
// ground is pressed.
type Button struct {
	Debounce time.Duration

	pin    hvsp.EdgePin
	action hvsp.Action
}

// NewButton configures pin as a pulled-up input interrupting on the falling
// edge.
func NewButton(pin hvsp.EdgePin, action hvsp.Action) (*Button, error) {
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("button: %w", err)
	}
	return &Button{Debounce: 100 * time.Millisecond, pin: pin, action: action}, nil
}

// Edge waits are bounded so that cancellation is noticed.
const buttonPoll = 100 * time.Millisecond

func (b *Button) Next(ctx context.Context) (hvsp.Action, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if !b.pin.WaitForEdge(buttonPoll) {
			continue
		}
		time.Sleep(b.Debounce)
		for b.pin.WaitForEdge(0) {
			// bounce
		}
		return b.action, nil
	}
}
