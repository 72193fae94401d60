package hvsp

import (
	"io"
	"log/slog"
	"time"
)

// DefaultReadyTimeout bounds every wait for SDO to signal ready.
const DefaultReadyTimeout = 300 * time.Millisecond

// Config holds the programmer configuration.
type Config struct {
	// Logger receives protocol traces at debug level and session milestones
	// at info level. Defaults to a logger that discards everything.
	Logger *slog.Logger

	// ReadyTimeout bounds each wait for the target to raise SDO. Expiry is
	// not an error; the operation proceeds with whatever the line carries.
	ReadyTimeout time.Duration

	// Timing holds the programming mode entry delays.
	Timing Timing

	// StateHook is called on every session state transition (optional).
	StateHook func(State)
}

func defaultConfig() Config {
	return Config{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		ReadyTimeout: DefaultReadyTimeout,
		Timing:       DefaultTiming,
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithLogger sets the logger for protocol and session records.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithReadyTimeout sets the bound of each SDO ready wait.
func WithReadyTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.ReadyTimeout = d
		}
	}
}

// WithTiming overrides the programming mode entry delays.
func WithTiming(t Timing) Option {
	return func(c *Config) {
		c.Timing = t
	}
}

// WithStateHook registers a callback for session state transitions.
//
// Example:
//
//	p, err := hvsp.New(pins, hvsp.WithStateHook(func(s hvsp.State) {
//	    led.Out(s != hvsp.StatePoweredDown)
//	}))
func WithStateHook(f func(State)) Option {
	return func(c *Config) {
		c.StateHook = f
	}
}
