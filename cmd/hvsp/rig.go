package main

import (
	"flag"
	"io"
	"log/slog"
	"strconv"

	"github.com/gentam/hvsp"
	"github.com/gentam/hvsp/hvsptest"
	"github.com/gentam/hvsp/internal/config"
	"github.com/gentam/hvsp/internal/logs"
	"periph.io/x/conn/v3/gpio"
)

// commonFlags are accepted by every command that talks to a target.
type commonFlags struct {
	config  string
	logfile string
	verbose bool
	sim     string
	simLock bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "c", "", "pin binding file (default: Raspberry Pi BCM binding)")
	fs.StringVar(&c.logfile, "l", "", "log to rotated file instead of stderr")
	fs.BoolVar(&c.verbose, "v", false, "log every frame")
	fs.StringVar(&c.sim, "sim", "", "use a simulated target with this signature, e.g. 0x930B")
	fs.BoolVar(&c.simLock, "sim-locked", false, "program both lock bits of the simulated target")
}

// rig is a programmer bound to its pins, plus the optional button and LED.
type rig struct {
	cfg    config.File
	log    *slog.Logger
	logw   io.Writer
	prog   *hvsp.Programmer
	host   *hvsp.Host       // nil when simulated
	target *hvsptest.Target // nil on hardware
	button hvsp.EdgePin
	led    hvsp.EdgePin
}

func (c *commonFlags) loadConfig() config.File {
	if c.config == "" {
		return config.Default()
	}
	f, err := config.Load(c.config)
	if err != nil {
		fatalf("%v", err)
	}
	return f
}

func (c *commonFlags) open() *rig {
	r := &rig{
		cfg:  c.loadConfig(),
		logw: logs.Writer(c.logfile),
	}
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	r.log = slog.New(logs.NewHandler(r.logw, level))

	var pins hvsp.Pins
	if c.sim != "" {
		sig, err := strconv.ParseUint(c.sim, 0, 16)
		if err != nil {
			fatalUsage("bad -sim signature %q: %v", c.sim, err)
		}
		r.target = hvsptest.New(hvsp.Signature(sig))
		if c.simLock {
			r.target.Lock = 0xFC
		}
		pins = r.target.Pins()
	} else {
		h, err := hvsp.NewHost(r.cfg.Backend)
		if err != nil {
			fatalf("%v", err)
		}
		r.host = h
		if pins, err = h.Pins(r.cfg.Pins.Names()); err != nil {
			h.Close()
			fatalf("%v", err)
		}
		if name := r.cfg.Pins.Button; name != "" {
			if r.button, err = h.Pin(name); err != nil {
				h.Close()
				fatalf("button: %v", err)
			}
		}
		if name := r.cfg.Pins.LED; name != "" {
			if r.led, err = h.Pin(name); err != nil {
				h.Close()
				fatalf("led: %v", err)
			}
		}
	}

	opts := []hvsp.Option{
		hvsp.WithLogger(r.log),
		hvsp.WithReadyTimeout(r.cfg.ReadyTimeout.Duration),
	}
	if r.led != nil {
		opts = append(opts, hvsp.WithStateHook(r.showState))
	}
	p, err := hvsp.New(pins, opts...)
	if err != nil {
		r.Close()
		fatalf("%v", err)
	}
	r.prog = p
	return r
}

// showState lights the LED while the target is powered.
func (r *rig) showState(s hvsp.State) {
	var err error
	switch s {
	case hvsp.StatePoweredUp:
		err = r.led.Out(gpio.High)
	case hvsp.StatePoweredDown:
		err = r.led.Out(gpio.Low)
	}
	if err != nil {
		r.log.Warn("led", "err", err)
	}
}

func (r *rig) Close() {
	if r.host == nil {
		return
	}
	if err := r.host.Close(); err != nil {
		r.log.Warn("failed to close backend", "backend", r.cfg.Backend, "err", err)
	}
}
