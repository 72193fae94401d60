package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/gentam/hvsp"
	"github.com/gentam/hvsp/internal/trigger"
	"periph.io/x/conn/v3/gpio"
)

type stdio struct {
	io.Reader
	io.Writer
}

// triggerFlags select where start requests come from.
type triggerFlags struct {
	port    string
	baud    int
	console bool
	button  string
}

func (t *triggerFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&t.port, "port", "", "serial port to read command characters from")
	fs.IntVar(&t.baud, "baud", 115200, "serial port baud rate")
	fs.BoolVar(&t.console, "stdin", false, "read command characters from stdin")
	fs.StringVar(&t.button, "a", "write", "action started by the button (write, read, erase)")
}

// sources opens the configured triggers. The returned writer receives session
// reports: the serial console if there is one, stdout otherwise.
func (t *triggerFlags) sources(r *rig) ([]trigger.Source, io.Writer, func()) {
	var (
		srcs    []trigger.Source
		console io.Writer = os.Stdout
		closers []io.Closer
	)

	if r.button != nil {
		action, err := hvsp.ParseAction(t.button)
		if err != nil {
			fatalUsage("-a: %v", err)
		}
		b, err := trigger.NewButton(r.button, action)
		if err != nil {
			fatalf("%v", err)
		}
		srcs = append(srcs, b)
	}
	if t.port != "" {
		s, err := trigger.OpenSerial(t.port, t.baud)
		if err != nil {
			fatalf("%v", err)
		}
		srcs = append(srcs, s)
		closers = append(closers, s)
		console = s
	}
	if t.console {
		srcs = append(srcs, trigger.NewSerial(stdio{os.Stdin, os.Stdout}))
	}

	return srcs, console, func() {
		for _, c := range closers {
			c.Close()
		}
	}
}

func prompt(w io.Writer, button bool) {
	fmt.Fprintln(w, "Enter 'f' to write fuses to defaults...")
	fmt.Fprintln(w, "Enter 'e' to erase flash and lock bits...")
	fmt.Fprintln(w, "Enter any other character to read fuses...")
	if button {
		fmt.Fprintln(w, "Or press the button to start.")
	}
}

// blink shows that the programmer is up.
func blink(led hvsp.EdgePin) {
	if led == nil {
		return
	}
	led.Out(gpio.High)
	time.Sleep(500 * time.Millisecond)
	led.Out(gpio.Low)
}

func waitCommand(args []string) {
	fs := flag.NewFlagSet("wait", flag.ExitOnError)
	var (
		common commonFlags
		trig   triggerFlags
		once   bool
	)
	common.register(fs)
	trig.register(fs)
	fs.BoolVar(&once, "1", false, "exit after the first session")
	fs.Parse(args)

	r := common.open()
	defer r.Close()

	srcs, console, closeSources := trig.sources(r)
	defer closeSources()
	if len(srcs) == 0 {
		fatalUsage("nothing to wait for: bind a button or give -port or -stdin")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	blink(r.led)
	for {
		prompt(console, r.button != nil)
		action, err := trigger.First(ctx, srcs...)
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			r.log.Error("trigger failed", "err", err)
			return
		}

		out, err := r.prog.Run(action)
		if out != nil {
			report(console, out)
		}
		if err != nil {
			r.log.Error("session failed", "action", action, "err", err)
		}
		fmt.Fprintln(console)
		if once {
			return
		}
	}
}
