package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/gentam/hvsp/internal/server"
	"github.com/gentam/hvsp/internal/trigger"
)

func serveCommand(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var (
		common commonFlags
		trig   triggerFlags
		addr   string
	)
	common.register(fs)
	trig.register(fs)
	fs.StringVar(&addr, "addr", "127.0.0.1:8370", "HTTP listen address")
	fs.Parse(args)

	r := common.open()
	defer r.Close()

	s := server.New(addr, r.prog, r.log, r.logw)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srcs, console, closeSources := trig.sources(r)
	defer closeSources()
	if len(srcs) > 0 {
		go runTriggers(ctx, s, srcs, console, r)
	}

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	blink(r.led)
	r.log.Info("listening", "addr", addr)
	if err := s.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		r.Close()
		fatalf("%v", err)
	}
}

// runTriggers starts sessions from the button and console next to HTTP.
func runTriggers(ctx context.Context, s *server.Server, srcs []trigger.Source, console io.Writer, r *rig) {
	for {
		action, err := trigger.First(ctx, srcs...)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				r.log.Error("trigger failed", "err", err)
			}
			return
		}
		out, err := s.Do(action)
		if errors.Is(err, server.ErrBusy) {
			r.log.Warn("trigger ignored", "action", action, "err", err)
			continue
		}
		if out != nil {
			report(console, out)
		}
	}
}
