package main

import (
	"flag"
	"os"

	"github.com/gentam/hvsp"
)

// sessionCommand runs one read, write or erase session.
func sessionCommand(name string, args []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	fs.Parse(args)

	action, err := hvsp.ParseAction(name)
	if err != nil {
		fatalUsage("%v", err)
	}

	r := common.open()
	defer r.Close()

	out, err := r.prog.Run(action)
	if out != nil {
		report(os.Stdout, out)
	}
	if err != nil {
		r.Close()
		fatalf("%s failed: %v", name, err)
	}
	if out.Device == nil {
		r.Close()
		os.Exit(1)
	}
}
