package main

import (
	"flag"
	"fmt"
	"os"
)

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

func fatalUsage(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(2)
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
	hvsp <command> [arguments]

Commands:
	read	 read signature, fuses and lock bits
	write	 restore the factory fuses (erases a locked part first)
	erase	 erase flash and lock bits
	wait	 run a session per button press or console character
	serve	 run sessions on HTTP requests
	info	 show the backend and pin binding
	devices	 list supported parts and serial ports

Run "hvsp <command> -h" for the flags of a command.
`)
	os.Exit(2)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
	}

	args := flag.Args()[1:]
	switch cmd := flag.Arg(0); cmd {
	case "read", "write", "erase":
		sessionCommand(cmd, args)
	case "wait":
		waitCommand(args)
	case "serve":
		serveCommand(args)
	case "info":
		infoCommand(args)
	case "devices":
		devicesCommand(args)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %q\n", cmd)
		usage()
	}
}
