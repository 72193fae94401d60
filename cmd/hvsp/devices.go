package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/gentam/hvsp"
	"github.com/gentam/hvsp/internal/trigger"
)

func devicesCommand(args []string) {
	fs := flag.NewFlagSet("devices", flag.ExitOnError)
	var ports bool
	fs.BoolVar(&ports, "ports", false, "list serial ports instead")
	fs.Parse(args)

	if ports {
		list, err := trigger.Ports()
		if err != nil {
			fatalf("failed to list serial ports: %v", err)
		}
		for _, p := range list {
			fmt.Println(p)
		}
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "PART\tSIGNATURE\tPINS\tLFUSE\tHFUSE\tEFUSE")
	for _, d := range hvsp.KnownDevices() {
		efuse := "-"
		if d.HasEFuse {
			efuse = fmt.Sprintf("%02X", d.EFuse)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%02X\t%02X\t%s\n", d.Name, d.Signature, d.Pins, d.LFuse, d.HFuse, efuse)
	}
	w.Flush()
}
