package main

import (
	"flag"
	"fmt"

	"github.com/gentam/hvsp"
	"periph.io/x/host/v3/ftdi"
)

func infoCommand(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	fs.Parse(args)

	cfg := common.loadConfig()
	fmt.Printf("Backend:         %s\n", cfg.Backend)
	fmt.Printf("Ready timeout:   %s\n", cfg.ReadyTimeout)
	for _, p := range []struct{ role, name string }{
		{"RST", cfg.Pins.RST},
		{"SCI", cfg.Pins.SCI},
		{"SDO", cfg.Pins.SDO},
		{"SII", cfg.Pins.SII},
		{"SDI", cfg.Pins.SDI},
		{"VCC", cfg.Pins.VCC},
		{"Button", cfg.Pins.Button},
		{"LED", cfg.Pins.LED},
	} {
		if p.name == "" {
			p.name = "-"
		}
		fmt.Printf("%-16s %s\n", p.role+":", p.name)
	}

	if common.sim != "" || cfg.Backend != hvsp.BackendFTDI {
		return
	}

	h, err := hvsp.NewHost(cfg.Backend)
	if err != nil {
		fatalf("%v", err)
	}
	defer h.Close()
	ft := h.FTDI

	// Reference: https://github.com/periph/cmd/tree/main/ftdi-list
	i := ftdi.Info{}
	ft.Info(&i)
	fmt.Printf("Type:            %s\n", i.Type)
	fmt.Printf("Vendor ID:       %#04x\n", i.VenID)
	fmt.Printf("Device ID:       %#04x\n", i.DevID)

	ee := ftdi.EEPROM{}
	if err := ft.EEPROM(&ee); err != nil {
		h.Close()
		fatalf("failed to read EEPROM: %v", err)
	}
	fmt.Printf("Manufacturer:    %s\n", ee.Manufacturer)
	fmt.Printf("Desc:            %s\n", ee.Desc)
	fmt.Printf("Serial:          %s\n", ee.Serial)

	for _, p := range ft.Header() {
		fmt.Printf("%s: %s\n", p, p.Function())
	}
}
