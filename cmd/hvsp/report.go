package main

import (
	"fmt"
	"io"

	"github.com/gentam/hvsp"
)

// report prints an outcome the way the programmer talks on its console.
func report(w io.Writer, out *hvsp.Outcome) {
	fmt.Fprintf(w, "Signature is: %04X\n", uint16(out.Signature))
	fmt.Fprintf(w, "%s\n", out.Fuses)

	if out.Device == nil {
		fmt.Fprintln(w, "No valid ATtiny signature detected! Try again.")
		reportTimeouts(w, out)
		return
	}
	fmt.Fprintf(w, "The ATtiny is detected as %s.\n", out.Device.Name)
	fmt.Fprintf(w, "Lock bits: %s\n", out.Lock)

	if out.Escalated {
		fmt.Fprintln(w, "Fuses are locked, erasing flash and lock bits first...")
	}
	if out.Erased {
		fmt.Fprintln(w, "Erased flash and lock bits.")
	}
	for _, fv := range out.Written {
		fmt.Fprintf(w, "Write %s: 0x%02X\n", fv.Fuse, fv.Value)
	}

	if out.Action != hvsp.ActionReadOnly {
		fmt.Fprintf(w, "Fuses read again: %s\n", out.Verify)
		if out.VerifyLock != nil {
			fmt.Fprintf(w, "Lock bits read again: %s\n", *out.VerifyLock)
		}
	}
	if len(out.Written) > 0 {
		if out.DefaultsApplied() {
			fmt.Fprintln(w, "Fuses restored to defaults.")
		} else {
			fmt.Fprintln(w, "Fuses do NOT match the defaults.")
		}
	}
	reportTimeouts(w, out)
}

func reportTimeouts(w io.Writer, out *hvsp.Outcome) {
	if out.Timeouts > 0 {
		fmt.Fprintf(w, "Warning: target did not signal ready %d times; check wiring and the 12V supply.\n", out.Timeouts)
	}
}
