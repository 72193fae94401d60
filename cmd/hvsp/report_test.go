package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/gentam/hvsp"
	"github.com/gentam/hvsp/hvsptest"
)

func run(t *testing.T, target *hvsptest.Target, action hvsp.Action) string {
	t.Helper()
	p, err := hvsp.New(target.Pins(),
		hvsp.WithTiming(hvsp.Timing{}),
		hvsp.WithReadyTimeout(5*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	out, err := p.Run(action)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	report(&buf, out)
	return buf.String()
}

func TestReport(t *testing.T) {
	locked := hvsptest.New(0x930C)
	locked.LFuse, locked.Lock = 0xE2, 0xFC

	brickedTiny13 := hvsptest.New(0x9007)
	brickedTiny13.LFuse, brickedTiny13.HFuse = 0x00, 0x00

	tests := []struct {
		name   string
		target *hvsptest.Target
		action hvsp.Action
		want   []string
		absent []string
	}{
		{
			name:   "write tiny13",
			target: brickedTiny13,
			action: hvsp.ActionWriteDefaults,
			want: []string{
				"Signature is: 9007\n",
				"LFuse: 00, HFuse: 00\n",
				"The ATtiny is detected as ATtiny13.\n",
				"Write LFUSE: 0x6A\n",
				"Write HFUSE: 0xFF\n",
				"Fuses read again: LFuse: 6A, HFuse: FF\n",
				"Fuses restored to defaults.\n",
			},
			absent: []string{"EFUSE", "Erased", "Warning"},
		},
		{
			name:   "write locked tiny84",
			target: locked,
			action: hvsp.ActionWriteDefaults,
			want: []string{
				"Lock bits: 11111100 LB1,LB2\n",
				"erasing flash and lock bits first",
				"Erased flash and lock bits.\n",
				"Write EFUSE: 0xFF\n",
				"Lock bits read again: 11111111\n",
				"Fuses restored to defaults.\n",
			},
		},
		{
			name:   "read",
			target: hvsptest.New(0x9108),
			action: hvsp.ActionReadOnly,
			want:   []string{"The ATtiny is detected as ATtiny25.\n", "LFuse: 62, HFuse: DF, EFuse: FF\n"},
			absent: []string{"Write", "read again", "defaults"},
		},
		{
			name:   "unknown",
			target: hvsptest.New(0x1E00),
			action: hvsp.ActionWriteDefaults,
			want:   []string{"Signature is: 1E00\n", "No valid ATtiny signature detected! Try again.\n"},
			absent: []string{"detected as", "Write"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := run(t, tt.target, tt.action)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("report lacks %q:\n%s", w, got)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(got, a) {
					t.Errorf("report has %q:\n%s", a, got)
				}
			}
		})
	}
}

func TestReportTimeouts(t *testing.T) {
	target := hvsptest.New(0x930B)
	target.Silent = true
	got := run(t, target, hvsp.ActionReadOnly)
	if !strings.Contains(got, "Warning: target did not signal ready") {
		t.Errorf("report lacks timeout warning:\n%s", got)
	}
}
