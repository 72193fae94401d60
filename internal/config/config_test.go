package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gentam/hvsp"
	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hvsp.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
backend = "ftdi"
ready_timeout = "50ms"

[pins]
rst = "C0"
sci = "D0"
sdo = "D1"
sii = "D2"
sdi = "D3"
vcc = "C1"
button = ""
led = "C2"
`)
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := File{
		Backend:      hvsp.BackendFTDI,
		ReadyTimeout: Duration{50 * time.Millisecond},
		Pins: Pins{
			RST: "C0", SCI: "D0", SDO: "D1", SII: "D2", SDI: "D3", VCC: "C1",
			LED: "C2",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if names := got.Pins.Names(); names.SCI != "D0" || names.VCC != "C1" {
		t.Errorf("Names() = %+v", names)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	got, err := Load(writeFile(t, "[pins]\nled = \"GPIO12\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.Pins.LED = "GPIO12"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "backend = ", "config"},
		{"unknown key", "speed = 3\n", `unknown key "speed"`},
		{"backend", `backend = "spi"`, `unknown backend "spi"`},
		{"duration", `ready_timeout = "soon"`, "invalid duration"},
		{"negative", `ready_timeout = "-1ms"`, "negative ready_timeout"},
		{"unbound", "[pins]\nsci = \"\"\n", "pins.sci is not set"},
		{"duplicate", "[pins]\nled = \"GPIO17\"\n", `pin "GPIO17" used for both rst and led`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			if err == nil {
				t.Fatal("Load() succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.toml")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load() error = %v, want not-exist", err)
	}
}
