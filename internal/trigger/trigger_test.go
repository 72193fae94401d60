package trigger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/gentam/hvsp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestActionFor(t *testing.T) {
	tests := []struct {
		c    byte
		want hvsp.Action
	}{
		{'f', hvsp.ActionWriteDefaults},
		{'F', hvsp.ActionWriteDefaults},
		{'e', hvsp.ActionErase},
		{'r', hvsp.ActionReadOnly},
		{'x', hvsp.ActionReadOnly},
		{0, hvsp.ActionReadOnly},
	}
	for _, tt := range tests {
		if got := ActionFor(tt.c); got != tt.want {
			t.Errorf("ActionFor(%q) = %s, want %s", tt.c, got, tt.want)
		}
	}
}

type console struct {
	io.Reader
	io.Writer
}

func newConsole(t *testing.T) (*Serial, *io.PipeWriter, *bytes.Buffer) {
	t.Helper()
	pr, pw := io.Pipe()
	out := &bytes.Buffer{}
	s := NewSerial(console{pr, out})
	s.Settle = 10 * time.Millisecond
	t.Cleanup(func() { pw.Close() })
	return s, pw, out
}

func TestSerialBursts(t *testing.T) {
	tests := []struct {
		in   string
		want hvsp.Action
	}{
		{"f", hvsp.ActionWriteDefaults},
		{"f\r\n", hvsp.ActionWriteDefaults},
		{"e\n", hvsp.ActionErase},
		{"fe", hvsp.ActionErase},
		{"ef", hvsp.ActionWriteDefaults},
		{"r\n", hvsp.ActionReadOnly},
		{"\r\n", hvsp.ActionReadOnly},
	}
	s, pw, _ := newConsole(t)
	for _, tt := range tests {
		if _, err := io.WriteString(pw, tt.in); err != nil {
			t.Fatal(err)
		}
		got, err := s.Next(context.Background())
		if err != nil {
			t.Fatalf("Next() after %q: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Next() after %q = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSerialEOF(t *testing.T) {
	s, pw, _ := newConsole(t)
	pw.Close()
	if _, err := s.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("Next() error = %v, want EOF", err)
	}
}

func TestSerialCancel(t *testing.T) {
	s, _, _ := newConsole(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := s.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Next() error = %v, want deadline exceeded", err)
	}
}

func TestSerialWrite(t *testing.T) {
	s, _, out := newConsole(t)
	if _, err := io.WriteString(s, "Signature is: 0x930B\r\n"); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "Signature is: 0x930B\r\n" {
		t.Errorf("console got %q", got)
	}
}

func newButton(t *testing.T, action hvsp.Action) (*Button, *gpiotest.Pin) {
	t.Helper()
	pin := &gpiotest.Pin{N: "BTN", EdgesChan: make(chan gpio.Level, 4)}
	b, err := NewButton(pin, action)
	if err != nil {
		t.Fatal(err)
	}
	b.Debounce = 0
	return b, pin
}

func TestButtonPress(t *testing.T) {
	b, pin := newButton(t, hvsp.ActionErase)
	pin.EdgesChan <- gpio.Low
	pin.EdgesChan <- gpio.High // bounce
	got, err := b.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != hvsp.ActionErase {
		t.Errorf("Next() = %s, want erase", got)
	}
}

func TestButtonCancel(t *testing.T) {
	b, _ := newButton(t, hvsp.ActionWriteDefaults)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next() error = %v, want canceled", err)
	}
}

func TestFirst(t *testing.T) {
	b, _ := newButton(t, hvsp.ActionWriteDefaults)
	s, pw, _ := newConsole(t)

	go io.WriteString(pw, "e\n")
	got, err := First(context.Background(), b, s)
	if err != nil {
		t.Fatal(err)
	}
	if got != hvsp.ActionErase {
		t.Errorf("First() = %s, want erase from the console", got)
	}
}
