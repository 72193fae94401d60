package trigger

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gentam/hvsp"
	"go.bug.st/serial"
)

// DefaultSettle is how long a burst of command characters may keep arriving
// after the first one, enough for a terminal's trailing CR/LF.
const DefaultSettle = 100 * time.Millisecond

// Serial reads command characters from a console. Of a burst, the last
// character other than CR and LF decides the action; a burst of only line
// endings reads.
type Serial struct {
	Settle time.Duration

	rw   io.ReadWriter
	in   chan byte
	errc chan error
}

// NewSerial starts reading rw. Reports written to the Serial go to rw.
func NewSerial(rw io.ReadWriter) *Serial {
	s := &Serial{
		Settle: DefaultSettle,
		rw:     rw,
		in:     make(chan byte, 64),
		errc:   make(chan error, 1),
	}
	go s.read()
	return s
}

// OpenSerial opens a serial port at baud 8N1.
func OpenSerial(name string, baud int) (*Serial, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return NewSerial(port), nil
}

// Ports lists the serial ports present on the host.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

func (s *Serial) read() {
	buf := make([]byte, 64)
	for {
		n, err := s.rw.Read(buf)
		for _, c := range buf[:n] {
			s.in <- c
		}
		if err != nil {
			s.errc <- err
			return
		}
	}
}

func (s *Serial) Next(ctx context.Context) (hvsp.Action, error) {
	var c byte
	select {
	case c = <-s.in:
	case err := <-s.errc:
		return 0, err
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	cmd := byte('\n')
	take := func(c byte) {
		if c != '\r' && c != '\n' {
			cmd = c
		}
	}
	take(c)

	settle := time.NewTimer(s.Settle)
	defer settle.Stop()
	for {
		select {
		case c = <-s.in:
			take(c)
		case <-settle.C:
			return ActionFor(cmd), nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

func (s *Serial) Write(p []byte) (int, error) {
	return s.rw.Write(p)
}

// Close closes the underlying port if it can be closed, which also ends the
// reader.
func (s *Serial) Close() error {
	if c, ok := s.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
