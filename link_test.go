package hvsp

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestFrame(t *testing.T) {
	for v := 0; v < 256; v++ {
		f := frame(byte(v))
		if f != uint16(v)<<2 {
			t.Fatalf("frame(0x%02X) = 0x%03X, want 0x%03X", v, f, uint16(v)<<2)
		}
		if f>>frameBits != 0 {
			t.Fatalf("frame(0x%02X) = 0x%03X is wider than %d bits", v, f, frameBits)
		}
		if level(f, frameBits-1) || level(f, 1) || level(f, 0) {
			t.Fatalf("frame(0x%02X) = 0x%03X has a pad bit set", v, f)
		}
	}
}

// clockRecorder captures SDI and SII on every rising SCI edge.
type clockRecorder struct {
	gpiotest.Pin
	sdi, sii *gpiotest.Pin
	dataBits []gpio.Level
	instBits []gpio.Level
}

func (c *clockRecorder) Out(l gpio.Level) error {
	if l && !c.L {
		c.dataBits = append(c.dataBits, c.sdi.L)
		c.instBits = append(c.instBits, c.sii.L)
	}
	c.L = l
	return nil
}

func bitsOf(levels []gpio.Level) uint16 {
	var v uint16
	for _, l := range levels {
		v <<= 1
		if l {
			v |= 1
		}
	}
	return v
}

func newTestPins(sdoLevel gpio.Level) (Pins, *clockRecorder) {
	sdi := &gpiotest.Pin{N: "SDI"}
	sii := &gpiotest.Pin{N: "SII"}
	sci := &clockRecorder{Pin: gpiotest.Pin{N: "SCI"}, sdi: sdi, sii: sii}
	return Pins{
		RST: &gpiotest.Pin{N: "RST"},
		SCI: sci,
		SDO: &gpiotest.Pin{N: "SDO", L: sdoLevel},
		SII: sii,
		SDI: sdi,
		VCC: &gpiotest.Pin{N: "VCC"},
	}, sci
}

func TestTransferShiftsMSBFirst(t *testing.T) {
	pins, sci := newTestPins(gpio.High)
	p, err := New(pins)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct{ data, instr byte }{
		{0x08, 0x4C},
		{0x00, 0x68},
		{0xA5, 0x2C},
		{0xFF, 0xFF},
	}
	for _, tt := range tests {
		sci.dataBits, sci.instBits = nil, nil
		if _, err := p.Transfer(tt.data, tt.instr); err != nil {
			t.Fatal(err)
		}
		if len(sci.dataBits) != frameBits {
			t.Fatalf("Transfer(0x%02X, 0x%02X) pulsed SCI %d times, want %d", tt.data, tt.instr, len(sci.dataBits), frameBits)
		}
		if got := bitsOf(sci.dataBits); got != frame(tt.data) {
			t.Errorf("SDI frame = %011b, want %011b", got, frame(tt.data))
		}
		if got := bitsOf(sci.instBits); got != frame(tt.instr) {
			t.Errorf("SII frame = %011b, want %011b", got, frame(tt.instr))
		}
	}
}

func TestTransferDropsReturnPadBits(t *testing.T) {
	pins, _ := newTestPins(gpio.High)
	p, err := New(pins)
	if err != nil {
		t.Fatal(err)
	}
	got, err := p.Transfer(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xFF {
		t.Errorf("Transfer with SDO high = 0x%02X, want 0xFF", got)
	}
	if p.timeouts != 0 {
		t.Errorf("timeouts = %d, want 0", p.timeouts)
	}
}

func TestTransferProceedsAfterReadyTimeout(t *testing.T) {
	pins, sci := newTestPins(gpio.Low)
	p, err := New(pins, WithReadyTimeout(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	got, err := p.Transfer(0x12, 0x34)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("Transfer with SDO low = 0x%02X, want 0", got)
	}
	if p.timeouts != 1 {
		t.Errorf("timeouts = %d, want 1", p.timeouts)
	}
	if len(sci.dataBits) != frameBits {
		t.Errorf("SCI pulsed %d times after timeout, want %d", len(sci.dataBits), frameBits)
	}
	if elapsed := time.Since(start); elapsed < time.Millisecond {
		t.Errorf("Transfer returned after %v, before the ready timeout", elapsed)
	}
}

func TestNewRejectsUnboundPins(t *testing.T) {
	pins, _ := newTestPins(gpio.High)
	pins.SDO = nil
	pins.VCC = nil
	if _, err := New(pins); err == nil {
		t.Fatal("New with unbound SDO and VCC returned nil error")
	}
}
