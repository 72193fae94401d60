// Package hvsptest provides a simulated ATtiny HVSP target whose six pins
// plug straight into hvsp.Pins.
package hvsptest

import (
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/gentam/hvsp"
)

// Frame is one decoded 11-bit frame pair as the target saw it.
type Frame struct {
	Data  byte
	Instr byte
}

// Target simulates the HVSP side of an ATtiny: it latches programming mode
// from the RESET/VCC sequence, shifts frames on SCI rising edges and answers
// on SDO.
//
// Fields may be set before the session starts; read them after it ends.
type Target struct {
	mu sync.Mutex

	// Signature bytes 0..2.
	Signature [3]byte
	LFuse     byte
	HFuse     byte
	EFuse     byte
	Lock      byte

	// Silent keeps SDO low forever, as a missing or miswired part would.
	Silent bool
	// EraseBusy and WriteBusy are the number of SDO reads that return low
	// after a chip erase or fuse write.
	EraseBusy int
	WriteBusy int

	// Observations.
	Frames        []Frame
	BadFrames     int  // frames with non-zero pad bits
	EntryOK       bool // 12V was applied with VCC up and SDI, SII, SDO low
	Entries       int
	Erases        int
	FuseWrites    int
	IgnoredWrites int // fuse writes dropped because LB1 was programmed

	rst, sci, sdo, sii, sdi, vcc *Pin

	progMode  bool
	sdoInput  bool
	edges     int
	din, iin  uint16
	cmd, addr byte
	data      byte
	pending   byte // first half of a two-frame commit
	out       byte
	busy      int
}

// New returns a powered-off target reporting sig, with factory fuses of a
// ATtiny25-class part and no lock bits programmed.
func New(sig hvsp.Signature) *Target {
	t := &Target{
		Signature: [3]byte{0x1E, byte(sig >> 8), byte(sig)},
		LFuse:     0x62,
		HFuse:     0xDF,
		EFuse:     0xFF,
		Lock:      0xFF,
		EraseBusy: 3,
		WriteBusy: 1,
	}
	t.rst = t.newPin("RST", 0)
	t.sci = t.newPin("SCI", 1)
	t.sdo = t.newPin("SDO", 2)
	t.sii = t.newPin("SII", 3)
	t.sdi = t.newPin("SDI", 4)
	t.vcc = t.newPin("VCC", 5)
	t.rst.L = gpio.High
	return t
}

// Pins returns the host side of the target's six lines.
func (t *Target) Pins() hvsp.Pins {
	return hvsp.Pins{
		RST: t.rst,
		SCI: t.sci,
		SDO: t.sdo,
		SII: t.sii,
		SDI: t.sdi,
		VCC: t.vcc,
	}
}

// Locked reports whether LB1 is programmed.
func (t *Target) Locked() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Lock&1 == 0
}

// Powered reports whether VCC is up or 12V is on RESET.
func (t *Target) Powered() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return bool(t.vcc.L) || !bool(t.rst.L)
}

// Pin is one simulated line. It records what the host drives like a
// gpiotest.Pin and reports the target's level on SDO.
type Pin struct {
	*gpiotest.Pin
	t *Target
}

func (t *Target) newPin(name string, num int) *Pin {
	return &Pin{
		Pin: &gpiotest.Pin{N: name, Num: num, Fn: "Out/Low"},
		t:   t,
	}
}

func (p *Pin) Out(l gpio.Level) error {
	p.t.mu.Lock()
	defer p.t.mu.Unlock()
	prev := p.Pin.L
	p.Pin.L = l
	if p == p.t.sdo {
		p.t.sdoInput = false
	}
	p.t.driven(p, prev, l)
	return nil
}

func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.t.mu.Lock()
	defer p.t.mu.Unlock()
	if p == p.t.sdo {
		p.t.sdoInput = true
	}
	return nil
}

func (p *Pin) Read() gpio.Level {
	p.t.mu.Lock()
	defer p.t.mu.Unlock()
	if p == p.t.sdo && p.t.sdoInput {
		return p.t.sdoLevel()
	}
	return p.Pin.L
}

// driven reacts to the host changing a line. t.mu is held.
func (t *Target) driven(p *Pin, prev, l gpio.Level) {
	switch p {
	case t.rst:
		if l == gpio.Low && bool(t.vcc.L) && !t.progMode {
			// 12V applied on a powered part
			t.Entries++
			t.progMode = true
			t.EntryOK = !bool(t.sdi.L) && !bool(t.sii.L) && !bool(t.sdo.L) && !t.sdoInput
			t.resetShift()
		} else if l == gpio.High {
			t.progMode = false
		}
	case t.vcc:
		if l == gpio.Low {
			t.progMode = false
			t.resetShift()
		}
	case t.sci:
		if t.progMode && !bool(prev) && bool(l) {
			t.clock()
		}
	}
}

func (t *Target) resetShift() {
	t.edges = 0
	t.din, t.iin = 0, 0
	t.out = 0
	t.busy = 0
	t.pending = 0
}

// sdoLevel is what the target drives on SDO. t.mu is held.
func (t *Target) sdoLevel() gpio.Level {
	if !t.progMode || t.Silent {
		return gpio.Low
	}
	switch {
	case t.edges == 0:
		if t.busy > 0 {
			t.busy--
			return gpio.Low
		}
		return gpio.High // ready
	case t.edges <= 8:
		return t.out&(1<<(8-t.edges)) != 0
	}
	return gpio.Low
}

// clock shifts one bit in on a rising SCI edge. t.mu is held.
func (t *Target) clock() {
	t.din = t.din<<1 | bit(t.sdi.L)
	t.iin = t.iin<<1 | bit(t.sii.L)
	t.edges++
	if t.edges < 11 {
		return
	}
	const pad = 1<<10 | 0b11
	if t.din&pad != 0 || t.iin&pad != 0 {
		t.BadFrames++
	}
	f := Frame{Data: byte(t.din >> 2), Instr: byte(t.iin >> 2)}
	t.Frames = append(t.Frames, f)
	t.edges = 0
	t.din, t.iin = 0, 0
	t.execute(f)
}

func bit(l gpio.Level) uint16 {
	if l {
		return 1
	}
	return 0
}

// execute runs one instruction frame. Latch frames load the byte shifted out
// during the next frame.
func (t *Target) execute(f Frame) {
	var out byte
	pending := byte(0)
	switch f.Instr {
	case 0x4C:
		t.cmd = f.Data
	case 0x0C:
		t.addr = f.Data
	case 0x2C:
		t.data = f.Data
	case 0x68:
		switch t.cmd {
		case 0x08:
			if int(t.addr) < len(t.Signature) {
				out = t.Signature[t.addr]
			}
		case 0x04:
			out = t.LFuse
		}
	case 0x7A:
		if t.cmd == 0x04 {
			out = t.HFuse
		}
	case 0x6A:
		if t.cmd == 0x04 {
			out = t.EFuse
		}
	case 0x78:
		if t.cmd == 0x04 {
			out = t.Lock
		}
	case 0x64, 0x74, 0x66:
		pending = f.Instr
	case 0x6C:
		switch {
		case t.cmd == 0x40 && t.pending == 0x64:
			t.writeFuse(&t.LFuse)
		case t.cmd == 0x80 && t.pending == 0x64:
			t.Erases++
			t.Lock = 0xFF
			t.busy = t.EraseBusy
		}
	case 0x7C:
		if t.cmd == 0x40 && t.pending == 0x74 {
			t.writeFuse(&t.HFuse)
		}
	case 0x6E:
		if t.cmd == 0x40 && t.pending == 0x66 {
			t.writeFuse(&t.EFuse)
		}
	}
	t.out = out
	t.pending = pending
}

func (t *Target) writeFuse(fuse *byte) {
	if t.Lock&1 == 0 {
		t.IgnoredWrites++
		return
	}
	*fuse = t.data
	t.FuseWrites++
	t.busy = t.WriteBusy
}
