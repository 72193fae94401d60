package hvsp

import (
	"fmt"
	"strings"
)

// FuseAddress selects a fuse byte. The value is the instruction pair sent on
// SII to commit a write, high byte first; it is not a memory address.
type FuseAddress uint16

const (
	LFuse FuseAddress = 0x646C
	HFuse FuseAddress = 0x747C
	EFuse FuseAddress = 0x666E
)

func (a FuseAddress) String() string {
	switch a {
	case LFuse:
		return "LFUSE"
	case HFuse:
		return "HFUSE"
	case EFuse:
		return "EFUSE"
	}
	return fmt.Sprintf("FuseAddress(0x%04X)", uint16(a))
}

func (a FuseAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// readPair is the SII byte of the latch frame and of the output frame that
// follow the read command.
type readPair struct {
	latch  byte
	output byte
}

// [ATtiny25|Table 20-16] "Read Fuse Low/High/Extended Bits", "Read Lock Bits"
var fuseReadPairs = map[FuseAddress]readPair{
	LFuse: {latch: 0x68, output: 0x6C},
	HFuse: {latch: 0x7A, output: 0x7E},
	EFuse: {latch: 0x6A, output: 0x6E},
}

var lockReadPair = readPair{latch: 0x78, output: 0x7C}

// FuseValue pairs a fuse with a byte to write or a byte read back.
type FuseValue struct {
	Fuse  FuseAddress `json:"fuse"`
	Value byte        `json:"value"`
}

// Fuses holds one read of every fuse byte. Extended is only meaningful when
// HasExtended is set.
type Fuses struct {
	Low         byte `json:"lfuse"`
	High        byte `json:"hfuse"`
	Extended    byte `json:"efuse"`
	HasExtended bool `json:"has_efuse"`
}

func (f Fuses) String() string {
	s := fmt.Sprintf("LFuse: %02X, HFuse: %02X", f.Low, f.High)
	if f.HasExtended {
		s += fmt.Sprintf(", EFuse: %02X", f.Extended)
	}
	return s
}

// Matches reports whether f holds the defaults of d.
func (f Fuses) Matches(d *Device) bool {
	if f.Low != d.LFuse || f.High != d.HFuse {
		return false
	}
	return !d.HasEFuse || f.Extended == d.EFuse
}

func (p *Programmer) read(pair readPair) (byte, error) {
	return p.sequence(
		[2]byte{cmdReadFuseLock, siiLoadCommand},
		[2]byte{0x00, pair.latch},
		[2]byte{0x00, pair.output},
	)
}

// ReadFuse reads one fuse byte.
func (p *Programmer) ReadFuse(a FuseAddress) (byte, error) {
	pair, ok := fuseReadPairs[a]
	if !ok {
		return 0, fmt.Errorf("read fuse: unknown %s", a)
	}
	v, err := p.read(pair)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", a, err)
	}
	return v, nil
}

// ReadFuses reads LFUSE and HFUSE, and EFUSE when extended is set.
func (p *Programmer) ReadFuses(extended bool) (Fuses, error) {
	var f Fuses
	var err error
	if f.Low, err = p.ReadFuse(LFuse); err != nil {
		return f, err
	}
	if f.High, err = p.ReadFuse(HFuse); err != nil {
		return f, err
	}
	if extended {
		if f.Extended, err = p.ReadFuse(EFuse); err != nil {
			return f, err
		}
		f.HasExtended = true
	}
	p.log.Debug("fuses read", "fuses", f.String())
	return f, nil
}

// WriteFuse programs one fuse byte. The target ignores the write while LB1
// is programmed; see LockBits.Locked.
func (p *Programmer) WriteFuse(a FuseAddress, v byte) error {
	if _, ok := fuseReadPairs[a]; !ok {
		return fmt.Errorf("write fuse: unknown %s", a)
	}
	_, err := p.sequence(
		[2]byte{cmdWriteFuse, siiLoadCommand},
		[2]byte{v, siiLoadDataLow},
		[2]byte{0x00, byte(a >> 8)},
		[2]byte{0x00, byte(a)},
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", a, err)
	}
	p.log.Info("fuse written", "fuse", a.String(), "value", hex8(v))
	return nil
}

// LockBits is the lock byte as read from the target. Only bits 1..0 carry
// meaning; a bit reads 0 when programmed.
//
//	Bits| [ATtiny25|20.1 Program And Data Memory Lock Bits]
//	----+-------------------------------------------------
//	7:2 | Reserved
//	1   | LB2: Lock bit 2
//	0   | LB1: Lock bit 1
type LockBits byte

func (lb LockBits) LB1Programmed() bool { return lb&(1<<0) == 0 }
func (lb LockBits) LB2Programmed() bool { return lb&(1<<1) == 0 }

// Locked reports whether further programming, fuses included, is disabled
// until a chip erase.
func (lb LockBits) Locked() bool { return lb.LB1Programmed() }

func (lb LockBits) String() string {
	b := fmt.Sprintf("%08b", byte(lb))
	s := []string{}
	if lb.LB1Programmed() {
		s = append(s, "LB1")
	}
	if lb.LB2Programmed() {
		s = append(s, "LB2")
	}
	if len(s) == 0 {
		return b
	}
	return b + " " + strings.Join(s, ",")
}

// ReadLockBits reads the lock byte and then waits for the target to signal
// ready again.
func (p *Programmer) ReadLockBits() (LockBits, error) {
	v, err := p.read(lockReadPair)
	if err != nil {
		return 0, fmt.Errorf("read lock bits: %w", err)
	}
	p.waitReady()
	lb := LockBits(v)
	p.log.Debug("lock bits read", "lock", lb.String(), "locked", lb.Locked())
	return lb, nil
}
