package hvsp

import "fmt"

// HVSP instruction set: each step is one frame of {SDI, SII}.
// [ATtiny25|Table 20-16. High-voltage Serial Programming Instruction Set]
const (
	cmdChipErase     = 0x80
	cmdWriteFuse     = 0x40
	cmdReadSignature = 0x08
	cmdReadFuseLock  = 0x04

	siiLoadCommand  = 0x4C
	siiLoadAddrLow  = 0x0C
	siiLoadDataLow  = 0x2C
	siiReadLowByte  = 0x68 // latch signature byte or LFUSE
	siiOutputLow    = 0x6C // shift the latched low byte out; also commits
	siiEraseTrigger = 0x64
)

// ReadSignatureByte reads signature byte i (0: manufacturer, 1 and 2: part).
func (p *Programmer) ReadSignatureByte(i byte) (byte, error) {
	b, err := p.sequence(
		[2]byte{cmdReadSignature, siiLoadCommand},
		[2]byte{i, siiLoadAddrLow},
		[2]byte{0x00, siiReadLowByte},
		[2]byte{0x00, siiOutputLow},
	)
	if err != nil {
		return 0, fmt.Errorf("read signature byte %d: %w", i, err)
	}
	return b, nil
}

// ReadSignature reads signature bytes 1 and 2 into the high and low byte of
// the result. The manufacturer byte is skipped.
func (p *Programmer) ReadSignature() (Signature, error) {
	var sig Signature
	for i := byte(1); i < 3; i++ {
		b, err := p.ReadSignatureByte(i)
		if err != nil {
			return 0, err
		}
		sig = sig<<8 | Signature(b)
	}
	p.log.Debug("signature read", "signature", sig)
	return sig, nil
}
