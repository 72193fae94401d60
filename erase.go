package hvsp

import "fmt"

// Erase clears the flash and EEPROM and resets the lock bits to unprogrammed.
// It is the only way out of a locked state. Completion is observed as SDO
// going high; if that does not happen within ReadyTimeout the erase is
// assumed done and the following read-back tells the truth.
func (p *Programmer) Erase() error {
	p.log.Info("erasing flash and lock bits")
	_, err := p.sequence(
		[2]byte{cmdChipErase, siiLoadCommand},
		[2]byte{0x00, siiEraseTrigger},
		[2]byte{0x00, siiOutputLow},
	)
	if err != nil {
		return fmt.Errorf("chip erase: %w", err)
	}
	if !p.waitReady() {
		p.log.Warn("chip erase completion not signalled", "timeout", p.cfg.ReadyTimeout)
	}
	return nil
}
