package hvsp

import (
	"errors"
	"fmt"
	"strings"
)

// Action is what a session does once the target is identified.
type Action int

const (
	// ActionWriteDefaults restores the factory fuses, erasing first when the
	// lock bits forbid the write. It is the zero value.
	ActionWriteDefaults Action = iota
	// ActionReadOnly only reads signature, fuses and lock bits.
	ActionReadOnly
	// ActionErase erases flash and lock bits and leaves the fuses alone.
	ActionErase
)

func (a Action) String() string {
	switch a {
	case ActionWriteDefaults:
		return "write-defaults"
	case ActionReadOnly:
		return "read-only"
	case ActionErase:
		return "erase"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ParseAction accepts the action names and their short forms. An empty
// string selects ActionWriteDefaults.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "write", "write-defaults", "defaults", "f":
		return ActionWriteDefaults, nil
	case "read", "read-only", "r":
		return ActionReadOnly, nil
	case "erase", "e":
		return ActionErase, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// State is a step of the session state machine.
//
//	Idle -> PoweredUp -> Identified -> Unknown ----------------> PoweredDown
//	                                -> Acting -> Verified ----->
type State int

const (
	StateIdle State = iota
	StatePoweredUp
	StateIdentified
	StateUnknown
	StateActing
	StateVerified
	StatePoweredDown
)

var stateNames = [...]string{
	StateIdle:        "idle",
	StatePoweredUp:   "powered-up",
	StateIdentified:  "identified",
	StateUnknown:     "unknown",
	StateActing:      "acting",
	StateVerified:    "verified",
	StatePoweredDown: "powered-down",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the result of one session. Nothing in it survives into the
// next session.
type Outcome struct {
	Action    Action    `json:"action"`
	Signature Signature `json:"signature"`
	// Device is nil when the signature is not a supported part.
	Device *Device `json:"device,omitempty"`

	// Fuses and Lock are the state found before acting. Lock is only read
	// for supported parts.
	Fuses  Fuses    `json:"fuses"`
	Lock   LockBits `json:"lock"`
	Locked bool     `json:"locked"`

	Erased bool `json:"erased"`
	// Escalated is set when a write was requested on a locked part and the
	// session erased it first.
	Escalated bool        `json:"escalated"`
	Written   []FuseValue `json:"written,omitempty"`

	// Verify is the read-back after acting; VerifyLock is set only when
	// the session erased.
	Verify     Fuses     `json:"verify"`
	VerifyLock *LockBits `json:"verify_lock,omitempty"`

	// Timeouts counts SDO ready waits that expired. A non-zero count makes
	// every value above suspect.
	Timeouts int   `json:"timeouts"`
	State    State `json:"state"`
}

// DefaultsApplied reports whether the read-back shows the factory fuses.
func (o *Outcome) DefaultsApplied() bool {
	return o.Device != nil && o.Verify.Matches(o.Device)
}

func (p *Programmer) setState(o *Outcome, s State) {
	o.State = s
	p.log.Debug("session state", "state", s.String())
	if p.cfg.StateHook != nil {
		p.cfg.StateHook(s)
	}
}

// Run performs one session: enter programming mode, identify the part, read
// its fuses and lock bits, act, read back, and exit programming mode.
//
// Unknown parts, locked fuses and expired ready waits are reported in the
// Outcome, not as errors. An error means a pin could not be driven; the
// Outcome then holds what was gathered so far. Programming mode is exited on
// every path.
func (p *Programmer) Run(action Action) (out *Outcome, err error) {
	out = &Outcome{Action: action}
	p.timeouts = 0
	p.setState(out, StateIdle)

	defer func() {
		if exitErr := p.ExitProgrammingMode(); exitErr != nil {
			err = errors.Join(err, fmt.Errorf("power down: %w", exitErr))
		}
		out.Timeouts = p.timeouts
		p.setState(out, StatePoweredDown)
	}()

	if err = p.EnterProgrammingMode(); err != nil {
		return out, err
	}
	p.setState(out, StatePoweredUp)

	if out.Signature, err = p.ReadSignature(); err != nil {
		return out, err
	}
	dev, known := Classify(out.Signature)
	p.setState(out, StateIdentified)

	// The fuses are probed before acting on the classification so that an
	// unknown part still shows something to diagnose wiring with.
	if out.Fuses, err = p.ReadFuses(!known || dev.HasEFuse); err != nil {
		return out, err
	}
	if !known {
		p.log.Warn("no supported signature detected", "signature", out.Signature)
		p.setState(out, StateUnknown)
		return out, nil
	}
	out.Device = dev
	p.log.Info("device identified", "device", dev.Name, "signature", out.Signature)

	p.setState(out, StateActing)
	if err = p.act(out); err != nil {
		return out, err
	}

	p.setState(out, StateVerified)
	if out.Verify, err = p.ReadFuses(dev.HasEFuse); err != nil {
		return out, err
	}
	if out.Erased {
		lb, lerr := p.ReadLockBits()
		if lerr != nil {
			return out, lerr
		}
		out.VerifyLock = &lb
	}
	return out, nil
}

func (p *Programmer) act(out *Outcome) error {
	lb, err := p.ReadLockBits()
	if err != nil {
		return err
	}
	out.Lock = lb
	out.Locked = lb.Locked()

	if out.Action == ActionReadOnly {
		return nil
	}

	if out.Action == ActionErase || out.Locked {
		if out.Action == ActionWriteDefaults {
			out.Escalated = true
			p.log.Info("fuses are locked, erasing before write", "lock", lb.String())
		}
		if err := p.Erase(); err != nil {
			return err
		}
		out.Erased = true
		if out.Action == ActionErase {
			return nil
		}
	}

	for _, fv := range out.Device.Defaults() {
		if err := p.WriteFuse(fv.Fuse, fv.Value); err != nil {
			return err
		}
		out.Written = append(out.Written, fv)
	}
	return nil
}
