package decoder

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownMode is returned for an unrecognized policy mode name
var ErrUnknownMode = errors.New("unknown switch policy mode")

// Mode is the closed set of switch decision policies
type Mode int

const (
	ModeSign Mode = iota + 1
	ModeBoost
	ModeContinuous
)

func (m Mode) String() string {
	switch m {
	case ModeSign:
		return "sign"
	case ModeBoost:
		return "boost"
	case ModeContinuous:
		return "continuous"
	default:
		return "unknown"
	}
}

// Binary reports whether the mode only ever produces 0 or 1
func (m Mode) Binary() bool {
	return m == ModeSign || m == ModeBoost
}

// ParseMode maps a configuration string onto a Mode
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sign":
		return ModeSign, nil
	case "boost":
		return ModeBoost, nil
	case "continuous", "log", "logratio":
		return ModeContinuous, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// SwitchValue is the output of one decision
type SwitchValue struct {
	Mode      Mode    `json:"mode"`
	Level     float64 `json:"level"`     // 0/1 for binary modes, log10 ratio otherwise
	Posterior float64 `json:"posterior"` // raw inputs, kept for diagnostics
	Frontal   float64 `json:"frontal"`
}

// On reports whether a binary value selected the "calm" state
func (v SwitchValue) On() bool {
	return v.Level > 0
}

// Policy maps posterior and frontal power onto a switch value
type Policy interface {
	Mode() Mode
	Decide(posterior, frontal float64) SwitchValue
}

// PolicyConfig holds mode specific parameters
type PolicyConfig struct {
	Mode        Mode    `json:"mode"`
	BoostFactor float64 `json:"boost_factor"`
}

// DefaultBoostFactor is used when boost mode has no factor configured
const DefaultBoostFactor = 2.0

// NewPolicy selects the handler for cfg.Mode once, at configuration time
func NewPolicy(cfg PolicyConfig) (Policy, error) {
	switch cfg.Mode {
	case ModeSign:
		return signPolicy{}, nil
	case ModeBoost:
		factor := cfg.BoostFactor
		if factor == 0 {
			factor = DefaultBoostFactor
		}
		if !(factor > 1) || math.IsInf(factor, 0) {
			return nil, fmt.Errorf("boost factor must be a finite number above 1, got %g", factor)
		}
		return boostPolicy{factor: factor}, nil
	case ModeContinuous:
		return continuousPolicy{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(cfg.Mode))
	}
}

// signPolicy: 1 when posterior power exceeds frontal power. Ties go to 0.
type signPolicy struct{}

func (signPolicy) Mode() Mode { return ModeSign }

func (signPolicy) Decide(posterior, frontal float64) SwitchValue {
	v := SwitchValue{Mode: ModeSign, Posterior: posterior, Frontal: frontal}
	if posterior > frontal {
		v.Level = 1
	}
	return v
}

// boostPolicy stays at 1 unless frontal power exceeds factor times posterior power
type boostPolicy struct {
	factor float64
}

func (boostPolicy) Mode() Mode { return ModeBoost }

// Factor returns the configured boost factor
func (p boostPolicy) Factor() float64 { return p.factor }

func (p boostPolicy) Decide(posterior, frontal float64) SwitchValue {
	v := SwitchValue{Mode: ModeBoost, Level: 1, Posterior: posterior, Frontal: frontal}
	if frontal > p.factor*posterior {
		v.Level = 0
	}
	return v
}

// denominatorFloor is the frontal power below which the ratio is treated as a division by zero
const denominatorFloor = 1e-300

// continuousPolicy reports log10(posterior/frontal)
type continuousPolicy struct{}

func (continuousPolicy) Mode() Mode { return ModeContinuous }

func (continuousPolicy) Decide(posterior, frontal float64) SwitchValue {
	return SwitchValue{
		Mode:      ModeContinuous,
		Level:     LogRatio(posterior, frontal),
		Posterior: posterior,
		Frontal:   frontal,
	}
}

// LogRatio computes log10(posterior/frontal). A zero frontal power yields
// +Inf; a zero posterior power yields -Inf. When both are zero the result is
// 0 rather than +Inf: a window with no alpha anywhere leaves the display at
// the midpoint instead of saturating it.
func LogRatio(posterior, frontal float64) float64 {
	if math.Abs(frontal) < denominatorFloor {
		if math.Abs(posterior) < denominatorFloor {
			return 0
		}
		return math.Inf(1)
	}
	return math.Log10(posterior / frontal)
}
