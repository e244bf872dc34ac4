package nbfc

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidProfile = errors.New("invalid fan control profile")

// Validate checks the consistency the register writer relies on. All
// violations are reported, each wrapping ErrInvalidProfile.
func Validate(p *Profile) error {
	var errs []error
	invalid := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidProfile, fmt.Sprintf(format, args...)))
	}
	if len(p.Fans) == 0 {
		invalid("no fan configuration")
	}
	if p.PollInterval < 0 {
		invalid("negative poll interval %s", p.PollInterval)
	}
	for i, fan := range p.Fans {
		if fan.ResetRequired && fan.ResetValue == nil {
			invalid("fan %d requires a reset but has no reset value", i)
		}
		// a word write touches the register and the one after it
		if p.ReadWriteWords && fan.WriteRegister == math.MaxUint8 {
			invalid("fan %d write register %#x leaves no room for a word", i, fan.WriteRegister)
		}
		seen := map[float64]bool{}
		for j, o := range fan.Overrides {
			if math.IsNaN(o.Percentage) || o.Percentage < 0 || o.Percentage > 100 {
				invalid("fan %d override %d: percentage %v outside of [0, 100]", i, j, o.Percentage)
			}
			if o.Target < OverrideRead || o.Target > OverrideReadWrite {
				invalid("fan %d override %d: unknown target %s", i, j, o.Target)
			}
			if !o.Writes() {
				continue
			}
			if seen[o.Percentage] {
				invalid("fan %d: duplicate write override for %v%%", i, o.Percentage)
			}
			seen[o.Percentage] = true
		}
	}
	for i, rw := range p.RegisterWrites {
		if rw.Occasion != OnWriteFanSpeed && rw.Occasion != OnInitialization {
			invalid("register write configuration %d: unknown occasion %s", i, rw.Occasion)
		}
		if rw.ResetRequired && rw.ResetValue == nil {
			invalid("register write configuration %d requires a reset but has no reset value", i)
		}
	}
	return errors.Join(errs...)
}
