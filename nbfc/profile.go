// Package nbfc models fan control profiles in the NoteBook FanControl format.
//
// A Profile describes one notebook: the EC registers driving its fans, how
// requested percentages map to raw register values, and the extra register
// writes the EC needs on initialization or alongside every speed update.
// Profiles are decoded from FanControlConfigV2 XML and validated before they
// reach the register writer.
package nbfc

import (
	"fmt"
	"time"
)

// WriteOccasion tells when a register write configuration is applied.
type WriteOccasion int

const (
	// OnWriteFanSpeed writes accompany every fan speed update.
	OnWriteFanSpeed WriteOccasion = iota + 1
	// OnInitialization writes are issued once when the profile is applied.
	OnInitialization
)

func (o WriteOccasion) String() string {
	switch o {
	case OnWriteFanSpeed:
		return "OnWriteFanSpeed"
	case OnInitialization:
		return "OnInitialization"
	default:
		return fmt.Sprintf("WriteOccasion(%d)", int(o))
	}
}

func ParseWriteOccasion(s string) (WriteOccasion, error) {
	switch s {
	case "OnWriteFanSpeed":
		return OnWriteFanSpeed, nil
	case "OnInitialization":
		return OnInitialization, nil
	}
	return 0, fmt.Errorf("unknown write occasion %q", s)
}

// OverrideTarget tells which direction a percentage override applies to.
type OverrideTarget int

const (
	OverrideRead OverrideTarget = iota + 1
	OverrideWrite
	OverrideReadWrite
)

func (o OverrideTarget) String() string {
	switch o {
	case OverrideRead:
		return "Read"
	case OverrideWrite:
		return "Write"
	case OverrideReadWrite:
		return "ReadWrite"
	default:
		return fmt.Sprintf("OverrideTarget(%d)", int(o))
	}
}

func ParseOverrideTarget(s string) (OverrideTarget, error) {
	switch s {
	case "Read":
		return OverrideRead, nil
	case "Write":
		return OverrideWrite, nil
	case "ReadWrite":
		return OverrideReadWrite, nil
	}
	return 0, fmt.Errorf("unknown override target operation %q", s)
}

// RegisterWriteConfiguration is a raw value written to an EC register,
// either once on initialization or with every fan speed update.
type RegisterWriteConfiguration struct {
	Register      uint8
	Value         uint16
	Occasion      WriteOccasion
	ResetRequired bool
	ResetValue    *uint16
	Description   string
}

// FanSpeedPercentageOverride maps one exact percentage to a raw value,
// bypassing linear interpolation.
type FanSpeedPercentageOverride struct {
	Percentage float64
	Value      uint16
	Target     OverrideTarget
}

// Writes reports whether the override applies when writing a speed.
func (o FanSpeedPercentageOverride) Writes() bool {
	return o.Target == OverrideWrite || o.Target == OverrideReadWrite
}

// TemperatureThreshold is one step of the fan curve used by the control loop.
type TemperatureThreshold struct {
	Up       int
	Down     int
	FanSpeed float64
}

type FanConfiguration struct {
	DisplayName   string
	ReadRegister  uint8
	WriteRegister uint8
	MinSpeedValue uint16
	MaxSpeedValue uint16
	ResetRequired bool
	ResetValue    *uint16
	Overrides     []FanSpeedPercentageOverride
	Thresholds    []TemperatureThreshold
}

type Profile struct {
	NotebookModel       string
	Author              string
	PollInterval        time.Duration
	ReadWriteWords      bool
	CriticalTemperature int
	Fans                []FanConfiguration
	RegisterWrites      []RegisterWriteConfiguration
}

// Value returns a pointer to v, for optional reset values.
func Value(v uint16) *uint16 {
	return &v
}
