// Package ecwrite translates fan control profiles into EC register writes.
//
// A Writer is configured from a profile with RefreshConfig, which also runs
// the initialization sequence. Afterwards WriteSpeedPercent turns a 0-100
// percentage into the raw value of a fan register and Reset hands the
// registers back to the EC firmware. Every byte reaches the device through
// writeValue, which truncates words to their low byte when the profile
// writes bytes.
//
// A Writer is not safe for concurrent use; the device it writes to is.
package ecwrite

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/musikid/fancy"
	"github.com/musikid/fancy/nbfc"
)

// percentEpsilon is the gap between 1.0 and the next float64.
const percentEpsilon = 0x1p-52

var ErrUnknownOccasion = errors.New("unknown register write occasion")
var ErrInvalidSpeed = errors.New("invalid fan speed percentage")
var ErrNotConfigured = errors.New("writer has no configuration")

type fanWriteConfig struct {
	writeRegister uint8
	resetRequired bool
	resetValue    *uint16
	minSpeed      uint16
	maxSpeed      uint16
	overrides     []nbfc.FanSpeedPercentageOverride
}

type writeConfig struct {
	writeWords  bool
	initRegs    []nbfc.RegisterWriteConfiguration
	onWriteRegs []nbfc.RegisterWriteConfiguration
	fans        []fanWriteConfig
}

type Writer struct {
	dev        fancy.RegisterWriter
	cfg        writeConfig
	configured bool
}

// New returns an unconfigured writer for dev.
func New(dev fancy.RegisterWriter) *Writer {
	return &Writer{dev: dev}
}

// RefreshProfile is RefreshConfig for a whole profile.
func (w *Writer) RefreshProfile(ctx context.Context, p *nbfc.Profile) error {
	return w.RefreshConfig(ctx, p.ReadWriteWords, p.RegisterWrites, p.Fans)
}

// RefreshConfig replaces the write configuration and runs InitWrite with it.
// The previous configuration is kept when the new one cannot be built or
// initialized.
func (w *Writer) RefreshConfig(ctx context.Context, writeWords bool, regs []nbfc.RegisterWriteConfiguration, fans []nbfc.FanConfiguration) error {
	cfg := writeConfig{writeWords: writeWords}
	for i, reg := range regs {
		switch reg.Occasion {
		case nbfc.OnInitialization:
			cfg.initRegs = append(cfg.initRegs, reg)
		case nbfc.OnWriteFanSpeed:
			cfg.onWriteRegs = append(cfg.onWriteRegs, reg)
		default:
			return fmt.Errorf("register write configuration %d: %w: %s", i, ErrUnknownOccasion, reg.Occasion)
		}
	}
	cfg.fans = make([]fanWriteConfig, 0, len(fans))
	for _, fan := range fans {
		fc := fanWriteConfig{
			writeRegister: fan.WriteRegister,
			resetRequired: fan.ResetRequired,
			resetValue:    copyValue(fan.ResetValue),
			minSpeed:      fan.MinSpeedValue,
			maxSpeed:      fan.MaxSpeedValue,
		}
		if fan.Overrides != nil {
			fc.overrides = []nbfc.FanSpeedPercentageOverride{}
			for _, o := range fan.Overrides {
				if o.Writes() {
					fc.overrides = append(fc.overrides, o)
				}
			}
		}
		cfg.fans = append(cfg.fans, fc)
	}
	err := w.initWrite(ctx, &cfg)
	if err != nil {
		return fmt.Errorf("could not initialize ec: %w", err)
	}
	w.cfg = cfg
	w.configured = true
	return nil
}

// InitWrite writes the initialization registers, then the reset value of
// every fan providing one. Initialization registers are always written as
// bytes.
func (w *Writer) InitWrite(ctx context.Context) error {
	if !w.configured {
		return ErrNotConfigured
	}
	return w.initWrite(ctx, &w.cfg)
}

func (w *Writer) initWrite(ctx context.Context, cfg *writeConfig) error {
	for _, reg := range cfg.initRegs {
		if err := w.writeValue(ctx, false, reg.Register, reg.Value); err != nil {
			return err
		}
	}
	for _, fan := range cfg.fans {
		if fan.resetValue == nil {
			continue
		}
		if err := w.writeValue(ctx, cfg.writeWords, fan.writeRegister, *fan.resetValue); err != nil {
			return err
		}
	}
	return nil
}

// Reset writes reset values to the initialization registers, the on-write
// registers and the fan registers, in that order. An entry is reset when all
// is set or it requires a reset; entries without a reset value are skipped.
func (w *Writer) Reset(ctx context.Context, all bool) error {
	for _, regs := range [][]nbfc.RegisterWriteConfiguration{w.cfg.initRegs, w.cfg.onWriteRegs} {
		for _, reg := range regs {
			if !(all || reg.ResetRequired) || reg.ResetValue == nil {
				continue
			}
			if err := w.writeValue(ctx, false, reg.Register, *reg.ResetValue); err != nil {
				return err
			}
		}
	}
	for _, fan := range w.cfg.fans {
		if !(all || fan.resetRequired) || fan.resetValue == nil {
			continue
		}
		if err := w.writeValue(ctx, w.cfg.writeWords, fan.writeRegister, *fan.resetValue); err != nil {
			return err
		}
	}
	return nil
}

// WriteSpeedPercent sets the fan at index to percent. The on-write
// registers are written first. It panics if index is not a configured fan.
func (w *Writer) WriteSpeedPercent(ctx context.Context, index int, percent float64) error {
	value, err := w.RawValue(index, percent)
	if err != nil {
		return err
	}
	for _, reg := range w.cfg.onWriteRegs {
		if err := w.writeValue(ctx, false, reg.Register, reg.Value); err != nil {
			return err
		}
	}
	return w.writeValue(ctx, w.cfg.writeWords, w.cfg.fans[index].writeRegister, value)
}

// RawValue returns the register value WriteSpeedPercent writes for percent:
// the value of a write override matching percent, or the linear
// interpolation between the fan's minimum and maximum speed values.
// It panics if index is not a configured fan.
func (w *Writer) RawValue(index int, percent float64) (uint16, error) {
	if index < 0 || index >= len(w.cfg.fans) {
		panic(fmt.Sprintf("ecwrite: fan index %d out of range [0, %d)", index, len(w.cfg.fans)))
	}
	if math.IsNaN(percent) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSpeed, percent)
	}
	fan := w.cfg.fans[index]
	for _, o := range fan.overrides {
		if math.Abs(o.Percentage-percent) < percentEpsilon {
			return o.Value, nil
		}
	}
	percent = math.Max(0, math.Min(100, percent))
	lo := float64(fan.minSpeed)
	hi := float64(fan.maxSpeed)
	return uint16(math.Round(lo + (hi-lo)*percent/100.0)), nil
}

func (w *Writer) FanCount() int {
	return len(w.cfg.fans)
}

func (w *Writer) WriteWords() bool {
	return w.cfg.writeWords
}

// writeValue writes value little-endian at offset, or only its low byte
// unless word is set.
func (w *Writer) writeValue(ctx context.Context, word bool, offset uint8, value uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], value)
	out := buf[:1]
	if word {
		out = buf[:]
	}
	slog.DebugContext(ctx, "writing to ec", "offset", fmt.Sprintf("%#04x", offset), "value", hex.EncodeToString(out))
	return w.dev.WriteRegister(ctx, offset, out)
}

func copyValue(v *uint16) *uint16 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
