package nbfc

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"time"
)

type xmlProfile struct {
	XMLName             xml.Name           `xml:"FanControlConfigV2"`
	NotebookModel       string             `xml:"NotebookModel"`
	Author              string             `xml:"Author"`
	EcPollInterval      int                `xml:"EcPollInterval"`
	ReadWriteWords      bool               `xml:"ReadWriteWords"`
	CriticalTemperature int                `xml:"CriticalTemperature"`
	FanConfigurations   []xmlFan           `xml:"FanConfigurations>FanConfiguration"`
	RegisterWrites      []xmlRegisterWrite `xml:"RegisterWriteConfigurations>RegisterWriteConfiguration"`
}

type xmlFan struct {
	ReadRegister          int            `xml:"ReadRegister"`
	WriteRegister         int            `xml:"WriteRegister"`
	MinSpeedValue         int            `xml:"MinSpeedValue"`
	MaxSpeedValue         int            `xml:"MaxSpeedValue"`
	ResetRequired         bool           `xml:"ResetRequired"`
	FanSpeedResetValue    *int           `xml:"FanSpeedResetValue"`
	FanDisplayName        string         `xml:"FanDisplayName"`
	TemperatureThresholds []xmlThreshold `xml:"TemperatureThresholds>TemperatureThreshold"`
	Overrides             []xmlOverride  `xml:"FanSpeedPercentageOverrides>FanSpeedPercentageOverride"`
}

type xmlThreshold struct {
	UpThreshold   int     `xml:"UpThreshold"`
	DownThreshold int     `xml:"DownThreshold"`
	FanSpeed      float64 `xml:"FanSpeed"`
}

type xmlOverride struct {
	FanSpeedPercentage float64 `xml:"FanSpeedPercentage"`
	FanSpeedValue      int     `xml:"FanSpeedValue"`
	TargetOperation    string  `xml:"TargetOperation"`
}

type xmlRegisterWrite struct {
	WriteOccasion string `xml:"WriteOccasion"`
	Register      int    `xml:"Register"`
	Value         int    `xml:"Value"`
	ResetRequired bool   `xml:"ResetRequired"`
	ResetValue    *int   `xml:"ResetValue"`
	Description   string `xml:"Description"`
}

// Decode parses a FanControlConfigV2 document. Missing write occasions
// default to OnWriteFanSpeed and missing override targets to ReadWrite.
// Decode only checks that numbers fit their registers; use Validate for
// the semantic checks.
func Decode(r io.Reader) (*Profile, error) {
	var doc xmlProfile
	err := xml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("could not decode fan control config: %w", err)
	}
	return doc.profile()
}

func (doc *xmlProfile) profile() (*Profile, error) {
	p := &Profile{
		NotebookModel:       doc.NotebookModel,
		Author:              doc.Author,
		PollInterval:        time.Duration(doc.EcPollInterval) * time.Millisecond,
		ReadWriteWords:      doc.ReadWriteWords,
		CriticalTemperature: doc.CriticalTemperature,
		Fans:                make([]FanConfiguration, 0, len(doc.FanConfigurations)),
	}
	for i, f := range doc.FanConfigurations {
		fan, err := f.fan()
		if err != nil {
			return nil, fmt.Errorf("fan %d: %w", i, err)
		}
		p.Fans = append(p.Fans, fan)
	}
	if len(doc.RegisterWrites) > 0 {
		p.RegisterWrites = make([]RegisterWriteConfiguration, 0, len(doc.RegisterWrites))
	}
	for i, rw := range doc.RegisterWrites {
		conf, err := rw.registerWrite()
		if err != nil {
			return nil, fmt.Errorf("register write configuration %d: %w", i, err)
		}
		p.RegisterWrites = append(p.RegisterWrites, conf)
	}
	return p, nil
}

func (f xmlFan) fan() (FanConfiguration, error) {
	var fan FanConfiguration
	var err error
	if fan.ReadRegister, err = toRegister("ReadRegister", f.ReadRegister); err != nil {
		return fan, err
	}
	if fan.WriteRegister, err = toRegister("WriteRegister", f.WriteRegister); err != nil {
		return fan, err
	}
	if fan.MinSpeedValue, err = toValue("MinSpeedValue", f.MinSpeedValue); err != nil {
		return fan, err
	}
	if fan.MaxSpeedValue, err = toValue("MaxSpeedValue", f.MaxSpeedValue); err != nil {
		return fan, err
	}
	if fan.ResetValue, err = toOptionalValue("FanSpeedResetValue", f.FanSpeedResetValue); err != nil {
		return fan, err
	}
	fan.ResetRequired = f.ResetRequired
	fan.DisplayName = f.FanDisplayName
	for _, t := range f.TemperatureThresholds {
		fan.Thresholds = append(fan.Thresholds, TemperatureThreshold{Up: t.UpThreshold, Down: t.DownThreshold, FanSpeed: t.FanSpeed})
	}
	for i, o := range f.Overrides {
		override := FanSpeedPercentageOverride{Percentage: o.FanSpeedPercentage, Target: OverrideReadWrite}
		if override.Value, err = toValue("FanSpeedValue", o.FanSpeedValue); err != nil {
			return fan, fmt.Errorf("override %d: %w", i, err)
		}
		if o.TargetOperation != "" {
			if override.Target, err = ParseOverrideTarget(o.TargetOperation); err != nil {
				return fan, fmt.Errorf("override %d: %w", i, err)
			}
		}
		fan.Overrides = append(fan.Overrides, override)
	}
	return fan, nil
}

func (rw xmlRegisterWrite) registerWrite() (RegisterWriteConfiguration, error) {
	conf := RegisterWriteConfiguration{
		Occasion:      OnWriteFanSpeed,
		ResetRequired: rw.ResetRequired,
		Description:   rw.Description,
	}
	var err error
	if conf.Register, err = toRegister("Register", rw.Register); err != nil {
		return conf, err
	}
	if conf.Value, err = toValue("Value", rw.Value); err != nil {
		return conf, err
	}
	if conf.ResetValue, err = toOptionalValue("ResetValue", rw.ResetValue); err != nil {
		return conf, err
	}
	if rw.WriteOccasion != "" {
		if conf.Occasion, err = ParseWriteOccasion(rw.WriteOccasion); err != nil {
			return conf, err
		}
	}
	return conf, nil
}

func toRegister(field string, v int) (uint8, error) {
	if v < 0 || v > math.MaxUint8 {
		return 0, fmt.Errorf("%s %d outside of the EC register range", field, v)
	}
	return uint8(v), nil
}

func toValue(field string, v int) (uint16, error) {
	if v < 0 || v > math.MaxUint16 {
		return 0, fmt.Errorf("%s %d does not fit in a word", field, v)
	}
	return uint16(v), nil
}

func toOptionalValue(field string, v *int) (*uint16, error) {
	if v == nil {
		return nil, nil
	}
	value, err := toValue(field, *v)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
