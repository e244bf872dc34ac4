package nbfc

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Acer(t *testing.T) {
	p, err := Load("testdata", "Acer Aspire 5750G")
	require.NoError(t, err)

	assert.Equal(t, "Acer Aspire 5750G", p.NotebookModel)
	assert.Equal(t, 3*time.Second, p.PollInterval)
	assert.False(t, p.ReadWriteWords)
	assert.Equal(t, 90, p.CriticalTemperature)

	require.Len(t, p.Fans, 1)
	fan := p.Fans[0]
	assert.Equal(t, uint8(85), fan.WriteRegister)
	assert.Equal(t, uint16(0), fan.MinSpeedValue)
	assert.Equal(t, uint16(255), fan.MaxSpeedValue)
	assert.True(t, fan.ResetRequired)
	assert.Equal(t, Value(255), fan.ResetValue)
	assert.Nil(t, fan.Overrides)
	assert.Len(t, fan.Thresholds, 3)

	require.Len(t, p.RegisterWrites, 3)
	assert.Equal(t, RegisterWriteConfiguration{
		Register:      147,
		Value:         20,
		Occasion:      OnInitialization,
		ResetRequired: true,
		ResetValue:    Value(4),
		Description:   "Enable manual fan control",
	}, p.RegisterWrites[0])
	// missing occasion
	assert.Equal(t, OnWriteFanSpeed, p.RegisterWrites[2].Occasion)
	assert.Nil(t, p.RegisterWrites[2].ResetValue)
}

func TestLoad_HPOverrides(t *testing.T) {
	p, err := Load("testdata", "HP Pavilion dv6")
	require.NoError(t, err)
	assert.True(t, p.ReadWriteWords)
	require.Len(t, p.Fans, 2)
	assert.Equal(t, []FanSpeedPercentageOverride{
		{Percentage: 0, Value: 0xFFFF, Target: OverrideReadWrite},
		{Percentage: 100, Value: 4500, Target: OverrideWrite},
		{Percentage: 50, Value: 1, Target: OverrideRead},
	}, p.Fans[0].Overrides)
	// missing target operation
	assert.Equal(t, OverrideReadWrite, p.Fans[1].Overrides[0].Target)
	assert.False(t, p.Fans[1].ResetRequired)
	assert.Equal(t, Value(0), p.Fans[1].ResetValue)
}

func TestLoad_NoRegisterWrites(t *testing.T) {
	p, err := Load("testdata", "Lenovo IdeaPad Y580")
	require.NoError(t, err)
	assert.Nil(t, p.RegisterWrites)
	assert.Nil(t, p.Fans[0].ResetValue)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		given    string
		expected string
	}{
		{
			name:     "not xml",
			given:    "{}",
			expected: "could not decode fan control config",
		},
		{
			name:     "register out of range",
			given:    `<FanControlConfigV2><FanConfigurations><FanConfiguration><WriteRegister>256</WriteRegister></FanConfiguration></FanConfigurations></FanControlConfigV2>`,
			expected: "fan 0: WriteRegister 256 outside of the EC register range",
		},
		{
			name:     "value too large",
			given:    `<FanControlConfigV2><FanConfigurations><FanConfiguration><MaxSpeedValue>65536</MaxSpeedValue></FanConfiguration></FanConfigurations></FanControlConfigV2>`,
			expected: "fan 0: MaxSpeedValue 65536 does not fit in a word",
		},
		{
			name:     "unknown occasion",
			given:    `<FanControlConfigV2><RegisterWriteConfigurations><RegisterWriteConfiguration><WriteOccasion>OnBoot</WriteOccasion></RegisterWriteConfiguration></RegisterWriteConfigurations></FanControlConfigV2>`,
			expected: `register write configuration 0: unknown write occasion "OnBoot"`,
		},
		{
			name:     "unknown target",
			given:    `<FanControlConfigV2><FanConfigurations><FanConfiguration><FanSpeedPercentageOverrides><FanSpeedPercentageOverride><TargetOperation>Both</TargetOperation></FanSpeedPercentageOverride></FanSpeedPercentageOverrides></FanConfiguration></FanConfigurations></FanControlConfigV2>`,
			expected: `fan 0: override 0: unknown override target operation "Both"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.given))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestList(t *testing.T) {
	names, err := List("testdata")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acer Aspire 5750G", "HP Pavilion dv6", "Lenovo IdeaPad Y580"}, names)

	_, err = List("missing")
	assert.Error(t, err)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load("testdata", "Dell XPS")
	assert.ErrorContains(t, err, "could not open fan control config")
}
