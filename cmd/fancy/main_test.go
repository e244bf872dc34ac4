package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/musikid/fancy/cmd/fancy/console"
	"github.com/musikid/fancy/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profiles = "../../nbfc/testdata"

func fancyArgs(cfgPath string, args ...string) []string {
	return append([]string{"fancy", "--dry-run", "--config", cfgPath, "--config-dir", profiles}, args...)
}

func TestRun_OneShotCommands(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"list", []string{"profile", "list"}, 0},
		{"check", []string{"profile", "check", profiles + "/HP Pavilion dv6.xml"}, 0},
		{"check without file", []string{"profile", "check"}, console.ExitUsage},
		{"apply", []string{"apply", "--profile", "Acer Aspire 5750G"}, 0},
		{"apply unknown", []string{"apply", "--profile", "Unknown"}, console.ExitBadProfile},
		{"set", []string{"set", "--profile", "HP Pavilion dv6", "--fan", "1", "--percent", "12.5"}, 0},
		{"set bad fan", []string{"set", "--profile", "HP Pavilion dv6", "--fan", "2", "--percent", "50"}, console.ExitUsage},
		{"reset", []string{"reset", "--profile", "Acer Aspire 5750G", "--all", "--yes"}, 0},
		{"dump", []string{"dump"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, run(fancyArgs(cfgPath, tt.args...)))
		})
	}
}

func TestRun_BadMode(t *testing.T) {
	args := []string{"fancy", "--mode", "inb", "resolve"}
	assert.Equal(t, console.ExitUsage, run(args))
}

func TestRun_ConfigCommands(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.Equal(t, 0, run(fancyArgs(cfgPath, "config", "select", "Acer Aspire 5750G")))
	require.Equal(t, 0, run(fancyArgs(cfgPath, "config", "target", "--percent", "40")))
	require.Equal(t, 0, run(fancyArgs(cfgPath, "config", "show")))

	cfg, err := config.NewStore(config.WithPath(cfgPath)).Load()
	require.NoError(t, err)
	assert.Equal(t, &config.ServiceConfig{
		SelectedProfile: "Acer Aspire 5750G",
		TargetFanSpeeds: []float64{40},
	}, cfg)

	require.Equal(t, 0, run(fancyArgs(cfgPath, "config", "auto", "on")))
	cfg, err = config.NewStore(config.WithPath(cfgPath)).Load()
	require.NoError(t, err)
	assert.True(t, cfg.Auto)
	assert.Equal(t, console.ExitUsage, run(fancyArgs(cfgPath, "config", "auto", "maybe")))
}

func TestRun_ConfigSelectReplacesStaleProfile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	stale := "ec_access_mode: either\nselected_fan_config: Gone Notebook\nauto: true\ntarget_fans_speeds: []\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(stale), 0o644))

	require.Equal(t, 0, run(fancyArgs(cfgPath, "config", "select", "Acer Aspire 5750G")))
	cfg, err := config.NewStore(config.WithPath(cfgPath)).Load()
	require.NoError(t, err)
	assert.Equal(t, "Acer Aspire 5750G", cfg.SelectedProfile)
	assert.True(t, cfg.Auto)
}
