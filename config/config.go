// Package config persists the daemon configuration.
//
// The configuration is stored as YAML. When no configuration exists yet, the
// settings of an NBFC installation are migrated.
package config

import (
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/musikid/fancy/ecdev"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRoot       = "/etc/fancy"
	DefaultPath       = DefaultRoot + "/config.yaml"
	DefaultLegacyPath = "/etc/NbfcService/NbfcServiceSettings.xml"
	// DefaultProfilesDir holds the fan control profiles, one XML file each.
	DefaultProfilesDir = DefaultRoot + "/configs"
)

var ErrNoConfig = errors.New("no configuration found")

type ServiceConfig struct {
	AccessMode      ecdev.AccessMode `yaml:"ec_access_mode"`
	SelectedProfile string           `yaml:"selected_fan_config"`
	// Auto leaves fan speeds to the control loop instead of TargetFanSpeeds.
	Auto            bool      `yaml:"auto"`
	TargetFanSpeeds []float64 `yaml:"target_fans_speeds"`
}

// nbfcServiceSettings is the subset of NbfcServiceSettings.xml that is migrated.
type nbfcServiceSettings struct {
	XMLName          xml.Name  `xml:"NbfcServiceSettings"`
	SelectedConfigID string    `xml:"SelectedConfigId"`
	TargetFanSpeeds  []float64 `xml:"TargetFanSpeeds>float"`
}

func (s nbfcServiceSettings) serviceConfig() *ServiceConfig {
	return &ServiceConfig{
		AccessMode:      ecdev.Either,
		SelectedProfile: s.SelectedConfigID,
		Auto:            true,
		TargetFanSpeeds: s.TargetFanSpeeds,
	}
}

type Store struct {
	path       string
	legacyPath string
}

type StoreOption func(*Store)

func WithPath(path string) StoreOption {
	return func(s *Store) {
		s.path = path
	}
}

func WithLegacyPath(path string) StoreOption {
	return func(s *Store) {
		s.legacyPath = path
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{path: DefaultPath, legacyPath: DefaultLegacyPath}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the configuration, falling back to the NBFC settings. It
// returns ErrNoConfig when neither file exists.
func (s *Store) Load() (*ServiceConfig, error) {
	data, err := os.ReadFile(s.path)
	if err == nil {
		var cfg ServiceConfig
		err = yaml.Unmarshal(data, &cfg)
		if err != nil {
			return nil, fmt.Errorf("could not parse %s: %w", s.path, err)
		}
		return &cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not read service config: %w", err)
	}
	data, err = os.ReadFile(s.legacyPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("could not read nbfc service settings: %w", err)
	}
	var settings nbfcServiceSettings
	err = xml.Unmarshal(data, &settings)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", s.legacyPath, err)
	}
	slog.Info("migrating nbfc service settings", "from", s.legacyPath, "profile", settings.SelectedConfigID)
	return settings.serviceConfig(), nil
}

// Save replaces the configuration file atomically.
func (s *Store) Save(cfg *ServiceConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("could not encode service config: %w", err)
	}
	dir := filepath.Dir(s.path)
	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("could not create service config: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(0o644)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("could not save service config: %w", err)
	}
	err = os.Rename(tmp.Name(), s.path)
	if err != nil {
		return fmt.Errorf("could not save service config: %w", err)
	}
	return nil
}
