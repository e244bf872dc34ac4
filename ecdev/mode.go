package ecdev

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Device paths exposed by the kernel for EC access.
const (
	PortPath   = "/dev/port"
	AcpiECPath = "/dev/ec"
	ECSysPath  = "/sys/kernel/debug/ec/ec0/io"
)

var ErrNoAccessMethod = errors.New("no module for access to the EC is available")
var ErrUnresolved = errors.New("access mode must be resolved at runtime")
var ErrUnknownPath = errors.New("path does not belong to any access mode")
var ErrUnknownMode = errors.New("unknown access mode")

// AccessMode selects the kernel interface backing the EC device handle.
type AccessMode int

const (
	// Either picks the first available interface at runtime.
	Either AccessMode = iota
	// RawPort uses /dev/port.
	RawPort
	// AcpiEC uses the acpi_ec module.
	AcpiEC
	// ECSys uses the ec_sys module loaded with write_support=1.
	ECSys
)

var modeNames = map[AccessMode]string{
	Either:  "either",
	RawPort: "raw_port",
	AcpiEC:  "acpi_ec",
	ECSys:   "ec_sys",
}

func (m AccessMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("AccessMode(%d)", int(m))
}

// ParseAccessMode accepts the mode names as printed by String, case-insensitively.
func ParseAccessMode(s string) (AccessMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for mode, name := range modeNames {
		if name == normalized {
			return mode, nil
		}
	}
	return Either, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Path returns the device path of a concrete mode. It performs no I/O.
func (m AccessMode) Path() (string, error) {
	switch m {
	case RawPort:
		return PortPath, nil
	case AcpiEC:
		return AcpiECPath, nil
	case ECSys:
		return ECSysPath, nil
	case Either:
		return "", ErrUnresolved
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
}

// ModeFromPath maps a device path back to the concrete mode that produced it.
func ModeFromPath(path string) (AccessMode, error) {
	switch path {
	case PortPath:
		return RawPort, nil
	case AcpiECPath:
		return AcpiEC, nil
	case ECSysPath:
		return ECSys, nil
	}
	return Either, fmt.Errorf("%w: %s", ErrUnknownPath, path)
}

func (m AccessMode) MarshalYAML() (interface{}, error) {
	if _, ok := modeNames[m]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return m.String(), nil
}

func (m *AccessMode) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return fmt.Errorf("could not decode access mode: %w", err)
	}
	mode, err := ParseAccessMode(name)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// probeOrder is the order in which Either looks for a device path.
var probeOrder = []AccessMode{RawPort, AcpiEC, ECSys}

type ResolveConfig struct {
	Exists func(path string) bool
}

type ResolveOption func(*ResolveConfig)

// WithExists replaces the existence probe, which defaults to os.Stat.
func WithExists(exists func(path string) bool) ResolveOption {
	return func(c *ResolveConfig) {
		c.Exists = exists
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Resolve returns the device path to open for mode. Concrete modes map to
// their fixed path without touching the filesystem; Either probes the raw
// port, acpi_ec and ec_sys paths in that order and returns the first one
// that exists, or ErrNoAccessMethod.
func Resolve(mode AccessMode, opts ...ResolveOption) (string, error) {
	if mode != Either {
		return mode.Path()
	}
	config := &ResolveConfig{
		Exists: pathExists,
	}
	for _, opt := range opts {
		opt(config)
	}
	for _, candidate := range probeOrder {
		path, err := candidate.Path()
		if err != nil {
			return "", err
		}
		if config.Exists(path) {
			slog.Debug("resolved ec access mode", "mode", candidate, "path", path)
			return path, nil
		}
		slog.Debug("ec access path not available", "mode", candidate, "path", path)
	}
	return "", ErrNoAccessMethod
}
