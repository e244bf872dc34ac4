// Package service is the command boundary of the fan control daemon.
//
// A Service owns the EC device handle and the register write engine. Every
// command runs under one lock, so profile changes, speed changes and resets
// never interleave on the engine. Accepted commands are persisted through a
// config.Store when one is configured.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/musikid/fancy"
	"github.com/musikid/fancy/config"
	"github.com/musikid/fancy/ecdev"
	"github.com/musikid/fancy/ecwrite"
	"github.com/musikid/fancy/nbfc"
)

var ErrClosed = errors.New("service is closed")
var ErrFanIndex = errors.New("fan index out of range")
var ErrNoProfile = errors.New("no fan control profile selected")

// Device is the EC device a Service drives. *ecdev.Handle implements it.
type Device interface {
	fancy.EC
	Mode() ecdev.AccessMode
	Path() string
	Close() error
}

var _ Device = &ecdev.Handle{}

type Options struct {
	ProfilesDir string
	Store       *config.Store
	Open        func(mode ecdev.AccessMode) (Device, error)
}

type Option func(*Options)

func WithProfilesDir(dir string) Option {
	return func(o *Options) {
		o.ProfilesDir = dir
	}
}

// WithStore persists accepted commands. Without a store nothing is written
// back.
func WithStore(store *config.Store) Option {
	return func(o *Options) {
		o.Store = store
	}
}

// WithDevice uses dev instead of opening the device of the configured
// access mode.
func WithDevice(dev Device) Option {
	return func(o *Options) {
		o.Open = func(ecdev.AccessMode) (Device, error) {
			return dev, nil
		}
	}
}

func openDevice(mode ecdev.AccessMode) (Device, error) {
	return ecdev.Open(mode)
}

type Status struct {
	AccessMode ecdev.AccessMode
	DevicePath string
	Profile    string
	// Armed is false when the selected profile could not be loaded.
	Armed           bool
	Auto            bool
	FanCount        int
	TargetFanSpeeds []float64
}

type Service struct {
	mx          sync.Mutex
	dev         Device
	writer      *ecwrite.Writer
	store       *config.Store
	profilesDir string
	cfg         config.ServiceConfig
	armed       bool
	closed      bool
}

// Start opens the device, arms the writer with the selected profile and, in
// manual mode, applies the target speeds. Negative targets leave their fan
// alone. A selected profile that cannot be loaded leaves the service
// unarmed, so that another profile can still be selected.
func Start(ctx context.Context, cfg *config.ServiceConfig, opts ...Option) (*Service, error) {
	options := &Options{
		ProfilesDir: config.DefaultProfilesDir,
		Open:        openDevice,
	}
	for _, opt := range opts {
		opt(options)
	}
	dev, err := options.Open(cfg.AccessMode)
	if err != nil {
		return nil, err
	}
	s := &Service{
		dev:         dev,
		writer:      ecwrite.New(dev),
		store:       options.Store,
		profilesDir: options.ProfilesDir,
		cfg:         *cfg,
	}
	s.cfg.TargetFanSpeeds = append([]float64(nil), cfg.TargetFanSpeeds...)
	slog.InfoContext(ctx, "ec device opened", "mode", dev.Mode(), "path", dev.Path())
	if s.cfg.SelectedProfile != "" {
		profile, loadErr := nbfc.Load(s.profilesDir, s.cfg.SelectedProfile)
		if loadErr != nil {
			slog.WarnContext(ctx, "selected profile unavailable, fans left to the firmware",
				"profile", s.cfg.SelectedProfile, "error", loadErr)
		} else {
			err = s.refresh(ctx, s.cfg.SelectedProfile, profile)
			if err == nil && !s.cfg.Auto {
				err = s.applyTargets(ctx)
			}
		}
	}
	if err != nil {
		_ = dev.Close()
		return nil, err
	}
	return s, nil
}

// SelectProfile loads the named profile and re-arms the writer with it. The
// running profile is kept when the new one fails to load or initialize.
func (s *Service) SelectProfile(ctx context.Context, name string) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.closed {
		return ErrClosed
	}
	err := s.arm(ctx, name)
	if err != nil {
		return err
	}
	s.cfg.SelectedProfile = name
	if !s.cfg.Auto {
		if err := s.applyTargets(ctx); err != nil {
			return err
		}
	}
	return s.save()
}

// SetTargetSpeed switches to manual mode and sets fan to percent.
func (s *Service) SetTargetSpeed(ctx context.Context, fan int, percent float64) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.armed {
		return ErrNoProfile
	}
	if fan < 0 || fan >= s.writer.FanCount() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrFanIndex, fan, s.writer.FanCount())
	}
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return fmt.Errorf("%w: %v not in [0, 100]", ecwrite.ErrInvalidSpeed, percent)
	}
	err := s.writer.WriteSpeedPercent(ctx, fan, percent)
	if err != nil {
		return fmt.Errorf("could not set speed of fan %d: %w", fan, err)
	}
	s.cfg.Auto = false
	s.cfg.TargetFanSpeeds[fan] = percent
	return s.save()
}

// SetAuto hands the fans back to the EC firmware, or reapplies the target
// speeds when leaving auto mode.
func (s *Service) SetAuto(ctx context.Context, auto bool) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.closed {
		return ErrClosed
	}
	if auto == s.cfg.Auto {
		return nil
	}
	if s.armed {
		var err error
		if auto {
			err = s.writer.Reset(ctx, false)
		} else {
			err = s.applyTargets(ctx)
		}
		if err != nil {
			return err
		}
	}
	s.cfg.Auto = auto
	return s.save()
}

// Reapply writes the target speeds again in manual mode, for firmware that
// takes fan control back on its own.
func (s *Service) Reapply(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.cfg.Auto || !s.armed {
		return nil
	}
	return s.applyTargets(ctx)
}

func (s *Service) Status() Status {
	s.mx.Lock()
	defer s.mx.Unlock()
	return Status{
		AccessMode:      s.dev.Mode(),
		DevicePath:      s.dev.Path(),
		Profile:         s.cfg.SelectedProfile,
		Armed:           s.armed,
		Auto:            s.cfg.Auto,
		FanCount:        s.writer.FanCount(),
		TargetFanSpeeds: append([]float64(nil), s.cfg.TargetFanSpeeds...),
	}
}

// Reset writes the reset values of the running profile, of every register
// when all is set.
func (s *Service) Reset(ctx context.Context, all bool) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.writer.Reset(ctx, all)
}

// Close resets the registers that require it and releases the device.
func (s *Service) Close(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	resetErr := s.writer.Reset(ctx, false)
	if resetErr != nil {
		resetErr = fmt.Errorf("could not reset ec: %w", resetErr)
	}
	return errors.Join(resetErr, s.dev.Close())
}

// Release closes the device and leaves the registers as last written. One-shot
// commands use it so that their writes survive.
func (s *Service) Release() error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	return s.dev.Close()
}

func (s *Service) arm(ctx context.Context, name string) error {
	profile, err := nbfc.Load(s.profilesDir, name)
	if err != nil {
		return err
	}
	return s.refresh(ctx, name, profile)
}

func (s *Service) refresh(ctx context.Context, name string, profile *nbfc.Profile) error {
	err := s.writer.RefreshProfile(ctx, profile)
	if err != nil {
		return fmt.Errorf("could not apply profile %s: %w", name, err)
	}
	slog.InfoContext(ctx, "fan control profile applied", "profile", name, "fans", len(profile.Fans))
	s.armed = true
	s.resizeTargets(len(profile.Fans))
	return nil
}

// resizeTargets keeps one target per fan, new fans starting in auto.
func (s *Service) resizeTargets(n int) {
	targets := make([]float64, n)
	for i := range targets {
		targets[i] = -1
		if i < len(s.cfg.TargetFanSpeeds) {
			targets[i] = s.cfg.TargetFanSpeeds[i]
		}
	}
	s.cfg.TargetFanSpeeds = targets
}

func (s *Service) applyTargets(ctx context.Context) error {
	for fan, target := range s.cfg.TargetFanSpeeds {
		if target < 0 || math.IsNaN(target) {
			continue
		}
		err := s.writer.WriteSpeedPercent(ctx, fan, target)
		if err != nil {
			return fmt.Errorf("could not set speed of fan %d: %w", fan, err)
		}
	}
	return nil
}

func (s *Service) save() error {
	if s.store == nil {
		return nil
	}
	cfg := s.cfg
	cfg.TargetFanSpeeds = append([]float64(nil), s.cfg.TargetFanSpeeds...)
	return s.store.Save(&cfg)
}
