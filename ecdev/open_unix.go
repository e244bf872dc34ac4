//go:build unix

package ecdev

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Open resolves mode, opens the device read-write and takes an exclusive
// advisory lock on it so that a second daemon cannot interleave accesses.
func Open(mode AccessMode, opts ...ResolveOption) (*Handle, error) {
	path, err := Resolve(mode, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not resolve ec access mode %s: %w", mode, err)
	}
	resolved, err := ModeFromPath(path)
	if err != nil {
		return nil, err
	}
	return openPath(path, resolved)
}

func openPath(path string, mode AccessMode) (*Handle, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("could not open ec device %s: %w", path, err)
	}
	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%s: %w", path, ErrDeviceBusy)
		}
		return nil, fmt.Errorf("could not lock ec device %s: %w", path, err)
	}
	h := New(f)
	h.mode = mode
	h.path = path
	h.closer = func() error {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		return f.Close()
	}
	return h, nil
}

// Writable reports why path cannot be opened for writing by the current process, if it cannot.
func Writable(path string) error {
	err := unix.Access(path, unix.W_OK)
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", path, err)
	}
	return nil
}
