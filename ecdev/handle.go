// Package ecdev opens and guards the embedded controller device.
//
// The EC register space is exposed by the kernel as a seekable file. A
// logical register access is a seek followed by a read or a write, so every
// access goes through a Handle which serialises the pair; the reader and the
// writer of the daemon share one Handle for the lifetime of the process.
package ecdev

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/musikid/fancy"
)

var ErrDeviceBusy = errors.New("ec device is locked by another process")

var _ fancy.EC = &Handle{}

type Handle struct {
	mx     sync.Mutex
	dev    io.ReadWriteSeeker
	mode   AccessMode
	path   string
	closer func() error
}

// New wraps a seekable register store. The returned handle reports the
// Either mode since no device path was resolved.
func New(dev io.ReadWriteSeeker) *Handle {
	return &Handle{dev: dev, mode: Either}
}

// Mode returns the concrete access mode the handle was opened with.
func (h *Handle) Mode() AccessMode {
	return h.mode
}

func (h *Handle) Path() string {
	return h.path
}

func (h *Handle) WriteRegister(ctx context.Context, offset byte, buffer []byte) error {
	if err := checkBounds("write", offset, buffer); err != nil {
		return err
	}
	h.mx.Lock()
	defer h.mx.Unlock()
	if _, err := h.dev.Seek(int64(offset), io.SeekStart); err != nil {
		return &fancy.IOError{Op: "seek", Offset: offset, Err: err}
	}
	if _, err := h.dev.Write(buffer); err != nil {
		return &fancy.IOError{Op: "write", Offset: offset, Err: err}
	}
	return nil
}

func (h *Handle) ReadRegister(ctx context.Context, offset byte, buffer []byte) error {
	if err := checkBounds("read", offset, buffer); err != nil {
		return err
	}
	h.mx.Lock()
	defer h.mx.Unlock()
	if _, err := h.dev.Seek(int64(offset), io.SeekStart); err != nil {
		return &fancy.IOError{Op: "seek", Offset: offset, Err: err}
	}
	if _, err := io.ReadFull(h.dev, buffer); err != nil {
		return &fancy.IOError{Op: "read", Offset: offset, Err: err}
	}
	return nil
}

// Close releases the device. Handles created with New close nothing.
func (h *Handle) Close() error {
	h.mx.Lock()
	defer h.mx.Unlock()
	if h.closer == nil {
		return nil
	}
	closer := h.closer
	h.closer = nil
	if err := closer(); err != nil {
		return fmt.Errorf("could not close ec device %s: %w", h.path, err)
	}
	return nil
}

func checkBounds(op string, offset byte, buffer []byte) error {
	if int(offset)+len(buffer) > fancy.RegisterSpace {
		return &fancy.IOError{Op: op, Offset: offset, Err: fancy.ErrOffsetOutOfRange}
	}
	return nil
}
