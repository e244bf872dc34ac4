// Package ecram provides an in-memory embedded controller register bank.
//
// A Bank behaves like the kernel EC device files (/dev/port, /dev/ec,
// ec_sys io): it is seekable, readable and writable, and sized to the
// 8-bit EC address space. It backs dry runs of the cli and the tests of
// the packages driving the EC.
//
// Example usage:
//
//	bank := ecram.New()
//	handle := ecdev.New(bank)
//	_ = handle.WriteRegister(ctx, 0x93, []byte{0x14})
//	fmt.Printf("%x\n", bank.Bytes()[0x93])
package ecram

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/musikid/fancy"
)

var ErrInvalidWhence = errors.New("invalid whence")
var ErrNegativePosition = errors.New("negative position")

// Bank is a 256-byte register space. The zero value is a zeroed bank.
type Bank struct {
	mx   sync.Mutex
	regs [fancy.RegisterSpace]byte
	pos  int64
}

func New() *Bank {
	return &Bank{}
}

// NewFrom returns a bank preloaded with data; bytes past the register space are ignored.
func NewFrom(data []byte) *Bank {
	b := &Bank{}
	copy(b.regs[:], data)
	return b
}

func (b *Bank) Seek(offset int64, whence int) (int64, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.pos + offset
	case io.SeekEnd:
		abs = fancy.RegisterSpace + offset
	default:
		return 0, fmt.Errorf("ecram: seek: %w", ErrInvalidWhence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("ecram: seek: %w", ErrNegativePosition)
	}
	b.pos = abs
	return abs, nil
}

func (b *Bank) Read(p []byte) (int, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.pos >= fancy.RegisterSpace {
		return 0, io.EOF
	}
	n := copy(p, b.regs[b.pos:])
	b.pos += int64(n)
	return n, nil
}

// Write stores p at the current position. Bytes that would land past the end
// of the register space are not written and io.ErrShortWrite is returned.
func (b *Bank) Write(p []byte) (int, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.pos >= fancy.RegisterSpace {
		return 0, io.ErrShortWrite
	}
	n := copy(b.regs[b.pos:], p)
	b.pos += int64(n)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Bytes returns a copy of the register space.
func (b *Bank) Bytes() []byte {
	b.mx.Lock()
	defer b.mx.Unlock()
	out := make([]byte, fancy.RegisterSpace)
	copy(out, b.regs[:])
	return out
}

func (b *Bank) Zero() {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.regs = [fancy.RegisterSpace]byte{}
}
