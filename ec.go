package fancy

import (
	"context"
	"errors"
	"fmt"
)

// RegisterSpace is the size of the EC address space addressed by 8-bit offsets.
const RegisterSpace = 256

var ErrOffsetOutOfRange = errors.New("register access outside of the EC address space")

type RegisterReader interface {
	ReadRegister(ctx context.Context, offset byte, buffer []byte) error
}

type RegisterWriter interface {
	WriteRegister(ctx context.Context, offset byte, buffer []byte) error
}

// EC is the register space of an embedded controller shared by the reader and the writer.
type EC interface {
	RegisterReader
	RegisterWriter
}

// IOError reports a failed seek, read or write against the EC device.
type IOError struct {
	Op     string
	Offset byte
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("ec %s at %#04x: %v", e.Op, e.Offset, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
