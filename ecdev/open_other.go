//go:build !unix

package ecdev

import "errors"

var errUnsupported = errors.New("ec device access is only available on unix systems")

// Open is not available on this platform.
func Open(mode AccessMode, opts ...ResolveOption) (*Handle, error) {
	return nil, errUnsupported
}

// Writable is not available on this platform.
func Writable(path string) error {
	return errUnsupported
}
