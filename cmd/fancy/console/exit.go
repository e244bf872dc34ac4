package console

import (
	"errors"
	"fmt"
	"os"

	"github.com/musikid/fancy"
	"github.com/musikid/fancy/ecdev"
	"github.com/musikid/fancy/nbfc"
	"github.com/urfave/cli/v2"
)

// Exit codes of the fancy command.
const (
	ExitFailure       = 1
	ExitUsage         = 2
	ExitNoAccess      = 3
	ExitBusy          = 4
	ExitBadProfile    = 5
	ExitDeviceFailure = 6
)

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}

// ExitErr picks the exit code matching the class of err.
func ExitErr(err error) cli.ExitCoder {
	var ioErr *fancy.IOError
	code := ExitFailure
	switch {
	case errors.Is(err, ecdev.ErrNoAccessMethod), errors.Is(err, os.ErrPermission):
		code = ExitNoAccess
	case errors.Is(err, ecdev.ErrDeviceBusy):
		code = ExitBusy
	case errors.Is(err, nbfc.ErrInvalidProfile), errors.Is(err, os.ErrNotExist):
		code = ExitBadProfile
	case errors.As(err, &ioErr):
		code = ExitDeviceFailure
	}
	return Exit(code, "%s", Red(err))
}
