package timedloop

import (
	"errors"

	"github.com/samber/oops"
)

var (
	// ErrConfiguration is returned by New when the state table cannot be used.
	ErrConfiguration = errors.New("timedloop: invalid configuration")
	// ErrPrecondition is returned when a runtime call receives invalid input.
	ErrPrecondition = errors.New("timedloop: precondition violated")
)

func configError(format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").In("timedloop").Wrapf(ErrConfiguration, format, args...)
}

func preconditionError(format string, args ...any) error {
	return oops.Code("PRECONDITION_VIOLATION").In("timedloop").Wrapf(ErrPrecondition, format, args...)
}
