package arena

import "github.com/pkg/errors"

var (
	// ErrInvalidSize is the cause of the panic raised when an allocation of
	// zero or negative size is requested.
	ErrInvalidSize = errors.New("arena: allocation size must be positive")

	// ErrReleased is the cause of the panic raised when an arena is used
	// after Release.
	ErrReleased = errors.New("arena: use after Release()")
)

func panicInvalidSize(n int) {
	panic(errors.Wrapf(ErrInvalidSize, "requested %d bytes", n))
}

func panicReleased(op string) {
	panic(errors.Wrap(ErrReleased, op))
}
