package registry

import "errors"

var (
	// ErrInvalidName indicates an empty receiver name.
	ErrInvalidName = errors.New("registry: receiver name must not be empty")

	// ErrInvalidShare indicates a zero, unchanged, or otherwise unusable share weight.
	ErrInvalidShare = errors.New("registry: invalid share weight")

	// ErrReceiverNotFound indicates the receiver id is unknown.
	ErrReceiverNotFound = errors.New("registry: receiver not found")

	// ErrInsufficientAccrued indicates a drain larger than the accrued balance.
	ErrInsufficientAccrued = errors.New("registry: insufficient accrued balance")

	// ErrBalanceOverflow indicates an accrued balance does not fit in uint64.
	ErrBalanceOverflow = errors.New("registry: accrued balance overflows uint64")

	// ErrTotalSharesOverflow indicates the share total does not fit in uint64.
	ErrTotalSharesOverflow = errors.New("registry: total shares overflows uint64")
)
