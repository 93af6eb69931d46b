package pool

import "errors"

var (
	// ErrTransferFailed indicates the pool could not move the requested amount.
	ErrTransferFailed = errors.New("pool: transfer failed")

	// ErrEmptyAddress indicates an empty token or principal address.
	ErrEmptyAddress = errors.New("pool: address must not be empty")

	// ErrBalanceOverflow indicates a credited balance does not fit in uint64.
	ErrBalanceOverflow = errors.New("pool: balance overflows uint64")
)
