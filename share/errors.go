package share

import "errors"

var (
	// ErrZeroTotalShares indicates a fraction was requested against an empty registry.
	ErrZeroTotalShares = errors.New("share: zero total shares")

	// ErrShareExceedsTotal indicates a share weight larger than the total it belongs to.
	ErrShareExceedsTotal = errors.New("share: share exceeds total shares")

	// ErrAmountOverflow indicates an apportioned amount does not fit in uint64.
	ErrAmountOverflow = errors.New("share: apportioned amount overflows uint64")
)
