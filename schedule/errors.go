package schedule

import "errors"

var (
	// ErrZeroPeriodLength indicates a period length of zero ticks.
	ErrZeroPeriodLength = errors.New("schedule: period length must be positive")

	// ErrZeroTicksPerPeriod indicates a per-tick divisor of zero.
	ErrZeroTicksPerPeriod = errors.New("schedule: ticks per period must be positive")

	// ErrChangeOutOfRange indicates a change percent outside [-10000, 10000] basis points.
	ErrChangeOutOfRange = errors.New("schedule: change percent out of range")

	// ErrAlreadySet indicates a parameter update that would not change the value.
	ErrAlreadySet = errors.New("schedule: value already set")
)
