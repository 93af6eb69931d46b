// Package schedule implements the release-rate state machine.
//
// Emission is described by a per-period rate that steps geometrically by a
// signed basis-point percentage once per period, saturating at a configured
// final rate. The derived per-tick rate is the per-period rate divided by the
// ticks-per-period divisor with floor division; that truncation is permanent
// and every consumer of the per-tick rate sees the same floored value.
package schedule

import (
	"fmt"
	"math/big"
)

// basisPointDenominator converts basis points to a fraction (10000 bp = 100%).
const basisPointDenominator = 10000

// State holds the release-rate schedule scalars. All fields are exported for
// snapshot encoding; the accrual engine mutates them only through methods.
type State struct {
	// RatePerPeriod is the current emission per whole period.
	RatePerPeriod uint64
	// RatePerTick is RatePerPeriod / TicksPerPeriod, floored.
	RatePerTick uint64
	// FinalRatePerPeriod is the saturation bound the rate steps toward.
	FinalRatePerPeriod uint64
	// ChangeBasisPoints is the signed per-period step, in basis points.
	ChangeBasisPoints int64
	// PeriodLength is the number of ticks between rate steps.
	PeriodLength uint64
	// TicksPerPeriod is the divisor deriving the per-tick rate.
	TicksPerPeriod uint64
	// PeriodStartTick is the first tick of the current period.
	PeriodStartTick uint64
	// LastCheckpointTick is the tick of the most recent checkpoint.
	LastCheckpointTick uint64
}

// New builds a schedule positioned at startTick with the given parameters.
func New(initialRatePerPeriod, finalRatePerPeriod uint64, changeBasisPoints int64, periodLength, ticksPerPeriod, startTick uint64) (*State, error) {
	if periodLength == 0 {
		return nil, ErrZeroPeriodLength
	}
	if ticksPerPeriod == 0 {
		return nil, ErrZeroTicksPerPeriod
	}
	if changeBasisPoints < -basisPointDenominator || changeBasisPoints > basisPointDenominator {
		return nil, fmt.Errorf("%w: %d basis points", ErrChangeOutOfRange, changeBasisPoints)
	}

	return &State{
		RatePerPeriod:      initialRatePerPeriod,
		RatePerTick:        initialRatePerPeriod / ticksPerPeriod,
		FinalRatePerPeriod: finalRatePerPeriod,
		ChangeBasisPoints:  changeBasisPoints,
		PeriodLength:       periodLength,
		TicksPerPeriod:     ticksPerPeriod,
		PeriodStartTick:    startTick,
		LastCheckpointTick: startTick,
	}, nil
}

// PeriodEnd returns the tick at which the current period's rate stops applying.
func (s *State) PeriodEnd() uint64 {
	return s.PeriodStartTick + s.PeriodLength
}

// PeriodElapsed reports whether at least one full period has passed at tick.
func (s *State) PeriodElapsed(tick uint64) bool {
	return tick > s.PeriodEnd()
}

// Saturated reports whether the rate has reached its final value. Once equal
// it stays equal: NextRate returns the final rate unchanged.
func (s *State) Saturated() bool {
	return s.RatePerPeriod == s.FinalRatePerPeriod
}

// NextRate computes the period rate one step after rate, and the per-tick
// rate derived from it. The step is rate * ChangeBasisPoints / 10000 with
// truncation toward zero; a step that would carry the rate past
// FinalRatePerPeriod is clamped to it, so the rate never oscillates around
// its target.
func (s *State) NextRate(rate uint64) (newPeriodRate, newTickRate uint64) {
	candidate := new(big.Int).SetUint64(rate)
	delta := new(big.Int).Mul(candidate, big.NewInt(s.ChangeBasisPoints))
	delta.Quo(delta, big.NewInt(basisPointDenominator))
	candidate.Add(candidate, delta)

	final := new(big.Int).SetUint64(s.FinalRatePerPeriod)
	switch {
	case s.ChangeBasisPoints < 0 && candidate.Cmp(final) < 0:
		candidate.Set(final)
	case s.ChangeBasisPoints > 0 && candidate.Cmp(final) > 0:
		candidate.Set(final)
	}

	newPeriodRate = candidate.Uint64()
	return newPeriodRate, newPeriodRate / s.TicksPerPeriod
}

// Roll advances the rate by one period step and moves the period start
// forward by one period length.
func (s *State) Roll() {
	s.RatePerPeriod, s.RatePerTick = s.NextRate(s.RatePerPeriod)
	s.PeriodStartTick += s.PeriodLength
}

// Skip advances the period start by n periods without touching the rate.
// Used for elapsed periods after the rate has saturated.
func (s *State) Skip(n uint64) {
	s.PeriodStartTick += n * s.PeriodLength
}

// Clone returns a copy of the schedule state.
func (s *State) Clone() *State {
	cpy := *s
	return &cpy
}

// SetFinalRate updates the saturation bound. Setting the current value again
// is rejected.
func (s *State) SetFinalRate(v uint64) error {
	if v == s.FinalRatePerPeriod {
		return fmt.Errorf("%w: final rate %d", ErrAlreadySet, v)
	}
	s.FinalRatePerPeriod = v
	return nil
}

// SetChangePercent updates the signed per-period step in basis points.
func (s *State) SetChangePercent(v int64) error {
	if v < -basisPointDenominator || v > basisPointDenominator {
		return fmt.Errorf("%w: %d basis points", ErrChangeOutOfRange, v)
	}
	if v == s.ChangeBasisPoints {
		return fmt.Errorf("%w: change percent %d", ErrAlreadySet, v)
	}
	s.ChangeBasisPoints = v
	return nil
}

// SetPeriodLength updates the number of ticks between rate steps.
func (s *State) SetPeriodLength(v uint64) error {
	if v == 0 {
		return ErrZeroPeriodLength
	}
	if v == s.PeriodLength {
		return fmt.Errorf("%w: period length %d", ErrAlreadySet, v)
	}
	s.PeriodLength = v
	return nil
}

// SetTicksPerPeriod updates the per-tick divisor and re-derives RatePerTick
// from the current period rate.
func (s *State) SetTicksPerPeriod(v uint64) error {
	if v == 0 {
		return ErrZeroTicksPerPeriod
	}
	if v == s.TicksPerPeriod {
		return fmt.Errorf("%w: ticks per period %d", ErrAlreadySet, v)
	}
	s.TicksPerPeriod = v
	s.RatePerTick = s.RatePerPeriod / v
	return nil
}
