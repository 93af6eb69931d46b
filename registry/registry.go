// Package registry maintains the ordered set of emission receivers and their
// accrued-but-unclaimed balances.
//
// The registry enforces a single conservation invariant: the sum of all
// active receivers' Share equals TotalShares at all times. Mutations that
// move weight (Shrink) conserve it exactly; mutations that add or remove
// weight (Add, Remove, UpdateShare) adjust TotalShares by the same delta.
package registry

import (
	"fmt"
	"math"

	"github.com/vestryorg/libvestry-go/share"
)

// Add registers a new receiver with a zero accrued balance and returns its id.
func (rg *Registry) Add(name string, shareWeight uint64) (uint64, error) {
	if name == "" {
		return 0, ErrInvalidName
	}
	if shareWeight == 0 {
		return 0, fmt.Errorf("%w: share must be positive", ErrInvalidShare)
	}
	if rg.TotalShares > math.MaxUint64-shareWeight {
		return 0, ErrTotalSharesOverflow
	}

	id := rg.NextID
	rg.NextID++
	rg.Receivers = append(rg.Receivers, &Receiver{
		ID:    id,
		Name:  name,
		Share: shareWeight,
	})
	rg.TotalShares += shareWeight
	return id, nil
}

// Remove deletes the receiver and subtracts its weight from TotalShares.
// The unclaimed accrued balance is forfeited and returned to the caller for
// reporting only; no record of it survives. The id is permanently retired.
func (rg *Registry) Remove(id uint64) (forfeited uint64, err error) {
	i, r := rg.find(id)
	if r == nil {
		return 0, ErrReceiverNotFound
	}

	rg.TotalShares -= r.Share
	rg.Receivers = append(rg.Receivers[:i], rg.Receivers[i+1:]...)
	return r.Accrued, nil
}

// UpdateShare changes a receiver's weight and adjusts TotalShares by the
// delta. No-op updates are rejected to force explicit intent.
func (rg *Registry) UpdateShare(id, newShare uint64) error {
	_, r := rg.find(id)
	if r == nil {
		return ErrReceiverNotFound
	}
	if newShare == 0 {
		return fmt.Errorf("%w: share must be positive", ErrInvalidShare)
	}
	if newShare == r.Share {
		return fmt.Errorf("%w: share already %d", ErrInvalidShare, newShare)
	}
	if newShare > r.Share {
		delta := newShare - r.Share
		if rg.TotalShares > math.MaxUint64-delta {
			return ErrTotalSharesOverflow
		}
		rg.TotalShares += delta
	} else {
		rg.TotalShares -= r.Share - newShare
	}
	r.Share = newShare
	return nil
}

// Shrink splits a receiver, moving newShare of its weight onto a newly
// created receiver. TotalShares is unchanged: this is the invariant that
// distinguishes a shrink from an add followed by a remove.
func (rg *Registry) Shrink(id uint64, newName string, newShare uint64) (uint64, error) {
	_, src := rg.find(id)
	if src == nil {
		return 0, ErrReceiverNotFound
	}
	if newName == "" {
		return 0, ErrInvalidName
	}
	if newShare == 0 || newShare >= src.Share {
		return 0, fmt.Errorf("%w: split share must be positive and strictly below the source's %d",
			ErrInvalidShare, src.Share)
	}

	src.Share -= newShare
	newID := rg.NextID
	rg.NextID++
	rg.Receivers = append(rg.Receivers, &Receiver{
		ID:    newID,
		Name:  newName,
		Share: newShare,
	})
	return newID, nil
}

// ShareFraction returns the receiver's scaled proportional fraction,
// share * share.Scale / TotalShares.
func (rg *Registry) ShareFraction(id uint64) (uint64, error) {
	_, r := rg.find(id)
	if r == nil {
		return 0, ErrReceiverNotFound
	}
	return share.Fraction(r.Share, rg.TotalShares)
}

// Accrue credits every receiver its proportional slice of rate*units,
// flooring once per receiver over the whole span. An empty registry or a
// zero span is a no-op.
func (rg *Registry) Accrue(rate, units uint64) error {
	if rg.TotalShares == 0 || rate == 0 || units == 0 {
		return nil
	}
	for _, r := range rg.Receivers {
		frac, err := share.Fraction(r.Share, rg.TotalShares)
		if err != nil {
			return err
		}
		amt, err := share.Apportion(rate, units, frac)
		if err != nil {
			return err
		}
		if r.Accrued > math.MaxUint64-amt {
			return fmt.Errorf("%w: receiver %d", ErrBalanceOverflow, r.ID)
		}
		r.Accrued += amt
	}
	return nil
}

// Drain removes amount from the receiver's accrued balance.
func (rg *Registry) Drain(id, amount uint64) error {
	_, r := rg.find(id)
	if r == nil {
		return ErrReceiverNotFound
	}
	if amount > r.Accrued {
		return fmt.Errorf("%w: have %d, want %d", ErrInsufficientAccrued, r.Accrued, amount)
	}
	r.Accrued -= amount
	return nil
}
