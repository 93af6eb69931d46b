package ledger

import "fmt"

// AddReceiversOpts holds options for AddReceivers.
type AddReceiversOpts struct {
	Principal string
	Names     []string
	Shares    []uint64
}

// AddReceivers registers new receivers with zero accrued balances. Elapsed
// time is checkpointed first, so the newcomers only participate in accrual
// from this tick forward.
func (e *Engine) AddReceivers(opts *AddReceiversOpts) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireAdmin(opts.Principal); err != nil {
		return nil, err
	}
	if len(opts.Names) == 0 || len(opts.Names) != len(opts.Shares) {
		return nil, fmt.Errorf("%w: %d names, %d shares", ErrSetupLists, len(opts.Names), len(opts.Shares))
	}

	st, _, err := e.beginMutation()
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, len(opts.Names))
	for i := range opts.Names {
		id, err := st.Registry.Add(opts.Names[i], opts.Shares[i])
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}

	if err := e.commit(st); err != nil {
		return nil, err
	}

	for i, id := range ids {
		e.events.Emit(Event{Type: EventReceiverAdded, ReceiverID: id, Share: opts.Shares[i]})
	}
	return &Result{
		Message:    fmt.Sprintf("Added %d receivers", len(ids)),
		ReceiverID: ids[0],
	}, nil
}

// RemoveReceiver deletes a receiver after checkpointing its final accrual.
// Any unclaimed balance is forfeited; the amount is reported in the result
// and the emitted event but not held anywhere.
func (e *Engine) RemoveReceiver(principal string, id uint64) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireAdmin(principal); err != nil {
		return nil, err
	}

	st, _, err := e.beginMutation()
	if err != nil {
		return nil, err
	}

	forfeited, err := st.Registry.Remove(id)
	if err != nil {
		return nil, err
	}

	if err := e.commit(st); err != nil {
		return nil, err
	}

	e.events.Emit(Event{Type: EventReceiverRemoved, ReceiverID: id, Amount: forfeited})
	return &Result{
		Message:    fmt.Sprintf("Removed receiver %d, forfeiting %d", id, forfeited),
		ReceiverID: id,
		Forfeited:  forfeited,
	}, nil
}

// UpdateShare changes a receiver's weight. Accrual up to this tick happens
// at the old weight; from here on the new weight applies.
func (e *Engine) UpdateShare(principal string, id, newShare uint64) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireAdmin(principal); err != nil {
		return nil, err
	}

	st, _, err := e.beginMutation()
	if err != nil {
		return nil, err
	}

	if err := st.Registry.UpdateShare(id, newShare); err != nil {
		return nil, err
	}

	if err := e.commit(st); err != nil {
		return nil, err
	}

	e.events.Emit(Event{Type: EventShareUpdated, ReceiverID: id, Share: newShare})
	return &Result{
		Message:    fmt.Sprintf("Receiver %d share set to %d", id, newShare),
		ReceiverID: id,
	}, nil
}

// ShrinkReceiver splits a receiver, moving part of its weight onto a newly
// created receiver. Total weight is conserved, so nobody else's fraction
// moves.
func (e *Engine) ShrinkReceiver(principal string, id uint64, newName string, newShare uint64) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireAdmin(principal); err != nil {
		return nil, err
	}

	st, _, err := e.beginMutation()
	if err != nil {
		return nil, err
	}

	newID, err := st.Registry.Shrink(id, newName, newShare)
	if err != nil {
		return nil, err
	}

	if err := e.commit(st); err != nil {
		return nil, err
	}

	e.events.Emit(Event{Type: EventReceiverShrunk, ReceiverID: id, NewReceiverID: newID, Share: newShare})
	return &Result{
		Message:       fmt.Sprintf("Receiver %d shrunk; receiver %d created with share %d", id, newID, newShare),
		ReceiverID:    id,
		NewReceiverID: newID,
	}, nil
}

// updateSchedule checkpoints, applies fn to the schedule, and commits. Every
// schedule parameter change settles elapsed time under the old parameters
// first, so the change only shapes the future.
func (e *Engine) updateSchedule(principal, what string, fn func(*State) error) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireAdmin(principal); err != nil {
		return nil, err
	}

	st, _, err := e.beginMutation()
	if err != nil {
		return nil, err
	}

	if err := fn(st); err != nil {
		return nil, err
	}

	if err := e.commit(st); err != nil {
		return nil, err
	}

	e.events.Emit(Event{Type: EventScheduleUpdated})
	return &Result{Message: what}, nil
}

// UpdateFinalRate changes the saturation bound the per-period rate steps
// toward. If the current rate already sits past the new bound in the step
// direction, the very next roll clamps onto it.
func (e *Engine) UpdateFinalRate(principal string, v uint64) (*Result, error) {
	return e.updateSchedule(principal, fmt.Sprintf("Final rate set to %d", v), func(st *State) error {
		return st.Schedule.SetFinalRate(v)
	})
}

// UpdateChangePercent changes the signed per-period step, in basis points.
func (e *Engine) UpdateChangePercent(principal string, v int64) (*Result, error) {
	return e.updateSchedule(principal, fmt.Sprintf("Change percent set to %d basis points", v), func(st *State) error {
		return st.Schedule.SetChangePercent(v)
	})
}

// UpdateChangePeriodLength changes how many ticks pass between rate steps.
func (e *Engine) UpdateChangePeriodLength(principal string, v uint64) (*Result, error) {
	return e.updateSchedule(principal, fmt.Sprintf("Period length set to %d ticks", v), func(st *State) error {
		return st.Schedule.SetPeriodLength(v)
	})
}

// UpdateTicksPerPeriod changes the per-tick divisor and re-derives the
// per-tick rate from the current period rate.
func (e *Engine) UpdateTicksPerPeriod(principal string, v uint64) (*Result, error) {
	return e.updateSchedule(principal, fmt.Sprintf("Ticks per period set to %d", v), func(st *State) error {
		return st.Schedule.SetTicksPerPeriod(v)
	})
}

// Pause gates claims. Accrual and administration continue while paused.
func (e *Engine) Pause(principal string) (*Result, error) {
	return e.setPaused(principal, true)
}

// Unpause lifts the claim gate.
func (e *Engine) Unpause(principal string) (*Result, error) {
	return e.setPaused(principal, false)
}

func (e *Engine) setPaused(principal string, paused bool) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireAdmin(principal); err != nil {
		return nil, err
	}
	if !e.state.Ready {
		return nil, ErrNotSetup
	}
	if e.state.Paused == paused {
		return nil, fmt.Errorf("%w: paused=%t", ErrAlreadySet, paused)
	}

	st := e.state.Clone()
	st.Paused = paused
	if err := e.commit(st); err != nil {
		return nil, err
	}

	if paused {
		e.events.Emit(Event{Type: EventPaused})
		return &Result{Message: "Claims paused"}, nil
	}
	e.events.Emit(Event{Type: EventUnpaused})
	return &Result{Message: "Claims unpaused"}, nil
}
