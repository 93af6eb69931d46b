package ledger

import (
	"fmt"

	"github.com/vestryorg/libvestry-go/registry"
	"github.com/vestryorg/libvestry-go/schedule"
)

// MaxRolloverPeriods bounds how many unsaturated rate periods a single
// checkpoint may roll through, turning a misconfigured near-zero period
// length into an explicit error instead of unbounded work.
const MaxRolloverPeriods = 10000

// State is the complete ledger of record: everything here survives process
// restart. Mutating operations work on a clone and swap it in only after the
// new state has been persisted, so a failed operation leaves no trace.
type State struct {
	// Ready is set once Setup has completed.
	Ready bool
	// Paused gates claims; all other operations keep working.
	Paused bool
	// Registry holds the receivers and their accrued balances.
	Registry *registry.Registry
	// Schedule holds the release-rate state. Nil until Setup.
	Schedule *schedule.State
	// Nonces maps claimant principal to the next expected claim nonce.
	Nonces map[string]uint64
}

func newState() *State {
	return &State{
		Registry: registry.New(),
		Nonces:   make(map[string]uint64),
	}
}

// Clone returns a deep copy of the state.
func (st *State) Clone() *State {
	cpy := &State{
		Ready:    st.Ready,
		Paused:   st.Paused,
		Registry: st.Registry.Clone(),
		Nonces:   make(map[string]uint64, len(st.Nonces)),
	}
	if st.Schedule != nil {
		cpy.Schedule = st.Schedule.Clone()
	}
	for k, v := range st.Nonces {
		cpy.Nonces[k] = v
	}
	return cpy
}

// checkpoint reconciles all ticks elapsed since the last checkpoint into
// receiver balances and rolls the rate schedule forward to currentTick.
//
// Elapsed time splits into three stretches, each accrued pro rata:
//
//  1. ticks from the last checkpoint to the end of the current period, at
//     the current per-tick rate;
//  2. whole elapsed periods, each at its own stepped per-period rate - once
//     the rate saturates the remaining whole periods emit at the final rate
//     in a single bulk apportionment, flooring once, exactly as a single
//     rate*periods multiplication would;
//  3. leftover ticks inside the period containing currentTick, at the
//     per-tick rate that period stepped to.
//
// Calling checkpoint twice at the same tick is a no-op the second time.
func (st *State) checkpoint(currentTick uint64) error {
	sc := st.Schedule
	if currentTick == sc.LastCheckpointTick {
		return nil
	}
	if currentTick < sc.LastCheckpointTick {
		return fmt.Errorf("%w: tick %d before checkpoint %d",
			ErrTickRegression, currentTick, sc.LastCheckpointTick)
	}

	end := sc.PeriodEnd()
	upto := min(currentTick, end)
	if upto > sc.LastCheckpointTick {
		if err := st.Registry.Accrue(sc.RatePerTick, upto-sc.LastCheckpointTick); err != nil {
			return err
		}
	}

	if sc.PeriodElapsed(currentTick) {
		whole := (currentTick - end) / sc.PeriodLength

		var rolled uint64
		for rolled < whole && !sc.Saturated() {
			if rolled >= MaxRolloverPeriods {
				return fmt.Errorf("%w: %d periods pending", ErrScheduleStalled, whole)
			}
			sc.Roll()
			if err := st.Registry.Accrue(sc.RatePerPeriod, 1); err != nil {
				return err
			}
			rolled++
		}

		if remaining := whole - rolled; remaining > 0 {
			// Saturated: the rate no longer changes, so the rest of the
			// whole periods emit in one shot. This floors once over the
			// whole span (rate*periods), not once per period, keeping up
			// to remaining-1 dust units per receiver that per-period
			// flooring would drop.
			if err := st.Registry.Accrue(sc.RatePerPeriod, remaining); err != nil {
				return err
			}
			sc.Skip(remaining)
		}

		// Step into the period containing currentTick.
		if sc.Saturated() {
			sc.Skip(1)
		} else {
			sc.Roll()
		}

		if rem := currentTick - sc.PeriodStartTick; rem > 0 {
			if err := st.Registry.Accrue(sc.RatePerTick, rem); err != nil {
				return err
			}
		}
	}

	sc.LastCheckpointTick = currentTick
	return nil
}
