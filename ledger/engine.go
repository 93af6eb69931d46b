// Package ledger implements the token-release ledger: a pool of funds that
// accrues to a set of named receivers over time at a rate that itself
// changes on a schedule, with signature-gated, replay-proof withdrawals.
//
// Execution is serialized and atomic per operation. Every mutating call
// first reconciles elapsed time into receiver balances (a checkpoint), then
// applies its change to a cloned state, persists the clone, and only then
// swaps it in. A failing operation therefore leaves both memory and disk
// untouched.
package ledger

import (
	"fmt"
	"sync"

	"github.com/vestryorg/libvestry-go/claims"
	"github.com/vestryorg/libvestry-go/config"
	"github.com/vestryorg/libvestry-go/pool"
	"github.com/vestryorg/libvestry-go/roles"
	"github.com/vestryorg/libvestry-go/schedule"
)

// ScheduleParams are the release-rate parameters applied at Setup.
type ScheduleParams struct {
	InitialRatePerPeriod uint64
	FinalRatePerPeriod   uint64
	ChangeBasisPoints    int64
	PeriodLengthTicks    uint64
	TicksPerPeriod       uint64
}

// Options wires an Engine to its collaborators. Store, Ticks, Pool and
// Roles are required; Payout defaults to Pool and Events to a NopSink.
type Options struct {
	Store  Store
	Ticks  TickSource
	Pool   pool.Pool // the managed token's pool
	Payout pool.Pool // optional payout indirection for claims
	Roles  roles.Authority
	Events EventSink
	Domain claims.Domain
	Params ScheduleParams
}

// FromConfig derives engine domain and schedule parameters from a validated
// configuration.
func FromConfig(cfg config.Config) (claims.Domain, ScheduleParams, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return claims.Domain{}, ScheduleParams{}, err
	}
	d := claims.Domain{
		Name:     cfg.LedgerName,
		Version:  cfg.LedgerVersion,
		ChainID:  cfg.ChainID,
		Instance: cfg.Instance,
	}
	p := ScheduleParams{
		InitialRatePerPeriod: cfg.InitialRatePerPeriod,
		FinalRatePerPeriod:   cfg.FinalRatePerPeriod,
		ChangeBasisPoints:    cfg.ChangeBasisPoints,
		PeriodLengthTicks:    cfg.PeriodLengthTicks,
		TicksPerPeriod:       cfg.TicksPerPeriod,
	}
	return d, p, nil
}

// Engine is the ledger instance. All methods are safe for concurrent use;
// a single exclusive lock serializes every operation.
type Engine struct {
	mu     sync.Mutex
	state  *State
	store  Store
	ticks  TickSource
	pool   pool.Pool
	payout pool.Pool
	roles  roles.Authority
	events EventSink
	domain claims.Domain
	params ScheduleParams
}

// Result holds the outcome of a ledger operation.
type Result struct {
	Message       string
	ReceiverID    uint64
	NewReceiverID uint64
	Amount        uint64
	Forfeited     uint64
}

// New builds an Engine, resuming from the store's persisted state when one
// exists. A fresh engine starts Uninitialized and accepts only Setup.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrNilCollaborator)
	case opts.Ticks == nil:
		return nil, fmt.Errorf("%w: tick source", ErrNilCollaborator)
	case opts.Pool == nil:
		return nil, fmt.Errorf("%w: token pool", ErrNilCollaborator)
	case opts.Roles == nil:
		return nil, fmt.Errorf("%w: role authority", ErrNilCollaborator)
	}
	if err := opts.Domain.Validate(); err != nil {
		return nil, err
	}

	payout := opts.Payout
	if payout == nil {
		payout = opts.Pool
	}
	events := opts.Events
	if events == nil {
		events = NopSink{}
	}

	st, err := opts.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("ledger: load state: %w", err)
	}
	if st == nil {
		st = newState()
	}

	return &Engine{
		state:  st,
		store:  opts.Store,
		ticks:  opts.Ticks,
		pool:   opts.Pool,
		payout: payout,
		roles:  opts.Roles,
		events: events,
		domain: opts.Domain,
		params: opts.Params,
	}, nil
}

// Close releases the engine's store.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Close()
}

// Domain returns the claim domain separator parameters. Claim signers need
// it to compute digests that this ledger will accept.
func (e *Engine) Domain() claims.Domain { return e.domain }

// requireAdmin fails unless principal holds the admin role.
func (e *Engine) requireAdmin(principal string) error {
	if !e.roles.HasRole(roles.Admin, principal) {
		return fmt.Errorf("%w: %q requires role %q", roles.ErrUnauthorized, principal, roles.Admin)
	}
	return nil
}

// beginMutation clones the state and checkpoints it at the current tick.
// Callers must hold e.mu. The clone is committed only by commit; dropping
// it aborts the operation without side effects.
func (e *Engine) beginMutation() (*State, uint64, error) {
	if !e.state.Ready {
		return nil, 0, ErrNotSetup
	}
	tick, err := e.ticks.CurrentTick()
	if err != nil {
		return nil, 0, fmt.Errorf("ledger: current tick: %w", err)
	}
	st := e.state.Clone()
	if err := st.checkpoint(tick); err != nil {
		return nil, 0, err
	}
	return st, tick, nil
}

// commit persists the new state and swaps it in.
func (e *Engine) commit(st *State) error {
	if err := e.store.Save(st); err != nil {
		return fmt.Errorf("ledger: persist state: %w", err)
	}
	e.state = st
	return nil
}

// Setup transitions the ledger from Uninitialized to Ready exactly once,
// registering the initial receivers and starting the release-rate schedule
// at the current tick.
func (e *Engine) Setup(opts *SetupOpts) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Ready {
		return nil, ErrAlreadySetup
	}
	if err := e.requireAdmin(opts.Principal); err != nil {
		return nil, err
	}
	if len(opts.Names) == 0 || len(opts.Names) != len(opts.Shares) {
		return nil, fmt.Errorf("%w: %d names, %d shares", ErrSetupLists, len(opts.Names), len(opts.Shares))
	}

	tick, err := e.ticks.CurrentTick()
	if err != nil {
		return nil, fmt.Errorf("ledger: current tick: %w", err)
	}

	st := e.state.Clone()
	st.Schedule, err = schedule.New(
		e.params.InitialRatePerPeriod,
		e.params.FinalRatePerPeriod,
		e.params.ChangeBasisPoints,
		e.params.PeriodLengthTicks,
		e.params.TicksPerPeriod,
		tick,
	)
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
	st.Ready = true

	if err := e.commit(st); err != nil {
		return nil, err
	}

	e.events.Emit(Event{Type: EventSetup})
	for i, id := range ids {
		e.events.Emit(Event{Type: EventReceiverAdded, ReceiverID: id, Share: opts.Shares[i]})
	}
	return &Result{
		Message: fmt.Sprintf("Ledger set up with %d receivers at tick %d", len(ids), tick),
	}, nil
}

// SetupOpts holds options for the one-time Setup operation.
type SetupOpts struct {
	Principal string
	Names     []string
	Shares    []uint64
}

// TotalReceivers returns the number of active receivers.
func (e *Engine) TotalReceivers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Registry.Len()
}

// ReceiverShare returns the receiver's scaled proportional fraction,
// share * share.Scale / totalShares.
func (e *Engine) ReceiverShare(id uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.Ready {
		return 0, ErrNotSetup
	}
	return e.state.Registry.ShareFraction(id)
}

// PendingAccrual returns what the receiver's accrued balance would be if a
// checkpoint ran now. The ledger of record is not modified.
func (e *Engine) PendingAccrual(id uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, _, err := e.beginMutation()
	if err != nil {
		return 0, err
	}
	r, err := st.Registry.Get(id)
	if err != nil {
		return 0, err
	}
	return r.Accrued, nil
}

// TicksSinceCheckpoint returns how many ticks have elapsed since the last
// checkpoint.
func (e *Engine) TicksSinceCheckpoint() (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.Ready {
		return 0, ErrNotSetup
	}
	tick, err := e.ticks.CurrentTick()
	if err != nil {
		return 0, fmt.Errorf("ledger: current tick: %w", err)
	}
	if tick < e.state.Schedule.LastCheckpointTick {
		return 0, fmt.Errorf("%w: tick %d before checkpoint %d",
			ErrTickRegression, tick, e.state.Schedule.LastCheckpointTick)
	}
	return tick - e.state.Schedule.LastCheckpointTick, nil
}

// Nonce returns the claimant's next expected claim nonce. Signers bind this
// value into the claim digest.
func (e *Engine) Nonce(claimant string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Nonces[claimant]
}

// Ready reports whether Setup has completed.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Ready
}

// IsPaused reports whether claims are currently gated.
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Paused
}
