package ledger

import (
	"fmt"

	"github.com/vestryorg/libvestry-go/pool"
)

// SweepAmountOf moves amount of a stray token out of the ledger instance.
// The managed token is refused: receiver balances are backed by it and a
// sweep would silently break that backing. Sweeps bypass the ledger of
// record entirely, so there is no checkpoint and nothing to persist.
func (e *Engine) SweepAmountOf(principal string, stray pool.Pool, to string, amount uint64) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireAdmin(principal); err != nil {
		return nil, err
	}
	if stray == nil {
		return nil, fmt.Errorf("%w: stray token pool", ErrNilCollaborator)
	}
	if to == "" {
		return nil, pool.ErrEmptyAddress
	}
	if stray.Address() == e.pool.Address() {
		return nil, fmt.Errorf("%w: %s", ErrManagedToken, stray.Address())
	}

	if err := stray.Transfer(to, amount); err != nil {
		return nil, fmt.Errorf("%w: %w", pool.ErrTransferFailed, err)
	}

	e.events.Emit(Event{Type: EventSwept, Token: stray.Address(), To: to, Amount: amount})
	return &Result{
		Message: fmt.Sprintf("Swept %d of %s to %s", amount, stray.Address(), to),
		Amount:  amount,
	}, nil
}

// SweepAllOf sweeps the ledger instance's entire balance of a stray token.
func (e *Engine) SweepAllOf(principal string, stray pool.Pool, to string) (*Result, error) {
	if stray == nil {
		return nil, fmt.Errorf("%w: stray token pool", ErrNilCollaborator)
	}
	balance, err := stray.BalanceOf(e.domain.Instance)
	if err != nil {
		return nil, fmt.Errorf("ledger: stray balance: %w", err)
	}
	return e.SweepAmountOf(principal, stray, to, balance)
}
