// Package pool defines the fungible-token transfer collaborator the ledger
// pays claims and sweeps from. The ledger only needs "transfer value from
// pool-held balance to an address, failing if insufficient", plus balance
// lookups; everything else about the token is out of scope.
package pool

import (
	"fmt"
	"math"
	"sync"
)

// Pool is a handle on one token's balances, identified by the token address.
type Pool interface {
	// Address returns the token address this pool manages.
	Address() string

	// Transfer moves amount from the pool-held balance to the given address.
	// It fails with ErrTransferFailed if the pool balance is insufficient.
	Transfer(to string, amount uint64) error

	// BalanceOf returns the balance held by addr.
	BalanceOf(addr string) (uint64, error)
}

// MemPool is an in-memory Pool keeping real balances. The pool's own funds
// are tracked under its holder address.
type MemPool struct {
	mu       sync.Mutex
	token    string
	holder   string
	balances map[string]uint64
}

// NewMemPool creates a pool for the token address, with the pool-held funds
// accounted under holder.
func NewMemPool(token, holder string) (*MemPool, error) {
	if token == "" || holder == "" {
		return nil, ErrEmptyAddress
	}
	return &MemPool{
		token:    token,
		holder:   holder,
		balances: make(map[string]uint64),
	}, nil
}

// Address returns the managed token address.
func (p *MemPool) Address() string { return p.token }

// Fund credits the pool-held balance.
func (p *MemPool) Fund(amount uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balances[p.holder] > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	p.balances[p.holder] += amount
	return nil
}

// Transfer moves amount from the pool-held balance to the given address.
func (p *MemPool) Transfer(to string, amount uint64) error {
	if to == "" {
		return ErrEmptyAddress
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balances[p.holder] < amount {
		return fmt.Errorf("%w: pool holds %d, need %d", ErrTransferFailed, p.balances[p.holder], amount)
	}
	if p.balances[to] > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	p.balances[p.holder] -= amount
	p.balances[to] += amount
	return nil
}

// BalanceOf returns the balance held by addr.
func (p *MemPool) BalanceOf(addr string) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balances[addr], nil
}

// MockPool is a test double for Pool. All function fields used by a test
// must be set.
type MockPool struct {
	AddressFn   func() string
	TransferFn  func(to string, amount uint64) error
	BalanceOfFn func(addr string) (uint64, error)
}

func (m *MockPool) Address() string { return m.AddressFn() }
func (m *MockPool) Transfer(to string, amount uint64) error {
	return m.TransferFn(to, amount)
}
func (m *MockPool) BalanceOf(addr string) (uint64, error) {
	return m.BalanceOfFn(addr)
}
