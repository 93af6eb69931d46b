package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemPool_Transfer(t *testing.T) {
	p, err := NewMemPool("1Token", "1Ledger")
	require.NoError(t, err)
	require.NoError(t, p.Fund(1000))

	require.NoError(t, p.Transfer("1Alice", 400))

	held, err := p.BalanceOf("1Ledger")
	require.NoError(t, err)
	got, err := p.BalanceOf("1Alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(600), held)
	assert.Equal(t, uint64(400), got)
}

func TestMemPool_TransferInsufficient(t *testing.T) {
	p, err := NewMemPool("1Token", "1Ledger")
	require.NoError(t, err)
	require.NoError(t, p.Fund(100))

	err = p.Transfer("1Alice", 101)
	assert.ErrorIs(t, err, ErrTransferFailed)

	// Nothing moved.
	held, _ := p.BalanceOf("1Ledger")
	got, _ := p.BalanceOf("1Alice")
	assert.Equal(t, uint64(100), held)
	assert.Equal(t, uint64(0), got)
}

func TestMemPool_Invalid(t *testing.T) {
	_, err := NewMemPool("", "1Ledger")
	assert.ErrorIs(t, err, ErrEmptyAddress)

	_, err = NewMemPool("1Token", "")
	assert.ErrorIs(t, err, ErrEmptyAddress)

	p, err := NewMemPool("1Token", "1Ledger")
	require.NoError(t, err)
	assert.ErrorIs(t, p.Transfer("", 1), ErrEmptyAddress)
}

func TestMemPool_Address(t *testing.T) {
	p, err := NewMemPool("1Token", "1Ledger")
	require.NoError(t, err)
	assert.Equal(t, "1Token", p.Address())
}
