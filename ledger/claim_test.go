package ledger

import (
	"errors"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vestryorg/libvestry-go/claims"
	"github.com/vestryorg/libvestry-go/pool"
	"github.com/vestryorg/libvestry-go/registry"
	"github.com/vestryorg/libvestry-go/roles"
)

// newSigner generates a key and grants its address the signer role.
func newSigner(t *testing.T, table *roles.Table) *ec.PrivateKey {
	t.Helper()

	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	addr, err := claims.Address(priv.PubKey())
	require.NoError(t, err)
	require.NoError(t, table.Grant(adminAddr, roles.Signer, addr))
	return priv
}

// signClaim signs the claim fields against the claimant's current nonce.
func signClaim(t *testing.T, tl *testLedger, priv *ec.PrivateKey, opts *ClaimOpts) {
	t.Helper()

	digest := claims.Digest(tl.engine.Domain(), &claims.Claim{
		Claimant:   opts.Claimant,
		ReceiverID: opts.ReceiverID,
		Amount:     opts.Amount,
		Nonce:      tl.engine.Nonce(opts.Claimant),
		Reference:  opts.Reference,
	})
	sig, err := claims.Sign(priv, digest)
	require.NoError(t, err)
	opts.Signature = sig
}

func TestClaim(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())
	tl.setup(t, []string{"alice"}, []uint64{100})
	priv := newSigner(t, tl.table)

	tl.ticker.Advance(600) // 83*600 = 49800 accrued

	opts := &ClaimOpts{Claimant: "alice-wallet", ReceiverID: 1, Amount: 40000, Reference: 7}
	signClaim(t, tl, priv, opts)

	res, err := tl.engine.Claim(opts)
	require.NoError(t, err)
	assert.Equal(t, uint64(40000), res.Amount)

	balance, err := tl.pool.BalanceOf("alice-wallet")
	require.NoError(t, err)
	assert.Equal(t, uint64(40000), balance)

	pending, err := tl.engine.PendingAccrual(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(9800), pending)

	assert.Equal(t, uint64(1), tl.engine.Nonce("alice-wallet"))

	events := tl.events.Events()
	last := events[len(events)-1]
	assert.Equal(t, EventClaimed, last.Type)
	assert.Equal(t, "alice-wallet", last.Claimant)
	assert.Equal(t, uint64(7), last.Reference)
	assert.NotZero(t, last.Timestamp)
}

func TestClaim_ReplayRejected(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())
	tl.setup(t, []string{"alice"}, []uint64{100})
	priv := newSigner(t, tl.table)

	tl.ticker.Advance(600)

	opts := &ClaimOpts{Claimant: "alice-wallet", ReceiverID: 1, Amount: 10000}
	signClaim(t, tl, priv, opts)

	_, err := tl.engine.Claim(opts)
	require.NoError(t, err)

	// The nonce moved, so the same signature now recovers against a digest
	// it never signed. Either recovery fails outright or it yields a
	// principal without the signer role; both surface as a bad signature.
	_, err = tl.engine.Claim(opts)
	require.ErrorIs(t, err, claims.ErrInvalidSignature)

	balance, err := tl.pool.BalanceOf("alice-wallet")
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), balance)
	assert.Equal(t, uint64(1), tl.engine.Nonce("alice-wallet"))
}

func TestClaim_UnauthorizedSigner(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())
	tl.setup(t, []string{"alice"}, []uint64{100})

	// A valid signature from a key that never got the signer role.
	rogue, err := ec.NewPrivateKey()
	require.NoError(t, err)

	tl.ticker.Advance(600)

	opts := &ClaimOpts{Claimant: "alice-wallet", ReceiverID: 1, Amount: 10000}
	signClaim(t, tl, rogue, opts)

	_, err = tl.engine.Claim(opts)
	require.ErrorIs(t, err, claims.ErrInvalidSignature)
}

func TestClaim_AmountBounds(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())
	tl.setup(t, []string{"alice"}, []uint64{100})
	priv := newSigner(t, tl.table)

	tl.ticker.Advance(600) // 49800 accrued

	for _, amount := range []uint64{0, 49801} {
		opts := &ClaimOpts{Claimant: "alice-wallet", ReceiverID: 1, Amount: amount}
		signClaim(t, tl, priv, opts)
		_, err := tl.engine.Claim(opts)
		require.ErrorIs(t, err, registry.ErrInsufficientAccrued, "amount %d", amount)
	}

	// Exactly the accrued balance drains it to zero.
	opts := &ClaimOpts{Claimant: "alice-wallet", ReceiverID: 1, Amount: 49800}
	signClaim(t, tl, priv, opts)
	_, err := tl.engine.Claim(opts)
	require.NoError(t, err)

	pending, err := tl.engine.PendingAccrual(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), pending)
}

func TestClaim_UnknownReceiver(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())
	tl.setup(t, []string{"alice"}, []uint64{100})
	priv := newSigner(t, tl.table)

	opts := &ClaimOpts{Claimant: "alice-wallet", ReceiverID: 99, Amount: 1}
	signClaim(t, tl, priv, opts)
	_, err := tl.engine.Claim(opts)
	require.ErrorIs(t, err, registry.ErrReceiverNotFound)
}

func TestClaim_PauseGate(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())
	tl.setup(t, []string{"alice"}, []uint64{100})
	priv := newSigner(t, tl.table)

	tl.ticker.Advance(600)
	_, err := tl.engine.Pause(adminAddr)
	require.NoError(t, err)

	opts := &ClaimOpts{Claimant: "alice-wallet", ReceiverID: 1, Amount: 10000}
	signClaim(t, tl, priv, opts)
	_, err = tl.engine.Claim(opts)
	require.ErrorIs(t, err, ErrPaused)

	// The gate consumed nothing; the same signature works after unpausing.
	_, err = tl.engine.Unpause(adminAddr)
	require.NoError(t, err)
	_, err = tl.engine.Claim(opts)
	require.NoError(t, err)
}

func TestClaim_TransferFailureLeavesStateUntouched(t *testing.T) {
	ticker := NewManualTicker(0)
	table, err := roles.NewTable(adminAddr)
	require.NoError(t, err)
	broken := &pool.MockPool{
		AddressFn:  func() string { return tokenAddr },
		TransferFn: func(string, uint64) error { return errors.New("rpc timeout") },
	}
	eng, err := New(Options{
		Store:  NewMemStore(),
		Ticks:  ticker,
		Pool:   broken,
		Roles:  table,
		Domain: testDomain(),
		Params: testParams(),
	})
	require.NoError(t, err)

	_, err = eng.Setup(&SetupOpts{Principal: adminAddr, Names: []string{"alice"}, Shares: []uint64{100}})
	require.NoError(t, err)

	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	addr, err := claims.Address(priv.PubKey())
	require.NoError(t, err)
	require.NoError(t, table.Grant(adminAddr, roles.Signer, addr))

	ticker.Advance(600)

	opts := &ClaimOpts{Claimant: "alice-wallet", ReceiverID: 1, Amount: 10000}
	digest := claims.Digest(eng.Domain(), &claims.Claim{
		Claimant: opts.Claimant, ReceiverID: 1, Amount: 10000, Nonce: 0,
	})
	opts.Signature, err = claims.Sign(priv, digest)
	require.NoError(t, err)

	_, err = eng.Claim(opts)
	require.ErrorIs(t, err, pool.ErrTransferFailed)

	// Nothing was drained or consumed.
	assert.Equal(t, uint64(0), eng.Nonce("alice-wallet"))
	pending, err := eng.PendingAccrual(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(83*600), pending)
}

// faultyStore persists normally until told to fail.
type faultyStore struct {
	Store
	fail bool
}

func (s *faultyStore) Save(st *State) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.Store.Save(st)
}

func TestClaim_PersistFailureReportsDivergence(t *testing.T) {
	store := &faultyStore{Store: NewMemStore()}
	ticker := NewManualTicker(0)
	mem, err := pool.NewMemPool(tokenAddr, instanceAddr)
	require.NoError(t, err)
	require.NoError(t, mem.Fund(1_000_000))
	table, err := roles.NewTable(adminAddr)
	require.NoError(t, err)

	eng, err := New(Options{
		Store:  store,
		Ticks:  ticker,
		Pool:   mem,
		Roles:  table,
		Domain: testDomain(),
		Params: testParams(),
	})
	require.NoError(t, err)
	_, err = eng.Setup(&SetupOpts{Principal: adminAddr, Names: []string{"alice"}, Shares: []uint64{100}})
	require.NoError(t, err)

	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	addr, err := claims.Address(priv.PubKey())
	require.NoError(t, err)
	require.NoError(t, table.Grant(adminAddr, roles.Signer, addr))

	ticker.Advance(600)
	store.fail = true

	opts := &ClaimOpts{Claimant: "alice-wallet", ReceiverID: 1, Amount: 10000}
	digest := claims.Digest(eng.Domain(), &claims.Claim{
		Claimant: opts.Claimant, ReceiverID: 1, Amount: 10000, Nonce: 0,
	})
	opts.Signature, err = claims.Sign(priv, digest)
	require.NoError(t, err)

	_, err = eng.Claim(opts)
	require.ErrorIs(t, err, ErrStateDiverged)

	// The payout moved but the ledger of record did not: the pool and the
	// state disagree, which is exactly what the error reports.
	balance, err := mem.BalanceOf("alice-wallet")
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), balance)
	assert.Equal(t, uint64(0), eng.Nonce("alice-wallet"))
	pending, err := eng.PendingAccrual(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(83*600), pending)
}

func TestVerifyClaim(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())
	tl.setup(t, []string{"alice"}, []uint64{100})
	priv := newSigner(t, tl.table)

	signerAddr, err := claims.Address(priv.PubKey())
	require.NoError(t, err)

	opts := &ClaimOpts{Claimant: "alice-wallet", ReceiverID: 1, Amount: 123}
	signClaim(t, tl, priv, opts)

	got, err := tl.engine.VerifyClaim(opts)
	require.NoError(t, err)
	assert.Equal(t, signerAddr, got)

	opts.Amount = 124 // any field change breaks the digest
	_, err = tl.engine.VerifyClaim(opts)
	require.ErrorIs(t, err, claims.ErrInvalidSignature)
}
