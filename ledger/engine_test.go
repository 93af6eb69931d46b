package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vestryorg/libvestry-go/claims"
	"github.com/vestryorg/libvestry-go/pool"
	"github.com/vestryorg/libvestry-go/roles"
)

const (
	adminAddr    = "admin-principal"
	tokenAddr    = "vestry-token"
	instanceAddr = "vestry-instance"
)

func testDomain() claims.Domain {
	return claims.Domain{Name: "vestry", Version: "1", ChainID: 1, Instance: instanceAddr}
}

func testParams() ScheduleParams {
	return ScheduleParams{
		InitialRatePerPeriod: 100000,
		FinalRatePerPeriod:   200000,
		ChangeBasisPoints:    500,
		PeriodLengthTicks:    1200,
		TicksPerPeriod:       1200,
	}
}

type testLedger struct {
	engine *Engine
	ticker *ManualTicker
	pool   *pool.MemPool
	table  *roles.Table
	events *RecordingSink
}

func newTestLedger(t *testing.T, store Store) *testLedger {
	t.Helper()

	ticker := NewManualTicker(0)
	mem, err := pool.NewMemPool(tokenAddr, instanceAddr)
	require.NoError(t, err)
	require.NoError(t, mem.Fund(10_000_000))
	table, err := roles.NewTable(adminAddr)
	require.NoError(t, err)
	events := &RecordingSink{}

	eng, err := New(Options{
		Store:  store,
		Ticks:  ticker,
		Pool:   mem,
		Roles:  table,
		Events: events,
		Domain: testDomain(),
		Params: testParams(),
	})
	require.NoError(t, err)

	return &testLedger{engine: eng, ticker: ticker, pool: mem, table: table, events: events}
}

func (tl *testLedger) setup(t *testing.T, names []string, shares []uint64) {
	t.Helper()
	_, err := tl.engine.Setup(&SetupOpts{Principal: adminAddr, Names: names, Shares: shares})
	require.NoError(t, err)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	base := func() Options {
		table, _ := roles.NewTable(adminAddr)
		mem, _ := pool.NewMemPool(tokenAddr, instanceAddr)
		return Options{
			Store:  NewMemStore(),
			Ticks:  NewManualTicker(0),
			Pool:   mem,
			Roles:  table,
			Domain: testDomain(),
			Params: testParams(),
		}
	}

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"nil store", func(o *Options) { o.Store = nil }},
		{"nil ticks", func(o *Options) { o.Ticks = nil }},
		{"nil pool", func(o *Options) { o.Pool = nil }},
		{"nil roles", func(o *Options) { o.Roles = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base()
			tt.mutate(&opts)
			_, err := New(opts)
			require.ErrorIs(t, err, ErrNilCollaborator)
		})
	}

	t.Run("incomplete domain", func(t *testing.T) {
		opts := base()
		opts.Domain.Instance = ""
		_, err := New(opts)
		require.ErrorIs(t, err, claims.ErrIncompleteDomain)
	})
}

func TestSetup(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())

	require.False(t, tl.engine.Ready())
	tl.setup(t, []string{"alice", "bob"}, []uint64{9000, 1000})

	assert.True(t, tl.engine.Ready())
	assert.Equal(t, 2, tl.engine.TotalReceivers())

	frac, err := tl.engine.ReceiverShare(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(900_000_000_000), frac)

	events := tl.events.Events()
	require.Len(t, events, 3)
	assert.Equal(t, EventSetup, events[0].Type)
	assert.Equal(t, EventReceiverAdded, events[1].Type)
}

func TestSetup_Guards(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())

	_, err := tl.engine.Setup(&SetupOpts{Principal: "stranger", Names: []string{"a"}, Shares: []uint64{1}})
	require.ErrorIs(t, err, roles.ErrUnauthorized)

	_, err = tl.engine.Setup(&SetupOpts{Principal: adminAddr, Names: []string{"a", "b"}, Shares: []uint64{1}})
	require.ErrorIs(t, err, ErrSetupLists)

	_, err = tl.engine.Setup(&SetupOpts{Principal: adminAddr})
	require.ErrorIs(t, err, ErrSetupLists)

	tl.setup(t, []string{"alice"}, []uint64{100})
	_, err = tl.engine.Setup(&SetupOpts{Principal: adminAddr, Names: []string{"b"}, Shares: []uint64{1}})
	require.ErrorIs(t, err, ErrAlreadySetup)
}

func TestOperationsBeforeSetup(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())

	_, err := tl.engine.PendingAccrual(1)
	require.ErrorIs(t, err, ErrNotSetup)
	_, err = tl.engine.ReceiverShare(1)
	require.ErrorIs(t, err, ErrNotSetup)
	_, err = tl.engine.RemoveReceiver(adminAddr, 1)
	require.ErrorIs(t, err, ErrNotSetup)
	_, err = tl.engine.Pause(adminAddr)
	require.ErrorIs(t, err, ErrNotSetup)
}

func TestPendingAccrual(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())
	tl.setup(t, []string{"alice"}, []uint64{100})

	tl.ticker.Advance(600)

	// 100000/1200 floors to 83 per tick; a read must not move the ledger
	// of record, so asking twice gives the same answer.
	for i := 0; i < 2; i++ {
		pending, err := tl.engine.PendingAccrual(1)
		require.NoError(t, err)
		assert.Equal(t, uint64(83*600), pending)
	}

	elapsed, err := tl.engine.TicksSinceCheckpoint()
	require.NoError(t, err)
	assert.Equal(t, uint64(600), elapsed)
}

func TestAddReceivers_JoinAfterCheckpoint(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())
	tl.setup(t, []string{"alice"}, []uint64{100})

	tl.ticker.Advance(600)
	res, err := tl.engine.AddReceivers(&AddReceiversOpts{
		Principal: adminAddr, Names: []string{"bob"}, Shares: []uint64{100},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.ReceiverID)

	// Alice keeps everything emitted before bob joined.
	alicePending, err := tl.engine.PendingAccrual(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(83*600), alicePending)
	bobPending, err := tl.engine.PendingAccrual(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), bobPending)

	// From here emission splits evenly.
	tl.ticker.Advance(100)
	bobPending, err = tl.engine.PendingAccrual(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(83*100/2), bobPending)
}

func TestRemoveReceiver_Forfeits(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())
	tl.setup(t, []string{"alice", "bob"}, []uint64{50, 50})

	tl.ticker.Advance(100)
	res, err := tl.engine.RemoveReceiver(adminAddr, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(83*100/2), res.Forfeited)
	assert.Equal(t, 1, tl.engine.TotalReceivers())

	// The retired id stays retired; a replacement gets a fresh one.
	res, err = tl.engine.AddReceivers(&AddReceiversOpts{
		Principal: adminAddr, Names: []string{"carol"}, Shares: []uint64{50},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.ReceiverID)
}

func TestUpdateShare(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())
	tl.setup(t, []string{"alice", "bob"}, []uint64{50, 50})

	tl.ticker.Advance(100)
	_, err := tl.engine.UpdateShare(adminAddr, 1, 150)
	require.NoError(t, err)

	// Accrual up to the change happened at the old 50/100 split.
	pending, err := tl.engine.PendingAccrual(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(83*100/2), pending)

	frac, err := tl.engine.ReceiverShare(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(750_000_000_000), frac)
}

func TestShrinkReceiver_ConservesOthers(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())
	tl.setup(t, []string{"alice", "bob"}, []uint64{60, 40})

	bobBefore, err := tl.engine.ReceiverShare(2)
	require.NoError(t, err)

	res, err := tl.engine.ShrinkReceiver(adminAddr, 1, "carol", 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.NewReceiverID)

	bobAfter, err := tl.engine.ReceiverShare(2)
	require.NoError(t, err)
	assert.Equal(t, bobBefore, bobAfter)

	aliceFrac, err := tl.engine.ReceiverShare(1)
	require.NoError(t, err)
	carolFrac, err := tl.engine.ReceiverShare(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(400_000_000_000), aliceFrac)
	assert.Equal(t, uint64(200_000_000_000), carolFrac)
}

func TestScheduleUpdates(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())
	tl.setup(t, []string{"alice"}, []uint64{100})

	_, err := tl.engine.UpdateFinalRate(adminAddr, 300000)
	require.NoError(t, err)
	_, err = tl.engine.UpdateFinalRate(adminAddr, 300000)
	require.Error(t, err)

	_, err = tl.engine.UpdateChangePercent(adminAddr, -250)
	require.NoError(t, err)
	_, err = tl.engine.UpdateChangePercent(adminAddr, 20000)
	require.Error(t, err)

	_, err = tl.engine.UpdateChangePeriodLength(adminAddr, 600)
	require.NoError(t, err)

	_, err = tl.engine.UpdateTicksPerPeriod(adminAddr, 100)
	require.NoError(t, err)

	// Re-deriving the per-tick rate from the new divisor takes effect for
	// future ticks: 100000/100 = 1000.
	tl.ticker.Advance(10)
	pending, err := tl.engine.PendingAccrual(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000*10), pending)

	_, err = tl.engine.UpdateFinalRate("stranger", 1)
	require.ErrorIs(t, err, roles.ErrUnauthorized)
}

func TestPauseUnpause(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())
	tl.setup(t, []string{"alice"}, []uint64{100})

	_, err := tl.engine.Pause(adminAddr)
	require.NoError(t, err)
	assert.True(t, tl.engine.IsPaused())

	_, err = tl.engine.Pause(adminAddr)
	require.ErrorIs(t, err, ErrAlreadySet)

	// Accrual keeps running while paused.
	tl.ticker.Advance(10)
	pending, err := tl.engine.PendingAccrual(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(83*10), pending)

	_, err = tl.engine.Unpause(adminAddr)
	require.NoError(t, err)
	assert.False(t, tl.engine.IsPaused())

	_, err = tl.engine.Unpause("stranger")
	require.ErrorIs(t, err, roles.ErrUnauthorized)
}

func TestTickRegression(t *testing.T) {
	tl := newTestLedger(t, NewMemStore())
	tl.setup(t, []string{"alice"}, []uint64{100})

	tl.ticker.Advance(100)
	_, err := tl.engine.PendingAccrual(1)
	require.NoError(t, err)

	_, err = tl.engine.UpdateShare(adminAddr, 1, 200)
	require.NoError(t, err)

	tl.ticker.Set(50)
	_, err = tl.engine.PendingAccrual(1)
	require.ErrorIs(t, err, ErrTickRegression)
	_, err = tl.engine.TicksSinceCheckpoint()
	require.ErrorIs(t, err, ErrTickRegression)
}

func TestEngine_RestartFromBoltStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	store, err := OpenBoltStore(dbPath)
	require.NoError(t, err)

	tl := newTestLedger(t, store)
	tl.setup(t, []string{"alice", "bob"}, []uint64{9000, 1000})
	tl.ticker.Advance(600)
	_, err = tl.engine.UpdateShare(adminAddr, 2, 2000)
	require.NoError(t, err)
	require.NoError(t, tl.engine.Close())

	store, err = OpenBoltStore(dbPath)
	require.NoError(t, err)
	tl2 := newTestLedger(t, store)
	tl2.ticker.Set(600)
	defer func() { require.NoError(t, tl2.engine.Close()) }()

	assert.True(t, tl2.engine.Ready())
	assert.Equal(t, 2, tl2.engine.TotalReceivers())

	// Accrual up to tick 600 was checkpointed at the share update and must
	// survive the restart: 83*600 split 90/10.
	pending, err := tl2.engine.PendingAccrual(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(83*600*9/10), pending)

	// 2000 of 11000 total shares, scaled and floored.
	frac, err := tl2.engine.ReceiverShare(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(181_818_181_818), frac)
}
