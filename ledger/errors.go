package ledger

import "errors"

var (
	// ErrNotSetup indicates an operation before Setup completed.
	ErrNotSetup = errors.New("ledger: not set up")

	// ErrAlreadySetup indicates a second Setup call.
	ErrAlreadySetup = errors.New("ledger: already set up")

	// ErrSetupLists indicates empty or mismatched setup name/share lists.
	ErrSetupLists = errors.New("ledger: setup lists must be non-empty and of equal length")

	// ErrPaused indicates a claim attempted while the ledger is paused.
	ErrPaused = errors.New("ledger: paused")

	// ErrAlreadySet indicates a pause-state update that would not change it.
	ErrAlreadySet = errors.New("ledger: value already set")

	// ErrManagedToken indicates a sweep targeting the ledger's own token.
	ErrManagedToken = errors.New("ledger: cannot sweep the managed token")

	// ErrTickRegression indicates the tick source moved backwards past the
	// last checkpoint. The ledger of record cannot un-accrue.
	ErrTickRegression = errors.New("ledger: tick source went backwards")

	// ErrScheduleStalled indicates a checkpoint would roll more periods
	// than MaxRolloverPeriods without saturating. This guards against a
	// misconfigured near-zero period length turning a checkpoint into
	// unbounded work.
	ErrScheduleStalled = errors.New("ledger: too many pending rate periods")

	// ErrNilCollaborator indicates a required collaborator was not provided.
	ErrNilCollaborator = errors.New("ledger: missing required collaborator")

	// ErrStateDiverged indicates a claim payout was transferred but the
	// updated state could not be persisted. The pool no longer matches the
	// ledger of record; the claimant's funds cannot be clawed back through
	// the pool contract, so this needs operator reconciliation before the
	// store is written again.
	ErrStateDiverged = errors.New("ledger: paid out but state not persisted")
)
