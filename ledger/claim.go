package ledger

import (
	"fmt"
	"time"

	"github.com/vestryorg/libvestry-go/claims"
	"github.com/vestryorg/libvestry-go/pool"
	"github.com/vestryorg/libvestry-go/registry"
	"github.com/vestryorg/libvestry-go/roles"
)

// ClaimOpts holds the parameters of a claim operation. Signature must be a
// compact recoverable signature over the digest of the claim fields combined
// with the claimant's current nonce and this ledger's domain.
type ClaimOpts struct {
	Claimant   string
	ReceiverID uint64
	Amount     uint64
	Reference  uint64
	Signature  []byte
}

// Claim withdraws Amount from the receiver's accrued balance and pays it to
// the claimant through the payout pool.
//
// Order matters here. The pause gate and receiver existence are checked
// before anything else; only then does the checkpoint settle elapsed time,
// so a claim against a just-removed receiver can never trigger accrual. The
// signature is verified against the claimant's current nonce, which is
// consumed on success: replaying the same signature recovers a principal
// against a digest that no longer matches and fails authorization.
func (e *Engine) Claim(opts *ClaimOpts) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Ready {
		return nil, ErrNotSetup
	}
	if e.state.Paused {
		return nil, ErrPaused
	}
	if opts.Claimant == "" {
		return nil, claims.ErrEmptyClaimant
	}
	if _, err := e.state.Registry.Get(opts.ReceiverID); err != nil {
		return nil, err
	}

	st, _, err := e.beginMutation()
	if err != nil {
		return nil, err
	}

	r, err := st.Registry.Get(opts.ReceiverID)
	if err != nil {
		return nil, err
	}
	if opts.Amount == 0 || opts.Amount > r.Accrued {
		return nil, fmt.Errorf("%w: accrued %d, claim %d",
			registry.ErrInsufficientAccrued, r.Accrued, opts.Amount)
	}

	nonce := st.Nonces[opts.Claimant]
	digest := claims.Digest(e.domain, &claims.Claim{
		Claimant:   opts.Claimant,
		ReceiverID: opts.ReceiverID,
		Amount:     opts.Amount,
		Nonce:      nonce,
		Reference:  opts.Reference,
	})
	signer, err := claims.RecoverSigner(digest, opts.Signature)
	if err != nil {
		return nil, err
	}
	if !e.roles.HasRole(roles.Signer, signer) {
		return nil, fmt.Errorf("%w: recovered principal %q lacks role %q",
			claims.ErrInvalidSignature, signer, roles.Signer)
	}

	if err := e.payout.Transfer(opts.Claimant, opts.Amount); err != nil {
		return nil, fmt.Errorf("%w: %w", pool.ErrTransferFailed, err)
	}

	if err := st.Registry.Drain(opts.ReceiverID, opts.Amount); err != nil {
		return nil, err
	}
	st.Nonces[opts.Claimant] = nonce + 1

	if err := e.commit(st); err != nil {
		// The payout already moved and the pool contract has no way to
		// pull it back.
		return nil, fmt.Errorf("%w: %d to %q: %w", ErrStateDiverged, opts.Amount, opts.Claimant, err)
	}

	e.events.Emit(Event{
		Type:       EventClaimed,
		ReceiverID: opts.ReceiverID,
		Amount:     opts.Amount,
		Claimant:   opts.Claimant,
		Reference:  opts.Reference,
		Timestamp:  time.Now().Unix(),
	})
	return &Result{
		Message:    fmt.Sprintf("Claimed %d for receiver %d", opts.Amount, opts.ReceiverID),
		ReceiverID: opts.ReceiverID,
		Amount:     opts.Amount,
	}, nil
}

// VerifyClaim checks a claim signature against the claimant's current nonce
// without mutating anything. It returns the recovered signer principal.
func (e *Engine) VerifyClaim(opts *ClaimOpts) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Ready {
		return "", ErrNotSetup
	}
	digest := claims.Digest(e.domain, &claims.Claim{
		Claimant:   opts.Claimant,
		ReceiverID: opts.ReceiverID,
		Amount:     opts.Amount,
		Nonce:      e.state.Nonces[opts.Claimant],
		Reference:  opts.Reference,
	})
	signer, err := claims.RecoverSigner(digest, opts.Signature)
	if err != nil {
		return "", err
	}
	if !e.roles.HasRole(roles.Signer, signer) {
		return "", fmt.Errorf("%w: recovered principal %q lacks role %q",
			claims.ErrInvalidSignature, signer, roles.Signer)
	}
	return signer, nil
}
