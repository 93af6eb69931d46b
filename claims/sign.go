package claims

import (
	"fmt"

	bsm "github.com/bsv-blockchain/go-sdk/compat/bsm"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
)

// Sign produces a compact, recoverable signature over the claim digest.
func Sign(priv *ec.PrivateKey, digest [32]byte) ([]byte, error) {
	if priv == nil {
		return nil, ErrNilKey
	}
	sig, err := bsm.SignMessage(priv, digest[:])
	if err != nil {
		return nil, fmt.Errorf("claims: sign digest: %w", err)
	}
	return sig, nil
}

// RecoverSigner recovers the public key that produced sig over digest and
// returns its principal address. A malformed or mismatched signature fails
// with ErrInvalidSignature; the caller decides whether the recovered
// principal is actually authorized.
func RecoverSigner(digest [32]byte, sig []byte) (string, error) {
	if len(sig) == 0 {
		return "", fmt.Errorf("%w: empty signature", ErrInvalidSignature)
	}
	pub, _, err := bsm.PubKeyFromSignature(sig, digest[:])
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return Address(pub)
}

// Address derives the canonical principal address for a public key. Every
// principal identity in the ledger (claimants, signers, role holders) is
// derived through this one function so addresses always compare equal for
// the same key.
func Address(pub *ec.PublicKey) (string, error) {
	if pub == nil {
		return "", ErrNilKey
	}
	addr, err := script.NewAddressFromPublicKey(pub, true)
	if err != nil {
		return "", fmt.Errorf("claims: address from public key: %w", err)
	}
	return addr.AddressString, nil
}
