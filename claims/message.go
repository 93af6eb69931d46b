// Package claims implements the signature-gated claim protocol.
//
// A claim is authorized by a compact, recoverable ECDSA signature over a
// canonical digest binding the claimant, the amount, the receiver, the
// claimant's current nonce, a caller-chosen reference number, and a domain
// separator identifying the ledger instance. Every field participates in the
// digest; dropping any of them reopens a replay vector. The nonce is what
// consumes a signature: after a successful claim the claimant's nonce moves
// forward and a byte-identical signature recovers against a digest that no
// longer matches.
package claims

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// Domain identifies one ledger instance. Two ledgers with different domains
// never accept each other's signatures.
type Domain struct {
	Name     string // ledger name, e.g. "vestry"
	Version  string // protocol version, e.g. "1"
	ChainID  uint64 // chain or deployment environment id
	Instance string // ledger instance address
}

// Validate checks that all domain fields are populated.
func (d Domain) Validate() error {
	if d.Name == "" || d.Version == "" || d.Instance == "" {
		return ErrIncompleteDomain
	}
	return nil
}

// Separator returns the 32-byte domain separator, the SHA3-256 hash of the
// canonically encoded domain fields.
func (d Domain) Separator() [32]byte {
	buf := appendString(nil, d.Name)
	buf = appendString(buf, d.Version)
	buf = binary.BigEndian.AppendUint64(buf, d.ChainID)
	buf = appendString(buf, d.Instance)
	return sha3.Sum256(buf)
}

// Claim holds the parameters of a single withdrawal request.
type Claim struct {
	Claimant   string // principal address receiving the funds
	ReceiverID uint64 // receiver whose accrued balance is drained
	Amount     uint64
	Nonce      uint64 // claimant's current nonce at signing time
	Reference  uint64 // caller-chosen reference number, echoed in the event
}

// Validate checks the claim's self-contained fields. Amount and nonce
// validity depend on ledger state and are checked there.
func (c *Claim) Validate() error {
	if c.Claimant == "" {
		return ErrEmptyClaimant
	}
	return nil
}

// Digest returns the canonical 32-byte message hash for the claim under the
// given domain: SHA3-256(separator || encoded claim).
func Digest(d Domain, c *Claim) [32]byte {
	sep := d.Separator()
	buf := make([]byte, 0, 32+4+len(c.Claimant)+4*8)
	buf = append(buf, sep[:]...)
	buf = appendString(buf, c.Claimant)
	buf = binary.BigEndian.AppendUint64(buf, c.ReceiverID)
	buf = binary.BigEndian.AppendUint64(buf, c.Amount)
	buf = binary.BigEndian.AppendUint64(buf, c.Nonce)
	buf = binary.BigEndian.AppendUint64(buf, c.Reference)
	return sha3.Sum256(buf)
}

// appendString appends a 4-byte big-endian length prefix followed by the
// string bytes, keeping the encoding unambiguous under concatenation.
func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}
