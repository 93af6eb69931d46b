package claims

import "errors"

var (
	// ErrInvalidSignature indicates the signature does not recover to a usable key.
	ErrInvalidSignature = errors.New("claims: invalid signature")

	// ErrEmptyClaimant indicates a claim without a claimant principal.
	ErrEmptyClaimant = errors.New("claims: claimant must not be empty")

	// ErrIncompleteDomain indicates a domain separator with missing fields.
	ErrIncompleteDomain = errors.New("claims: domain name, version and instance must all be set")

	// ErrNilKey indicates a nil key parameter.
	ErrNilKey = errors.New("claims: nil key")
)
