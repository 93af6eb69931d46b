package signer

import "errors"

var (
	// ErrNilKey indicates a nil private key.
	ErrNilKey = errors.New("signer: nil private key")

	// ErrEmptyPassword indicates an empty encryption password.
	ErrEmptyPassword = errors.New("signer: password must not be empty")

	// ErrDecryptionFailed indicates the key could not be decrypted
	// (wrong password or corrupted data).
	ErrDecryptionFailed = errors.New("signer: decryption failed")

	// ErrChecksumMismatch indicates decryption produced a key that fails
	// its integrity checksum.
	ErrChecksumMismatch = errors.New("signer: key checksum mismatch")
)
