// Package signer manages the authorized-signer key whose signatures gate
// claims. The key is a secp256k1 private key held encrypted at rest with
// Argon2id + AES-256-GCM.
package signer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"golang.org/x/crypto/argon2"

	"github.com/vestryorg/libvestry-go/claims"
)

const (
	// Argon2id parameters for key encryption.
	argon2Time        = 3
	argon2Memory      = 64 * 1024 // 64 MB
	argon2Parallelism = 4
	argon2KeyLen      = 32

	// Encryption format sizes.
	saltLen     = 16
	nonceLen    = 12
	checksumLen = 4

	// keyLen is the serialized secp256k1 scalar length.
	keyLen = 32
)

// Generate creates a new random signer key.
func Generate() (*ec.PrivateKey, error) {
	priv, err := ec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("signer: generate key: %w", err)
	}
	return priv, nil
}

// Address returns the signer's principal address, the identity that must be
// granted the signer role for its signatures to authorize claims.
func Address(priv *ec.PrivateKey) (string, error) {
	if priv == nil {
		return "", ErrNilKey
	}
	return claims.Address(priv.PubKey())
}

// keyBytes serializes the private scalar as 32 bytes, zero-padded big-endian.
func keyBytes(priv *ec.PrivateKey) []byte {
	b := priv.D.Bytes()
	if len(b) < keyLen {
		padded := make([]byte, keyLen)
		copy(padded[keyLen-len(b):], b)
		return padded
	}
	return b[:keyLen]
}

// Encrypt encrypts the signer key with Argon2id + AES-256-GCM.
//
// Output format: salt(16B) || nonce(12B) || AES-GCM(argon2id(password,salt), nonce, key||checksum)
//
// The checksum is SHA256(key)[:4] for verifying correct decryption.
func Encrypt(priv *ec.PrivateKey, password string) ([]byte, error) {
	if priv == nil {
		return nil, ErrNilKey
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("signer: generate salt: %w", err)
	}

	derivedKey := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Parallelism, argon2KeyLen)

	raw := keyBytes(priv)
	keyHash := sha256.Sum256(raw)

	plaintext := make([]byte, 0, keyLen+checksumLen)
	plaintext = append(plaintext, raw...)
	plaintext = append(plaintext, keyHash[:checksumLen]...)

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, fmt.Errorf("signer: AES cipher creation failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("signer: GCM creation failed: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("signer: generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	result := make([]byte, 0, saltLen+nonceLen+len(ciphertext))
	result = append(result, salt...)
	result = append(result, nonce...)
	result = append(result, ciphertext...)
	return result, nil
}

// Decrypt recovers the signer key from the Encrypt format, verifying the
// embedded checksum.
func Decrypt(encrypted []byte, password string) (*ec.PrivateKey, error) {
	if len(encrypted) < saltLen+nonceLen+checksumLen {
		return nil, ErrDecryptionFailed
	}

	salt := encrypted[:saltLen]
	nonce := encrypted[saltLen : saltLen+nonceLen]
	ciphertext := encrypted[saltLen+nonceLen:]

	derivedKey := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Parallelism, argon2KeyLen)

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	if len(plaintext) != keyLen+checksumLen {
		return nil, ErrDecryptionFailed
	}

	raw := plaintext[:keyLen]
	storedChecksum := plaintext[keyLen:]
	keyHash := sha256.Sum256(raw)
	for i := 0; i < checksumLen; i++ {
		if storedChecksum[i] != keyHash[i] {
			return nil, ErrChecksumMismatch
		}
	}

	priv, _ := ec.PrivateKeyFromBytes(raw)
	return priv, nil
}

// Save writes the encrypted signer key to path, creating the parent
// directory if needed.
func Save(path string, priv *ec.PrivateKey, password string) error {
	encrypted, err := Encrypt(priv, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("signer: create directory: %w", err)
	}
	if err := os.WriteFile(path, encrypted, 0600); err != nil {
		return fmt.Errorf("signer: write key file: %w", err)
	}
	return nil
}

// Load reads and decrypts the signer key from path.
func Load(path string, password string) (*ec.PrivateKey, error) {
	encrypted, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("signer: read key file: %w", err)
	}
	return Decrypt(encrypted, password)
}
