package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize     = 32     // Salt size in bytes
	KeySize      = 32     // AES-256 key size
	NonceSize    = 12     // GCM nonce size
	TagSize      = 16     // GCM authentication tag size
	DefaultIters = 210000 // Default PBKDF2 iterations
	MinIters     = 10000  // Lowest iteration count accepted from a stored header
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrAuthFailed        = errors.New("authentication failed")
	ErrWeakKDF           = errors.New("kdf parameters too weak")
)

// KDF derives keys from passphrases
type KDF struct {
	Salt       []byte
	Iterations int
}

// NewKDF creates a KDF with a random salt and the default iteration count
func NewKDF() (*KDF, error) {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return &KDF{Salt: salt, Iterations: DefaultIters}, nil
}

// Validate rejects parameters read from untrusted input
func (k *KDF) Validate() error {
	if len(k.Salt) != SaltSize {
		return fmt.Errorf("%w: salt is %d bytes, want %d", ErrWeakKDF, len(k.Salt), SaltSize)
	}
	if k.Iterations < MinIters {
		return fmt.Errorf("%w: %d iterations", ErrWeakKDF, k.Iterations)
	}
	return nil
}

// DeriveKey derives an AES-256 key from a passphrase
func (k *KDF) DeriveKey(passphrase []byte) []byte {
	return pbkdf2.Key(passphrase, k.Salt, k.Iterations, KeySize, sha256.New)
}

// Sealer provides authenticated encryption under one key
type Sealer struct {
	key []byte
}

// NewSealer creates a sealer that owns key. Destroy clears it.
func NewSealer(key []byte) *Sealer {
	return &Sealer{key: key}
}

func (s *Sealer) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Seal encrypts plaintext and returns nonce || ciphertext.
// ad is authenticated but not encrypted.
func (s *Sealer) Seal(plaintext, ad []byte) ([]byte, error) {
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}

	nonce, err := GenerateRandom(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, ad), nil
}

// Open reverses Seal. Any tampering with the payload or ad gives ErrAuthFailed.
func (s *Sealer) Open(sealed, ad []byte) ([]byte, error) {
	if len(sealed) < NonceSize+TagSize {
		return nil, ErrInvalidCiphertext
	}

	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, sealed[:NonceSize], sealed[NonceSize:], ad)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// Destroy clears the sealer's key from memory
func (s *Sealer) Destroy() {
	ClearBytes(s.key)
}

// ClearBytes zeroes a byte slice
func ClearBytes(b []byte) {
	clear(b)
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
