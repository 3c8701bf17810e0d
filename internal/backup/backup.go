// Package backup exports a vault to a passphrase-encrypted file and reads
// it back.
//
// Layout:
//
//	magic "SLBK" | version (1 byte) | PBKDF2 iterations (uint32 BE) | salt (32 bytes) | nonce || AES-256-GCM ciphertext
//
// Everything before the nonce is authenticated as associated data. The
// plaintext is the vault's JSON document.
package backup

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/illarion/safelist/internal/crypto"
	"github.com/illarion/safelist/internal/storage"
	"github.com/illarion/safelist/internal/vault"
)

const (
	Magic   = "SLBK"
	Version = 1

	headerSize = len(Magic) + 1 + 4 + crypto.SaltSize
)

var (
	ErrFormat          = errors.New("not a safelist backup")
	ErrVersion         = errors.New("unsupported backup version")
	ErrWrongPassphrase = errors.New("wrong passphrase or damaged backup")
)

// Seal encrypts v under passphrase
func Seal(v *vault.Vault, passphrase []byte) ([]byte, error) {
	kdf, err := crypto.NewKDF()
	if err != nil {
		return nil, err
	}
	return seal(v, passphrase, kdf)
}

func seal(v *vault.Vault, passphrase []byte, kdf *crypto.KDF) ([]byte, error) {
	plaintext, err := storage.EncodeJSON(v)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(plaintext)

	header := make([]byte, 0, headerSize)
	header = append(header, Magic...)
	header = append(header, Version)
	header = binary.BigEndian.AppendUint32(header, uint32(kdf.Iterations))
	header = append(header, kdf.Salt...)

	sealer := crypto.NewSealer(kdf.DeriveKey(passphrase))
	defer sealer.Destroy()

	sealed, err := sealer.Seal(plaintext, header)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt backup: %w", err)
	}
	return append(header, sealed...), nil
}

// Open decrypts a backup produced by Seal
func Open(data, passphrase []byte) (*vault.Vault, error) {
	if len(data) < headerSize || !bytes.HasPrefix(data, []byte(Magic)) {
		return nil, ErrFormat
	}
	header := data[:headerSize]
	if version := header[len(Magic)]; version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, version)
	}

	kdf := &crypto.KDF{
		Iterations: int(binary.BigEndian.Uint32(header[len(Magic)+1:])),
		Salt:       header[len(Magic)+5:],
	}
	if err := kdf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	sealer := crypto.NewSealer(kdf.DeriveKey(passphrase))
	defer sealer.Destroy()

	plaintext, err := sealer.Open(data[headerSize:], header)
	switch {
	case errors.Is(err, crypto.ErrInvalidCiphertext):
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	case err != nil:
		return nil, ErrWrongPassphrase
	}
	defer crypto.ClearBytes(plaintext)

	return storage.DecodeJSON(plaintext)
}

// Export writes an encrypted backup of v to path, owner-readable only
func Export(path string, v *vault.Vault, passphrase []byte) error {
	data, err := Seal(v, passphrase)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, storage.FilePermSecure); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrIO, err)
	}
	return nil
}

// Import reads and decrypts the backup at path
func Import(path string, passphrase []byte) (*vault.Vault, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrIO, err)
	}
	return Open(data, passphrase)
}
