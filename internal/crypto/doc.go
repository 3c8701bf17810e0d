// Package crypto provides the symmetric primitives behind safelist backups.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key derived from the backup passphrase via PBKDF2
//   - 12-byte random nonce per sealed payload
//   - caller-supplied additional data, so a payload cannot be moved under
//     a different header
//
// Key derivation uses PBKDF2-HMAC-SHA256 with a 32-byte random salt and
// 210,000 iterations (OWASP minimum recommendation).
//
// Account and site secrets are never encrypted with this package; they are
// one-way hashed by package auth.
package crypto
