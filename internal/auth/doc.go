// Package auth turns plaintext secrets into one-way bcrypt tokens and
// verifies plaintexts against them.
//
// Tokens are the standard bcrypt modular crypt strings ($2a$, $2b$, ...):
//   - a fresh random salt is embedded in every token, so hashing the same
//     plaintext twice yields two different tokens
//   - the cost factor is embedded too, so tokens created at an older cost
//     keep verifying after the configured cost changes
//
// A routine mismatch is reported as false. Only a token that is not a
// bcrypt token at all yields ErrInvalidToken.
package auth
