// Package vault holds the in-memory safelist aggregate: one owner Account
// and an ordered list of favorite groups, each an ordered list of sites.
//
// Every mutation validates its input before touching the vault, so a failed
// call leaves the vault exactly as it was. Secrets never enter the vault in
// plaintext; they pass through a Hasher first.
//
// The package does no I/O. Persistence lives in the storage package.
package vault
