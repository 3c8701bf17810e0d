// Package storage persists a safelist vault.
//
// Two backends implement Backend:
//   - JSONFile: the default human-readable document (data.json). Saves go to
//     a temp file in the same directory that is renamed over the target.
//   - Bolt: a BBolt database with three buckets:
//   - config: format version, timestamps, vault ID
//   - account: username and password hash
//   - groups: one msgpack record per group, keyed by big-endian position
//
// Unreadable or malformed content is reported as ErrCorruptStore and is
// never replaced by an empty vault. Read and write failures are ErrIO.
package storage
