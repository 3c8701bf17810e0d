// Package core provides the safelist vault store.
//
// A SafeList owns one loaded vault and the backend it came from. Every
// mutation is applied to a copy of the vault, persisted, and only then
// made current, so a failed operation leaves both memory and disk as they
// were.
//
// Core operations include:
//   - CreateAccount / Authenticate / ChangePassword: owner account lifecycle
//   - AddGroup / RemoveGroup: favorite groups
//   - AddSite / RemoveSite / VerifySiteSecret: sites inside a group
//   - Sites / GroupSites: lazy listings over a snapshot
//   - Diff: line diff between the live vault and another one (e.g. a backup)
package core
