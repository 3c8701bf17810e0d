package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/illarion/safelist/internal/vault"
)

// Backend kinds
const (
	KindAuto = "auto"
	KindJSON = "json"
	KindBolt = "bolt"
)

const FilePermSecure = 0600 // File: owner rw only

var (
	ErrCorruptStore   = errors.New("corrupt store")
	ErrIO             = errors.New("store i/o failure")
	ErrLocked         = errors.New("store is locked by another process")
	ErrNotInitialized = errors.New("store not initialized")
	ErrUnknownBackend = errors.New("unknown backend")
)

// Backend loads and saves a whole vault
type Backend interface {
	// Path returns the durable file location
	Path() string
	// Exists reports whether a vault has been saved at Path
	Exists() (bool, error)
	// Load returns the stored vault, or an empty one when nothing is stored
	Load() (*vault.Vault, error)
	// Save replaces the stored vault
	Save(v *vault.Vault) error
	// ID returns a stable identifier for this vault
	ID() (string, error)
	// Modified returns the time of the last Save
	Modified() (time.Time, error)
}

// Compactor is implemented by backends that can reclaim unused space
type Compactor interface {
	Compact() error
}

// Open returns the backend of the given kind for path. KindAuto picks Bolt
// for .db and .bolt files and JSONFile otherwise.
func Open(path, kind string) (Backend, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrIO)
	}
	switch kind {
	case KindJSON:
		return NewJSONFile(path), nil
	case KindBolt:
		return NewBolt(path), nil
	case KindAuto, "":
		switch strings.ToLower(filepath.Ext(path)) {
		case ".db", ".bolt":
			return NewBolt(path), nil
		default:
			return NewJSONFile(path), nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptStore, fmt.Sprintf(format, args...))
}

// accountFromFields applies the both-or-neither rule to stored account fields
func accountFromFields(username, hash *string) (vault.Account, error) {
	switch {
	case username == nil && hash == nil:
		return vault.Account{}, nil
	case username == nil || hash == nil || *username == "" || *hash == "":
		return vault.Account{}, corrupt("account must have both username and password hash, or neither")
	default:
		return vault.Account{Username: *username, PasswordHash: *hash}, nil
	}
}

// Check reports ErrCorruptStore for a vault that could be saved but not
// loaded back unchanged
func Check(v *vault.Vault) error {
	if v.Account.Exists() != (v.Account.Username != "" || v.Account.PasswordHash != "") {
		return corrupt("account must have both username and password hash, or neither")
	}
	if !utf8.ValidString(v.Account.Username) {
		return corrupt("username is not valid UTF-8")
	}
	return checkGroups(v.Favorites)
}

// checkGroups validates groups on their way in or out of a backend
func checkGroups(groups []vault.Group) error {
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		if g.Name == "" {
			return corrupt("empty group name")
		}
		if !utf8.ValidString(g.Name) {
			return corrupt("group name %q is not valid UTF-8", g.Name)
		}
		if seen[g.Name] {
			return corrupt("duplicate group %q", g.Name)
		}
		seen[g.Name] = true
		for i, s := range g.Sites {
			if s.URL == "" {
				return corrupt("group %q site %d has no url", g.Name, i)
			}
			if !utf8.ValidString(s.URL) || (s.Identifier != nil && !utf8.ValidString(*s.Identifier)) {
				return corrupt("group %q site %d is not valid UTF-8", g.Name, i)
			}
		}
	}
	return nil
}
