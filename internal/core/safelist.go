package core

import (
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/illarion/safelist/internal/auth"
	"github.com/illarion/safelist/internal/storage"
	"github.com/illarion/safelist/internal/vault"
)

var (
	ErrNotInitialized     = errors.New("safelist not initialized")
	ErrAuthFailed         = vault.ErrAuthFailed
	ErrCompactUnsupported = errors.New("backend does not support compaction")
)

// SafeList manages one vault and its durable backend
type SafeList struct {
	mu      sync.Mutex
	backend storage.Backend
	auth    *auth.Authenticator
	log     *zap.Logger
	vault   *vault.Vault
}

// New creates a SafeList over backend. A nil logger disables logging.
func New(backend storage.Backend, a *auth.Authenticator, log *zap.Logger) *SafeList {
	if log == nil {
		log = zap.NewNop()
	}
	return &SafeList{
		backend: backend,
		auth:    a,
		log:     log.With(zap.String("path", backend.Path())),
	}
}

// Path returns the vault file location
func (s *SafeList) Path() string {
	return s.backend.Path()
}

// Exists reports whether a vault has been saved yet
func (s *SafeList) Exists() (bool, error) {
	return s.backend.Exists()
}

// Modified returns when the vault was last saved
func (s *SafeList) Modified() (time.Time, error) {
	return s.backend.Modified()
}

// ID returns the backend's stable vault identifier
func (s *SafeList) ID() (string, error) {
	return s.backend.ID()
}

// Load reads the vault from the backend, replacing whatever was loaded
// before, and returns a snapshot of it. A missing file gives an empty vault.
func (s *SafeList) Load() (*vault.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.backend.Load()
	if err != nil {
		s.log.Error("failed to load vault", zap.Error(err))
		return nil, err
	}
	s.vault = v
	s.log.Debug("vault loaded",
		zap.Int("groups", len(v.Favorites)),
		zap.Int("sites", v.SiteCount()))
	return v.Clone(), nil
}

// Save persists v as the whole vault and makes it current
func (s *SafeList) Save(v *vault.Vault) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := v.Clone()
	next.Normalize()
	if err := s.persist(next); err != nil {
		s.log.Error("failed to save vault", zap.Error(err))
		return err
	}
	s.vault = next
	s.log.Info("vault saved", zap.Int("groups", len(next.Favorites)))
	return nil
}

// Vault returns a snapshot of the current vault
func (s *SafeList) Vault() (*vault.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	return s.vault.Clone(), nil
}

func (s *SafeList) ensureLoaded() error {
	if s.vault != nil {
		return nil
	}
	v, err := s.backend.Load()
	if err != nil {
		s.log.Error("failed to load vault", zap.Error(err))
		return err
	}
	s.vault = v
	return nil
}

// mutate applies fn to a copy of the vault, saves the copy and swaps it in.
// The current vault is untouched when fn or the save fails.
func (s *SafeList) mutate(op string, fn func(v *vault.Vault) error) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}

	next := s.vault.Clone()
	if err := fn(next); err != nil {
		s.log.Debug("operation rejected", zap.String("op", op), zap.Error(err))
		return err
	}
	if err := s.persist(next); err != nil {
		s.log.Error("failed to save vault", zap.String("op", op), zap.Error(err))
		return err
	}
	s.vault = next
	return nil
}

// persist refuses a vault the backend could not load back, then saves it
func (s *SafeList) persist(v *vault.Vault) error {
	if err := storage.Check(v); err != nil {
		return fmt.Errorf("%w: %w", vault.ErrValidation, err)
	}
	return s.backend.Save(v)
}

func (s *SafeList) hasher() (vault.Hasher, error) {
	if err := s.auth.Available(); err != nil {
		s.log.Error("password hashing self-test failed", zap.Error(err))
		return nil, err
	}
	return s.auth, nil
}

// CreateAccount sets the owner account and saves the vault
func (s *SafeList) CreateAccount(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.hasher()
	if err != nil {
		return err
	}
	if err := s.mutate("create account", func(v *vault.Vault) error {
		return v.CreateAccount(h, username, password)
	}); err != nil {
		return err
	}
	s.log.Info("account created")
	return nil
}

// Authenticate reports whether username and password match the account.
// It is false when no account exists.
func (s *SafeList) Authenticate(username, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return false, err
	}
	ok, err := s.vault.Authenticate(s.auth, username, password)
	if err != nil {
		s.log.Error("stored password hash is unusable", zap.Error(err))
		return false, err
	}
	if !ok {
		s.log.Info("authentication failed")
		return false, nil
	}
	if s.auth.NeedsRehash(s.vault.Account.PasswordHash) {
		s.rehash(password)
	}
	return true, nil
}

// rehash re-hashes the account password at the configured cost. A failure
// keeps the old, still valid hash.
func (s *SafeList) rehash(password string) {
	err := s.mutate("rehash", func(v *vault.Vault) error {
		hash, err := s.auth.Hash(password)
		if err != nil {
			return err
		}
		v.Account.PasswordHash = hash
		return nil
	})
	if err != nil {
		s.log.Warn("failed to rehash account password", zap.Error(err))
		return
	}
	s.log.Info("account password rehashed", zap.Int("cost", s.auth.Cost()))
}

// Login is Authenticate with a mismatch reported as ErrAuthFailed, and
// ErrNotInitialized when no account has been created yet
func (s *SafeList) Login(username, password string) error {
	v, err := s.Vault()
	if err != nil {
		return err
	}
	if !v.Account.Exists() {
		return ErrNotInitialized
	}
	ok, err := s.Authenticate(username, password)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAuthFailed
	}
	return nil
}

// ChangePassword rehashes the account password after checking the current one
func (s *SafeList) ChangePassword(username, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.hasher()
	if err != nil {
		return err
	}
	if err := s.mutate("change password", func(v *vault.Vault) error {
		return v.ChangePassword(h, username, current, next)
	}); err != nil {
		return err
	}
	s.log.Info("account password changed")
	return nil
}

// AddGroup appends an empty favorite group
func (s *SafeList) AddGroup(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutate("add group", func(v *vault.Vault) error {
		return v.AddGroup(name)
	}); err != nil {
		return err
	}
	s.log.Info("group added", zap.String("group", name))
	return nil
}

// RemoveGroup deletes a group and all of its sites
func (s *SafeList) RemoveGroup(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutate("remove group", func(v *vault.Vault) error {
		return v.RemoveGroup(name)
	}); err != nil {
		return err
	}
	s.log.Info("group removed", zap.String("group", name))
	return nil
}

// AddSite appends a site to group. A non-nil secret is stored as a hash.
func (s *SafeList) AddSite(group, url string, identifier, secret *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var h vault.Hasher = s.auth
	if secret != nil {
		var err error
		if h, err = s.hasher(); err != nil {
			return err
		}
	}
	if err := s.mutate("add site", func(v *vault.Vault) error {
		return v.AddSite(h, group, url, identifier, secret)
	}); err != nil {
		return err
	}
	s.log.Info("site added",
		zap.String("group", group),
		zap.String("url", url),
		zap.Bool("secret", secret != nil))
	return nil
}

// RemoveSite deletes the site at index in group and returns it
func (s *SafeList) RemoveSite(group string, index int) (vault.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed vault.Site
	if err := s.mutate("remove site", func(v *vault.Vault) error {
		var err error
		removed, err = v.RemoveSite(group, index)
		return err
	}); err != nil {
		return vault.Site{}, err
	}
	s.log.Info("site removed", zap.String("group", group), zap.Int("index", index))
	return removed, nil
}

// VerifySiteSecret reports whether plaintext matches the stored secret of a site
func (s *SafeList) VerifySiteSecret(group string, index int, plaintext string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return false, err
	}
	return s.vault.VerifySiteSecret(s.auth, group, index, plaintext)
}

// Sites lists every site of every group over a snapshot of the vault
func (s *SafeList) Sites() (iter.Seq[vault.Listing], error) {
	v, err := s.Vault()
	if err != nil {
		return nil, err
	}
	return v.Sites(), nil
}

// GroupSites lists the sites of one group over a snapshot of the vault
func (s *SafeList) GroupSites(name string) (iter.Seq[vault.Listing], error) {
	v, err := s.Vault()
	if err != nil {
		return nil, err
	}
	return v.GroupSites(name)
}

// Diff returns a line diff from the live vault to other, or "" when their
// listings are identical
func (s *SafeList) Diff(other *vault.Vault, otherName string) (string, error) {
	v, err := s.Vault()
	if err != nil {
		return "", err
	}
	return DiffVaults(v, other, s.Path(), otherName), nil
}

// Compact reclaims unused space when the backend supports it
func (s *SafeList) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.backend.(storage.Compactor)
	if !ok {
		return ErrCompactUnsupported
	}
	exists, err := s.backend.Exists()
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotInitialized
	}
	if err := c.Compact(); err != nil {
		s.log.Error("compaction failed", zap.Error(err))
		return fmt.Errorf("compact %s: %w", s.Path(), err)
	}
	s.log.Info("vault compacted")
	return nil
}
