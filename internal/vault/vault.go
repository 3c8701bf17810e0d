package vault

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"unicode/utf8"
)

var (
	ErrValidation      = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrDuplicateGroup  = errors.New("group already exists")
	ErrIndexOutOfRange = errors.New("site index out of range")
	ErrAccountExists   = errors.New("account already exists")
	ErrNoAccount       = errors.New("no account")
	ErrAuthFailed      = errors.New("invalid username or password")
)

// Hasher is the one-way transform applied to every stored secret
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, token string) (bool, error)
}

// Account is the owner's login record
type Account struct {
	Username     string
	PasswordHash string
}

// Exists reports whether the account has been created
func (a Account) Exists() bool {
	return a.Username != "" && a.PasswordHash != ""
}

// Site is one stored entry of a group.
// A nil Identifier or SecretHash means none was supplied.
type Site struct {
	URL        string
	Identifier *string
	SecretHash *string
}

// HasSecret reports whether a secret hash is stored for the site
func (s Site) HasSecret() bool {
	return s.SecretHash != nil
}

// Group is a named, ordered collection of sites
type Group struct {
	Name  string
	Sites []Site
}

// Vault is the full persisted state
type Vault struct {
	Account   Account
	Favorites []Group
}

// Listing is the display view of a site. It carries no secret material.
type Listing struct {
	Group      string
	Index      int
	URL        string
	Identifier *string
	HasSecret  bool
}

// New creates an empty vault with no account
func New() *Vault {
	return &Vault{Favorites: make([]Group, 0)}
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrValidation, field)
	}
	return requireUTF8(field, value)
}

// requireUTF8 rejects text that would not survive a JSON round trip
func requireUTF8(field, value string) error {
	if !utf8.ValidString(value) {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrValidation, field)
	}
	return nil
}

// CreateAccount sets the owner account. It refuses to replace an existing one.
func (v *Vault) CreateAccount(h Hasher, username, password string) error {
	if v.Account.Exists() {
		return ErrAccountExists
	}
	if err := requireText("username", username); err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("%w: password must not be empty", ErrValidation)
	}

	hash, err := h.Hash(password)
	if err != nil {
		return err
	}

	v.Account = Account{Username: username, PasswordHash: hash}
	return nil
}

// Authenticate reports whether username and password match the account.
// A missing account or any mismatch is false; the error is set only when
// the stored hash itself is unusable.
func (v *Vault) Authenticate(h Hasher, username, password string) (bool, error) {
	if !v.Account.Exists() {
		return false, nil
	}
	ok, err := h.Verify(password, v.Account.PasswordHash)
	if err != nil {
		return false, err
	}
	return ok && username == v.Account.Username, nil
}

// ChangePassword replaces the account password after authenticating with
// the current one
func (v *Vault) ChangePassword(h Hasher, username, current, next string) error {
	if !v.Account.Exists() {
		return ErrNoAccount
	}
	if next == "" {
		return fmt.Errorf("%w: password must not be empty", ErrValidation)
	}
	ok, err := v.Authenticate(h, username, current)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAuthFailed
	}

	hash, err := h.Hash(next)
	if err != nil {
		return err
	}
	v.Account.PasswordHash = hash
	return nil
}

// FindGroup finds a group by exact name
func (v *Vault) FindGroup(name string) *Group {
	for i := range v.Favorites {
		if v.Favorites[i].Name == name {
			return &v.Favorites[i]
		}
	}
	return nil
}

// GroupNames returns group names in stored order
func (v *Vault) GroupNames() []string {
	names := make([]string, len(v.Favorites))
	for i, g := range v.Favorites {
		names[i] = g.Name
	}
	return names
}

// AddGroup appends an empty group
func (v *Vault) AddGroup(name string) error {
	if err := requireText("group name", name); err != nil {
		return err
	}
	if v.FindGroup(name) != nil {
		return fmt.Errorf("%w: %q", ErrDuplicateGroup, name)
	}
	v.Favorites = append(v.Favorites, Group{Name: name, Sites: make([]Site, 0)})
	return nil
}

// RemoveGroup removes a group and all of its sites
func (v *Vault) RemoveGroup(name string) error {
	for i, g := range v.Favorites {
		if g.Name == name {
			v.Favorites = slices.Delete(v.Favorites, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("group %q: %w", name, ErrNotFound)
}

// AddSite appends a site to a group. A non-nil secret is stored only as
// its hash.
func (v *Vault) AddSite(h Hasher, group, url string, identifier, secret *string) error {
	g := v.FindGroup(group)
	if g == nil {
		return fmt.Errorf("group %q: %w", group, ErrNotFound)
	}
	if err := requireText("url", url); err != nil {
		return err
	}

	site := Site{URL: url}
	if identifier != nil {
		if err := requireUTF8("identifier", *identifier); err != nil {
			return err
		}
		id := *identifier
		site.Identifier = &id
	}
	if secret != nil {
		hash, err := h.Hash(*secret)
		if err != nil {
			return err
		}
		site.SecretHash = &hash
	}

	g.Sites = append(g.Sites, site)
	return nil
}

// Site returns the site at index within a group
func (v *Vault) Site(group string, index int) (Site, error) {
	g := v.FindGroup(group)
	if g == nil {
		return Site{}, fmt.Errorf("group %q: %w", group, ErrNotFound)
	}
	if index < 0 || index >= len(g.Sites) {
		return Site{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(g.Sites))
	}
	return g.Sites[index], nil
}

// RemoveSite removes the site at index and returns it
func (v *Vault) RemoveSite(group string, index int) (Site, error) {
	site, err := v.Site(group, index)
	if err != nil {
		return Site{}, err
	}
	g := v.FindGroup(group)
	g.Sites = slices.Delete(g.Sites, index, index+1)
	return site, nil
}

// VerifySiteSecret checks plaintext against the secret hash of a site.
// A site without a secret never matches.
func (v *Vault) VerifySiteSecret(h Hasher, group string, index int, plaintext string) (bool, error) {
	site, err := v.Site(group, index)
	if err != nil {
		return false, err
	}
	if site.SecretHash == nil {
		return false, nil
	}
	return h.Verify(plaintext, *site.SecretHash)
}

func listing(group string, index int, s Site) Listing {
	return Listing{
		Group:      group,
		Index:      index,
		URL:        s.URL,
		Identifier: s.Identifier,
		HasSecret:  s.HasSecret(),
	}
}

// Sites iterates over every site of every group in stored order
func (v *Vault) Sites() iter.Seq[Listing] {
	return func(yield func(Listing) bool) {
		for _, g := range v.Favorites {
			for i, s := range g.Sites {
				if !yield(listing(g.Name, i, s)) {
					return
				}
			}
		}
	}
}

// GroupSites iterates over the sites of one group
func (v *Vault) GroupSites(name string) (iter.Seq[Listing], error) {
	if v.FindGroup(name) == nil {
		return nil, fmt.Errorf("group %q: %w", name, ErrNotFound)
	}
	return func(yield func(Listing) bool) {
		g := v.FindGroup(name)
		if g == nil {
			return
		}
		for i, s := range g.Sites {
			if !yield(listing(g.Name, i, s)) {
				return
			}
		}
	}, nil
}

// SiteCount returns the total number of sites
func (v *Vault) SiteCount() int {
	n := 0
	for _, g := range v.Favorites {
		n += len(g.Sites)
	}
	return n
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Clone returns a deep copy of the vault
func (v *Vault) Clone() *Vault {
	c := &Vault{
		Account:   v.Account,
		Favorites: make([]Group, len(v.Favorites)),
	}
	for i, g := range v.Favorites {
		sites := make([]Site, len(g.Sites))
		for j, s := range g.Sites {
			sites[j] = Site{
				URL:        s.URL,
				Identifier: cloneString(s.Identifier),
				SecretHash: cloneString(s.SecretHash),
			}
		}
		c.Favorites[i] = Group{Name: g.Name, Sites: sites}
	}
	return c
}

// Normalize replaces nil slices with empty ones so that decoded and
// freshly built vaults compare equal
func (v *Vault) Normalize() {
	if v.Favorites == nil {
		v.Favorites = make([]Group, 0)
	}
	for i := range v.Favorites {
		if v.Favorites[i].Sites == nil {
			v.Favorites[i].Sites = make([]Site, 0)
		}
	}
}
