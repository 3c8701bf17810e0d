package vault

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/illarion/safelist/internal/auth"
)

func testHasher(t *testing.T) *auth.Authenticator {
	t.Helper()
	a, err := auth.New(bcrypt.MinCost)
	require.NoError(t, err)
	return a
}

func strPtr(s string) *string { return &s }

// failingHasher refuses to hash anything
type failingHasher struct{}

var errHashFailed = errors.New("hash failed")

func (failingHasher) Hash(string) (string, error) { return "", errHashFailed }
func (failingHasher) Verify(string, string) (bool, error) { return false, nil }

func TestCreateAccountAndAuthenticate(t *testing.T) {
	h := testHasher(t)
	v := New()

	ok, err := v.Authenticate(h, "alice", "S3cret!")
	require.NoError(t, err)
	assert.False(t, ok, "no account yet")

	require.NoError(t, v.CreateAccount(h, "alice", "S3cret!"))
	assert.True(t, v.Account.Exists())
	assert.NotEqual(t, "S3cret!", v.Account.PasswordHash)

	ok, err = v.Authenticate(h, "alice", "S3cret!")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Authenticate(h, "alice", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = v.Authenticate(h, "bob", "S3cret!")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = v.Authenticate(h, "Alice", "S3cret!")
	require.NoError(t, err)
	assert.False(t, ok, "username match is exact")
}

func TestCreateAccountRejectsExisting(t *testing.T) {
	h := testHasher(t)
	v := New()
	require.NoError(t, v.CreateAccount(h, "alice", "pw1"))
	before := v.Clone()

	err := v.CreateAccount(h, "mallory", "pw2")
	assert.ErrorIs(t, err, ErrAccountExists)
	assert.Equal(t, before, v)
}

func TestCreateAccountValidation(t *testing.T) {
	h := testHasher(t)
	v := New()

	assert.ErrorIs(t, v.CreateAccount(h, "", "pw"), ErrValidation)
	assert.ErrorIs(t, v.CreateAccount(h, "   ", "pw"), ErrValidation)
	assert.ErrorIs(t, v.CreateAccount(h, "alice", ""), ErrValidation)
	assert.ErrorIs(t, v.CreateAccount(failingHasher{}, "alice", "pw"), errHashFailed)
	assert.False(t, v.Account.Exists())
}

func TestAuthenticateCorruptHash(t *testing.T) {
	h := testHasher(t)
	v := New()
	v.Account = Account{Username: "alice", PasswordHash: "not-a-token"}

	ok, err := v.Authenticate(h, "alice", "pw")
	assert.False(t, ok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	h := testHasher(t)
	v := New()
	assert.ErrorIs(t, v.ChangePassword(h, "alice", "pw1", "pw2"), ErrNoAccount)

	require.NoError(t, v.CreateAccount(h, "alice", "pw1"))
	before := v.Clone()

	assert.ErrorIs(t, v.ChangePassword(h, "alice", "nope", "pw2"), ErrAuthFailed)
	assert.ErrorIs(t, v.ChangePassword(h, "alice", "pw1", ""), ErrValidation)
	assert.Equal(t, before, v)

	require.NoError(t, v.ChangePassword(h, "alice", "pw1", "pw2"))
	ok, err := v.Authenticate(h, "alice", "pw2")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = v.Authenticate(h, "alice", "pw1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddGroupDuplicate(t *testing.T) {
	v := New()
	require.NoError(t, v.AddGroup("work"))
	before := v.Clone()

	err := v.AddGroup("work")
	assert.ErrorIs(t, err, ErrDuplicateGroup)
	assert.Equal(t, before, v)

	// case-sensitive names
	require.NoError(t, v.AddGroup("Work"))
	assert.Equal(t, []string{"work", "Work"}, v.GroupNames())

	assert.ErrorIs(t, v.AddGroup(""), ErrValidation)
}

func TestRemoveGroup(t *testing.T) {
	v := New()
	require.NoError(t, v.AddGroup("a"))
	require.NoError(t, v.AddGroup("b"))
	require.NoError(t, v.AddGroup("c"))

	require.NoError(t, v.RemoveGroup("b"))
	assert.Equal(t, []string{"a", "c"}, v.GroupNames())

	assert.ErrorIs(t, v.RemoveGroup("b"), ErrNotFound)
}

func TestAddSite(t *testing.T) {
	h := testHasher(t)
	v := New()

	err := v.AddSite(h, "missing", "example.com", nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, v.AddGroup("email"))
	before := v.Clone()
	assert.ErrorIs(t, v.AddSite(h, "email", "", nil, nil), ErrValidation)
	assert.ErrorIs(t, v.AddSite(failingHasher{}, "email", "x.com", nil, strPtr("pw")), errHashFailed)
	assert.Equal(t, before, v)

	require.NoError(t, v.AddSite(h, "email", "mail.example.com", strPtr("alice@x.com"), strPtr("pw2")))
	require.NoError(t, v.AddSite(h, "email", "bare.example.com", nil, nil))
	require.NoError(t, v.AddSite(h, "email", "blank.example.com", strPtr(""), nil))

	g := v.FindGroup("email")
	require.NotNil(t, g)
	require.Len(t, g.Sites, 3)

	first := g.Sites[0]
	assert.Equal(t, "alice@x.com", *first.Identifier)
	require.NotNil(t, first.SecretHash)
	assert.NotEqual(t, "pw2", *first.SecretHash)

	ok, err := v.VerifySiteSecret(h, "email", 0, "pw2")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Nil(t, g.Sites[1].Identifier)
	assert.Nil(t, g.Sites[1].SecretHash)
	ok, err = v.VerifySiteSecret(h, "email", 1, "")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NotNil(t, g.Sites[2].Identifier, "empty identifier is distinct from none")
	assert.Equal(t, "", *g.Sites[2].Identifier)
}

func TestAddSiteCopiesIdentifier(t *testing.T) {
	h := testHasher(t)
	v := New()
	require.NoError(t, v.AddGroup("g"))

	id := "alice"
	require.NoError(t, v.AddSite(h, "g", "x.com", &id, nil))
	id = "changed"

	site, err := v.Site("g", 0)
	require.NoError(t, err)
	assert.Equal(t, "alice", *site.Identifier)
}

func TestRemoveSiteBounds(t *testing.T) {
	h := testHasher(t)
	v := New()
	require.NoError(t, v.AddGroup("g"))
	for _, url := range []string{"a.com", "b.com", "c.com"} {
		require.NoError(t, v.AddSite(h, "g", url, nil, nil))
	}
	n := len(v.FindGroup("g").Sites)
	before := v.Clone()

	_, err := v.RemoveSite("g", n)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = v.RemoveSite("g", -1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = v.RemoveSite("missing", 0)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, v)

	removed, err := v.RemoveSite("g", n-1)
	require.NoError(t, err)
	assert.Equal(t, "c.com", removed.URL)
	assert.Len(t, v.FindGroup("g").Sites, n-1)

	removed, err = v.RemoveSite("g", 0)
	require.NoError(t, err)
	assert.Equal(t, "a.com", removed.URL)
	assert.Equal(t, "b.com", v.FindGroup("g").Sites[0].URL)
}

func TestSitesIteration(t *testing.T) {
	h := testHasher(t)
	v := New()
	require.NoError(t, v.AddGroup("email"))
	require.NoError(t, v.AddGroup("empty"))
	require.NoError(t, v.AddGroup("work"))
	require.NoError(t, v.AddSite(h, "email", "mail.example.com", strPtr("alice"), strPtr("pw")))
	require.NoError(t, v.AddSite(h, "work", "git.example.com", nil, nil))
	require.NoError(t, v.AddSite(h, "work", "ci.example.com", nil, nil))

	all := slices.Collect(v.Sites())
	require.Len(t, all, 3)
	assert.Equal(t, Listing{Group: "email", Index: 0, URL: "mail.example.com", Identifier: strPtr("alice"), HasSecret: true}, all[0])
	assert.Equal(t, "git.example.com", all[1].URL)
	assert.Equal(t, 1, all[2].Index)
	assert.False(t, all[2].HasSecret)

	// restartable
	assert.Equal(t, all, slices.Collect(v.Sites()))

	// early stop
	var first []Listing
	for l := range v.Sites() {
		first = append(first, l)
		break
	}
	assert.Len(t, first, 1)

	seq, err := v.GroupSites("work")
	require.NoError(t, err)
	work := slices.Collect(seq)
	require.Len(t, work, 2)
	assert.Equal(t, "work", work[0].Group)

	seq, err = v.GroupSites("empty")
	require.NoError(t, err)
	assert.Empty(t, slices.Collect(seq))

	_, err = v.GroupSites("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 3, v.SiteCount())
}

func TestCloneIsDeep(t *testing.T) {
	h := testHasher(t)
	v := New()
	require.NoError(t, v.AddGroup("g"))
	require.NoError(t, v.AddSite(h, "g", "a.com", strPtr("id"), nil))

	c := v.Clone()
	assert.Equal(t, v, c)

	*c.Favorites[0].Sites[0].Identifier = "other"
	c.Favorites[0].Name = "renamed"
	assert.Equal(t, "id", *v.Favorites[0].Sites[0].Identifier)
	assert.Equal(t, "g", v.Favorites[0].Name)
}

func TestNormalize(t *testing.T) {
	v := &Vault{Favorites: []Group{{Name: "g"}}}
	v.Normalize()
	assert.NotNil(t, v.Favorites[0].Sites)

	empty := &Vault{}
	empty.Normalize()
	assert.Equal(t, New(), empty)
}

func TestRejectsInvalidUTF8(t *testing.T) {
	h := testHasher(t)
	v := New()

	assert.ErrorIs(t, v.AddGroup("\xff"), ErrValidation)
	assert.ErrorIs(t, v.AddGroup("\xfe"), ErrValidation)
	assert.ErrorIs(t, v.CreateAccount(h, "al\xffice", "pw"), ErrValidation)

	require.NoError(t, v.AddGroup("g"))
	before := v.Clone()
	assert.ErrorIs(t, v.AddSite(h, "g", "bad\xff.com", nil, nil), ErrValidation)
	assert.ErrorIs(t, v.AddSite(h, "g", "ok.com", strPtr("\xc3"), nil), ErrValidation)
	assert.Equal(t, before, v)

	// multi-byte text is fine
	require.NoError(t, v.AddGroup("почта"))
	require.NoError(t, v.AddSite(h, "почта", "mail.例え.jp", strPtr("ålice"), nil))
}
