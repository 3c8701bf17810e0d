package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/safelist/internal/vault"
)

func strPtr(s string) *string { return &s }

// sampleVault builds a vault with fixed tokens so no hashing is needed
func sampleVault() *vault.Vault {
	v := vault.New()
	v.Account = vault.Account{Username: "alice", PasswordHash: "$2a$04$abcdefghijklmnopqrstuuNsK9wuYbp0dF6RhO6D8tM0Qh7OInHrm"}
	v.Favorites = []vault.Group{
		{Name: "work", Sites: []vault.Site{
			{URL: "git.example.com", Identifier: strPtr("alice"), SecretHash: strPtr("$2a$04$token")},
			{URL: "ci.example.com"},
		}},
		{Name: "empty", Sites: []vault.Site{}},
		{Name: "email", Sites: []vault.Site{
			{URL: "mail.example.com", Identifier: strPtr("")},
		}},
	}
	return v
}

func TestOpenPicksBackend(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		path, kind string
		want       any
	}{
		{"data.json", KindAuto, &JSONFile{}},
		{"vault.db", KindAuto, &Bolt{}},
		{"vault.BOLT", "", &Bolt{}},
		{"vault.db", KindJSON, &JSONFile{}},
		{"data.json", KindBolt, &Bolt{}},
	}
	for _, tc := range cases {
		b, err := Open(filepath.Join(dir, tc.path), tc.kind)
		require.NoError(t, err)
		assert.IsType(t, tc.want, b, "%s/%s", tc.path, tc.kind)
	}

	_, err := Open(filepath.Join(dir, "x"), "sqlite")
	assert.ErrorIs(t, err, ErrUnknownBackend)
	_, err = Open("", KindAuto)
	assert.ErrorIs(t, err, ErrIO)
}

func TestBackendsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	backends := []Backend{
		NewJSONFile(filepath.Join(dir, "data.json")),
		NewBolt(filepath.Join(dir, "data.db")),
	}

	for _, b := range backends {
		exists, err := b.Exists()
		require.NoError(t, err)
		assert.False(t, exists)

		empty, err := b.Load()
		require.NoError(t, err)
		assert.Equal(t, vault.New(), empty)

		want := sampleVault()
		require.NoError(t, b.Save(want))

		exists, err = b.Exists()
		require.NoError(t, err)
		assert.True(t, exists)

		got, err := b.Load()
		require.NoError(t, err)
		assert.Equal(t, want, got)

		// save(load()) is stable
		require.NoError(t, b.Save(got))
		again, err := b.Load()
		require.NoError(t, err)
		assert.Equal(t, want, again)

		// shrinking the vault drops removed groups
		require.NoError(t, b.Save(vault.New()))
		got, err = b.Load()
		require.NoError(t, err)
		assert.Equal(t, vault.New(), got)
	}
}

func TestBackendIDs(t *testing.T) {
	dir := t.TempDir()

	j := NewJSONFile(filepath.Join(dir, "data.json"))
	id1, err := j.ID()
	require.NoError(t, err)
	id2, err := NewJSONFile(filepath.Join(dir, ".", "data.json")).ID()
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	other, err := NewJSONFile(filepath.Join(dir, "other.json")).ID()
	require.NoError(t, err)
	assert.NotEqual(t, id1, other)

	b := NewBolt(filepath.Join(dir, "data.db"))
	_, err = b.ID()
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, b.Save(sampleVault()))
	boltID, err := b.ID()
	require.NoError(t, err)
	assert.NotEmpty(t, boltID)

	require.NoError(t, b.Save(vault.New()))
	again, err := b.ID()
	require.NoError(t, err)
	assert.Equal(t, boltID, again, "vault ID survives saves")
}

func TestCheck(t *testing.T) {
	require.NoError(t, Check(sampleVault()))
	require.NoError(t, Check(vault.New()))

	tests := []struct {
		name   string
		mutate func(v *vault.Vault)
	}{
		{"duplicate group", func(v *vault.Vault) { v.Favorites = append(v.Favorites, vault.Group{Name: "work"}) }},
		{"empty group name", func(v *vault.Vault) { v.Favorites[0].Name = "" }},
		{"invalid group name", func(v *vault.Vault) { v.Favorites[0].Name = "\xff" }},
		{"empty url", func(v *vault.Vault) { v.Favorites[0].Sites[0].URL = "" }},
		{"invalid url", func(v *vault.Vault) { v.Favorites[0].Sites[0].URL = "a\xfe" }},
		{"invalid identifier", func(v *vault.Vault) { v.Favorites[0].Sites[0].Identifier = strPtr("\xff") }},
		{"half account", func(v *vault.Vault) { v.Account.PasswordHash = "" }},
		{"invalid username", func(v *vault.Vault) { v.Account.Username = "\xff" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := sampleVault()
			tt.mutate(v)
			assert.ErrorIs(t, Check(v), ErrCorruptStore)
		})
	}
}

func TestModified(t *testing.T) {
	for _, file := range []string{"data.json", "data.db"} {
		t.Run(file, func(t *testing.T) {
			b, err := Open(filepath.Join(t.TempDir(), file), KindAuto)
			require.NoError(t, err)

			_, err = b.Modified()
			assert.ErrorIs(t, err, ErrNotInitialized)

			require.NoError(t, b.Save(sampleVault()))
			modified, err := b.Modified()
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now(), modified, time.Minute)
		})
	}
}
