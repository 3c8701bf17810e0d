package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/safelist/internal/crypto"
	"github.com/illarion/safelist/internal/vault"
)

// Init creates the owner account in a new vault
func Init(_ context.Context, a *App) error {
	sl, err := a.open()
	if err != nil {
		return err
	}

	v, err := sl.Vault()
	if err != nil {
		return err
	}
	if v.Account.Exists() {
		return vault.ErrAccountExists
	}

	username, err := a.username()
	if err != nil {
		return err
	}

	// Read password (env var or prompt with confirmation)
	password, err := a.newPassword()
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)

	if err := sl.CreateAccount(username, string(password)); err != nil {
		return err
	}
	a.success(fmt.Sprintf("Initialized %s for %s", sl.Path(), username))
	return nil
}

// Login checks credentials and offers to remember the password
func Login(_ context.Context, a *App) error {
	sl, err := a.openExisting()
	if err != nil {
		return err
	}
	s, err := a.login(sl)
	if err != nil {
		return err
	}
	defer s.clear()

	a.success("Logged in as " + s.username)
	return nil
}
