package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/safelist/internal/crypto"
	"github.com/illarion/safelist/internal/keyring"
)

// KeyringSave verifies the password and saves it to the OS keyring
func KeyringSave(_ context.Context, a *App) error {
	sl, err := a.openExisting()
	if err != nil {
		return err
	}
	username, err := a.username()
	if err != nil {
		return err
	}
	vaultID, err := sl.ID()
	if err != nil {
		return err
	}

	password, err := a.Prompt.ReadSecret("Password: ")
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)

	if err := sl.Login(username, string(password)); err != nil {
		return err
	}
	if err := keyring.SavePassword(vaultID, username, string(password)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}

	a.success("Password saved to keyring")
	return nil
}

// KeyringDelete removes the password from the OS keyring
func KeyringDelete(_ context.Context, a *App) error {
	sl, err := a.openExisting()
	if err != nil {
		return err
	}
	username, err := a.username()
	if err != nil {
		return err
	}
	vaultID, err := sl.ID()
	if err != nil {
		return err
	}

	if !keyring.HasPassword(vaultID, username) {
		fmt.Fprintln(a.Out, "No password stored in keyring")
		return nil
	}
	if err := keyring.DeletePassword(vaultID, username); err != nil {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	a.success("Password removed from keyring")
	return nil
}

// KeyringStatus reports whether a password is stored in the keyring
func KeyringStatus(_ context.Context, a *App) error {
	sl, err := a.openExisting()
	if err != nil {
		return err
	}
	username, err := a.username()
	if err != nil {
		return err
	}
	vaultID, err := sl.ID()
	if err != nil {
		return err
	}

	if keyring.HasPassword(vaultID, username) {
		fmt.Fprintln(a.Out, "Password: stored in keyring")
	} else {
		fmt.Fprintln(a.Out, "Password: not stored")
	}
	return nil
}
