package cmd

import (
	"context"

	"go.uber.org/zap"

	"github.com/illarion/safelist/internal/crypto"
	"github.com/illarion/safelist/internal/keyring"
)

// Passwd changes the account password
func Passwd(_ context.Context, a *App) error {
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
		a.Log.Debug("vault id unavailable, keyring disabled for this run", zap.Error(err))
		vaultID = ""
	}

	// Get current password with retry on stale keyring
	current, _, err := a.GetPasswordWithRetry("Enter current password: ", vaultID, username, func(pw []byte) error {
		return sl.Login(username, string(pw))
	})
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(current)

	next, err := readSecretConfirm(a.Prompt, "new password")
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(next)

	if err := sl.ChangePassword(username, string(current), string(next)); err != nil {
		return err
	}

	// Only refresh an entry the user chose to keep
	if a.Config.Keyring && vaultID != "" && keyring.HasPassword(vaultID, username) {
		if err := keyring.SavePassword(vaultID, username, string(next)); err != nil {
			a.warn("failed to update keyring: " + err.Error())
		} else {
			a.success("Keyring updated with new password")
		}
	}

	a.success("Password changed")
	return nil
}
