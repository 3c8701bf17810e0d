package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/illarion/safelist/internal/backup"
	"github.com/illarion/safelist/internal/crypto"
	"github.com/illarion/safelist/internal/vault"
)

// Backup writes an encrypted copy of the vault to path, sealed with the
// account password
func Backup(_ context.Context, a *App, path string) error {
	sl, err := a.openExisting()
	if err != nil {
		return err
	}
	s, err := a.login(sl)
	if err != nil {
		return err
	}
	defer s.clear()

	v, err := sl.Vault()
	if err != nil {
		return err
	}
	if err := backup.Export(path, v, s.password); err != nil {
		return err
	}
	a.success(fmt.Sprintf("Backed up %d group(s), %d site(s) to %s", len(v.Favorites), v.SiteCount(), path))
	return nil
}

// readBackup opens a backup with the live session password, asking for the
// backup's own password when it differs
func (a *App) readBackup(path string, password []byte) (*vault.Vault, error) {
	if password != nil {
		v, err := backup.Import(path, password)
		if !errors.Is(err, backup.ErrWrongPassphrase) {
			return v, err
		}
	}
	if !a.Prompt.Interactive() && password != nil {
		return nil, backup.ErrWrongPassphrase
	}

	passphrase, err := a.Prompt.ReadSecret("Backup password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(passphrase)
	return backup.Import(path, passphrase)
}

// Restore replaces the vault with the contents of a backup. An existing
// vault is only replaced after login and, unless force is set, confirmation.
func Restore(_ context.Context, a *App, path string, force bool) error {
	sl, err := a.open()
	if err != nil {
		return err
	}
	exists, err := sl.Exists()
	if err != nil {
		return err
	}

	var restored *vault.Vault
	if exists {
		s, err := a.login(sl)
		if err != nil {
			return err
		}
		defer s.clear()

		if restored, err = a.readBackup(path, s.password); err != nil {
			return err
		}

		diff, err := sl.Diff(restored, path)
		if err != nil {
			return err
		}
		if diff == "" {
			fmt.Fprintln(a.Out, "Vault already matches the backup")
			return nil
		}
		if !force {
			fmt.Fprint(a.Out, diff)
			if !confirm(a.Prompt, "Replace the current vault with this backup?") {
				fmt.Fprintln(a.Out, "Aborted")
				return nil
			}
		}
	} else {
		if restored, err = a.readBackup(path, getPasswordFromEnv()); err != nil {
			return err
		}
	}

	if err := sl.Save(restored); err != nil {
		return err
	}
	a.success(fmt.Sprintf("Restored %d group(s), %d site(s) from %s", len(restored.Favorites), restored.SiteCount(), path))
	return nil
}
