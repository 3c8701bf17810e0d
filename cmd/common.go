package cmd

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/illarion/safelist/internal/auth"
	"github.com/illarion/safelist/internal/backup"
	"github.com/illarion/safelist/internal/config"
	"github.com/illarion/safelist/internal/core"
	"github.com/illarion/safelist/internal/crypto"
	"github.com/illarion/safelist/internal/keyring"
	"github.com/illarion/safelist/internal/storage"
	"github.com/illarion/safelist/internal/vault"
)

const (
	EnvUsername = "SAFELIST_USERNAME"
	EnvPassword = "SAFELIST_PASSWORD"

	maxPromptAttempts = 3
)

// PasswordSource tells where a password came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
)

// session is the result of a successful login
type session struct {
	username string
	password []byte
	source   PasswordSource
	vaultID  string
}

func (s *session) clear() {
	crypto.ClearBytes(s.password)
}

// getPasswordFromEnv reads the password from SAFELIST_PASSWORD
func getPasswordFromEnv() []byte {
	password := os.Getenv(EnvPassword)
	if password == "" {
		return nil
	}
	return []byte(password)
}

// username reads SAFELIST_USERNAME or prompts for it
func (a *App) username() (string, error) {
	if username := os.Getenv(EnvUsername); username != "" {
		return username, nil
	}
	return a.Prompt.ReadLine("Username: ")
}

// newPassword reads a password for a new account or password change from
// the environment, or prompts twice
func (a *App) newPassword() ([]byte, error) {
	if password := getPasswordFromEnv(); password != nil {
		return password, nil
	}
	return readSecretConfirm(a.Prompt, "password")
}

// GetPasswordWithRetry resolves the account password from the environment,
// then the OS keyring, then the prompt, and checks it with verify. A stale
// keyring entry falls back to prompting.
// The caller is responsible for calling crypto.ClearBytes on the returned password
func (a *App) GetPasswordWithRetry(prompt, vaultID, username string, verify func([]byte) error) ([]byte, PasswordSource, error) {
	if password := getPasswordFromEnv(); password != nil {
		if err := verify(password); err != nil {
			crypto.ClearBytes(password)
			return nil, SourceEnv, err
		}
		return password, SourceEnv, nil
	}

	if a.Config.Keyring && vaultID != "" {
		stored, err := keyring.GetPassword(vaultID, username)
		if err == nil {
			password := []byte(stored)
			err = verify(password)
			if err == nil {
				return password, SourceKeyring, nil
			}
			crypto.ClearBytes(password)
			if !errors.Is(err, core.ErrAuthFailed) {
				return nil, SourceKeyring, err
			}
			a.warn("password stored in keyring is out of date")
		} else if !errors.Is(err, keyring.ErrNotFound) {
			a.Log.Debug("keyring unavailable")
		}
	}

	var lastErr error
	for range maxPromptAttempts {
		password, err := a.Prompt.ReadSecret(prompt)
		if err != nil {
			return nil, SourcePrompt, err
		}
		lastErr = verify(password)
		if lastErr == nil {
			return password, SourcePrompt, nil
		}
		crypto.ClearBytes(password)
		if !errors.Is(lastErr, core.ErrAuthFailed) || !a.Prompt.Interactive() {
			break
		}
		fmt.Fprintln(a.Err, errStyle.Render("wrong username or password"))
	}
	return nil, SourcePrompt, lastErr
}

// OfferToSavePassword asks whether to keep a prompted password in the OS keyring
func (a *App) OfferToSavePassword(vaultID, username string, password []byte) {
	if !a.Config.Keyring || vaultID == "" || !a.Prompt.Interactive() {
		return
	}
	if keyring.HasPassword(vaultID, username) {
		return
	}
	if !confirm(a.Prompt, "Save password to OS keyring?") {
		return
	}
	if err := keyring.SavePassword(vaultID, username, string(password)); err != nil {
		a.warn(fmt.Sprintf("failed to save to keyring: %s", err))
		return
	}
	a.success("Password saved to keyring")
}

// login authenticates the owner of sl. The caller must clear the session.
func (a *App) login(sl *core.SafeList) (*session, error) {
	username, err := a.username()
	if err != nil {
		return nil, err
	}
	vaultID, err := sl.ID()
	if err != nil {
		a.Log.Debug("vault id unavailable, keyring disabled for this run", zap.Error(err))
		vaultID = ""
	}

	password, source, err := a.GetPasswordWithRetry("Password: ", vaultID, username, func(pw []byte) error {
		return sl.Login(username, string(pw))
	})
	if err != nil {
		return nil, err
	}
	if source == SourcePrompt {
		a.OfferToSavePassword(vaultID, username, password)
	}
	return &session{username: username, password: password, source: source, vaultID: vaultID}, nil
}

// ErrorMessage returns the text shown for err and an optional hint
func ErrorMessage(err error) (string, string) {
	switch {
	case errors.Is(err, core.ErrNotInitialized):
		return "safelist not initialized", "Run 'safelist init' first"
	case errors.Is(err, vault.ErrAccountExists):
		return "an account already exists for this vault", "Use 'safelist passwd' to change its password"
	case errors.Is(err, core.ErrAuthFailed):
		return "invalid username or password", ""
	case errors.Is(err, vault.ErrDuplicateGroup):
		return err.Error(), "Use 'safelist ls' to see existing groups"
	case errors.Is(err, vault.ErrNotFound):
		return err.Error(), "Use 'safelist ls' to see groups and sites"
	case errors.Is(err, vault.ErrIndexOutOfRange):
		return err.Error(), "Site numbers are shown by 'safelist ls'"
	case errors.Is(err, storage.ErrLocked):
		return "vault is in use by another process", ""
	case errors.Is(err, storage.ErrCorruptStore):
		return fmt.Sprintf("vault file is damaged: %s", err), "Restore it with 'safelist restore <backup>'"
	case errors.Is(err, auth.ErrInvalidToken):
		return "stored password hash is unreadable", "Restore the vault from a backup"
	case errors.Is(err, auth.ErrHashUnavailable):
		return "password hashing is not working on this system", ""
	case errors.Is(err, backup.ErrWrongPassphrase):
		return "wrong password for backup, or the backup is damaged", ""
	case errors.Is(err, config.ErrInvalidConfig):
		return err.Error(), "Check safelist.yaml and SAFELIST_* variables"
	default:
		return err.Error(), ""
	}
}

// HandleError prints err and exits with status 1
func HandleError(err error) {
	msg, hint := ErrorMessage(err)
	fmt.Fprintln(os.Stderr, errStyle.Render("Error: "+msg))
	if hint != "" {
		fmt.Fprintln(os.Stderr, hint)
	}
	os.Exit(1)
}
