// Package keyring keeps the account password in the OS keyring, keyed by
// vault ID and username.
package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "safelist"

var ErrNotFound = keyring.ErrNotFound

func key(vaultID, username string) string {
	return vaultID + "/" + username
}

// SavePassword stores the password for username in the OS keyring
func SavePassword(vaultID, username, password string) error {
	return keyring.Set(serviceName, key(vaultID, username), password)
}

// GetPassword retrieves a stored password. A missing entry is ErrNotFound.
func GetPassword(vaultID, username string) (string, error) {
	return keyring.Get(serviceName, key(vaultID, username))
}

// DeletePassword removes a stored password. Deleting a missing entry is not an error.
func DeletePassword(vaultID, username string) error {
	err := keyring.Delete(serviceName, key(vaultID, username))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// HasPassword checks if a password is stored in the keyring
func HasPassword(vaultID, username string) bool {
	_, err := keyring.Get(serviceName, key(vaultID, username))
	return err == nil
}
