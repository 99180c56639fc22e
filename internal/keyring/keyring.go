// Package keyring keeps obfuscation keys in the OS keyring so a data file
// can be shared without the keys stored beside the data.
package keyring

import (
	"errors"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

const serviceName = "quickdb"

// ErrNotFound is returned when no key is stored
var ErrNotFound = keyring.ErrNotFound

// Account names the keyring entry for an instance of a data file
func Account(dataFile, instance string) string {
	if abs, err := filepath.Abs(dataFile); err == nil {
		dataFile = abs
	}
	return dataFile + "#" + instance
}

// SaveKey stores an instance key in the OS keyring
func SaveKey(account, key string) error {
	return keyring.Set(serviceName, account, key)
}

// GetKey retrieves an instance key from the OS keyring
func GetKey(account string) (string, error) {
	return keyring.Get(serviceName, account)
}

// DeleteKey removes an instance key from the OS keyring
func DeleteKey(account string) error {
	return keyring.Delete(serviceName, account)
}

// HasKey checks if a key is stored in the keyring
func HasKey(account string) bool {
	_, err := keyring.Get(serviceName, account)
	return err == nil
}

// IsNotFound reports a missing keyring entry
func IsNotFound(err error) bool {
	return errors.Is(err, keyring.ErrNotFound)
}
