//go:build darwin

package crypto

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// keychainKeyring keeps the passphrase in the macOS Keychain
type keychainKeyring struct{}

func newPlatformKeyring() Keyring {
	return keychainKeyring{}
}

func (keychainKeyring) GetKey() (string, error) {
	key, err := keyring.Get(ServiceName, KeyName)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w: nothing in keychain for %s", ErrNoKey, ServiceName)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read keychain: %w", err)
	}
	if key == "" {
		return "", fmt.Errorf("%w: keychain entry is empty", ErrNoKey)
	}
	return key, nil
}

func (keychainKeyring) SetKey(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	if err := keyring.Set(ServiceName, KeyName, password); err != nil {
		return fmt.Errorf("failed to write keychain: %w", err)
	}
	return nil
}

func (keychainKeyring) DeleteKey() error {
	err := keyring.Delete(ServiceName, KeyName)
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: nothing in keychain for %s", ErrNoKey, ServiceName)
	}
	if err != nil {
		return fmt.Errorf("failed to delete keychain entry: %w", err)
	}
	return nil
}

// IsAvailable checks the keychain by writing a throwaway entry
func (keychainKeyring) IsAvailable() bool {
	const check = "__apothecary_check__"
	if err := keyring.Set(ServiceName, check, "check"); err != nil {
		return false
	}
	_ = keyring.Delete(ServiceName, check)
	return true
}
