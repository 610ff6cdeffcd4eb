package crypto

import (
	"errors"
	"fmt"
	"os"
)

// envKeyring reads the passphrase from EnvVar. It cannot persist anything.
type envKeyring struct{}

func (envKeyring) GetKey() (string, error) {
	key := os.Getenv(EnvVar)
	if key == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrNoKey, EnvVar)
	}
	return key, nil
}

func (envKeyring) SetKey(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	return fmt.Errorf("no system keyring on this platform: export %s to use this passphrase", EnvVar)
}

func (envKeyring) DeleteKey() error {
	return fmt.Errorf("no system keyring on this platform: unset %s instead", EnvVar)
}

func (envKeyring) IsAvailable() bool {
	return os.Getenv(EnvVar) != ""
}
