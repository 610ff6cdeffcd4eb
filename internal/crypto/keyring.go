package crypto

import (
	"errors"
	"os"
)

// Keyring stores the database passphrase
type Keyring interface {
	GetKey() (string, error)
	SetKey(password string) error
	DeleteKey() error
	IsAvailable() bool
}

const (
	ServiceName = "apothecary"
	KeyName     = "db-encryption-key"

	// EnvVar holds the passphrase where no system keyring exists. When set it
	// also takes precedence over the keychain, which is what `apothecary serve`
	// under a process supervisor needs.
	EnvVar = "APOTHECARY_DB_KEY"
)

// ErrNoKey is returned when no passphrase has been stored yet
var ErrNoKey = errors.New("database key not configured")

// NewKeyring returns the environment keyring when EnvVar is set and the
// platform keyring otherwise
func NewKeyring() Keyring {
	if os.Getenv(EnvVar) != "" {
		return envKeyring{}
	}
	return newPlatformKeyring()
}
