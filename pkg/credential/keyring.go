package credential

import (
	"context"
	"errors"

	"github.com/zalando/go-keyring"
)

// KeyringManager stores credentials in the OS keyring (macOS Keychain,
// GNOME Keyring, Windows Credential Manager). Grounded on the teacher's
// pkg/auth/storage/keyring.go, generalized from a single token slot to
// arbitrary accounts keyed per §6.
type KeyringManager struct {
	service string
}

// NewKeyringManager creates a keyring-backed credential manager. All
// accounts are stored under the single OS-keyring service name so a
// single approval/unlock covers the whole CLI.
func NewKeyringManager(service string) *KeyringManager {
	return &KeyringManager{service: service}
}

func (k *KeyringManager) Load(_ context.Context, account string) (string, bool, error) {
	cred, err := keyring.Get(k.service, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return cred, true, nil
}

func (k *KeyringManager) Save(_ context.Context, account string, cred string) error {
	if cred == "" {
		return ErrMissingSecret
	}
	return keyring.Set(k.service, account, cred)
}

func (k *KeyringManager) Delete(_ context.Context, account string) error {
	err := keyring.Delete(k.service, account)
	if err != nil && errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
