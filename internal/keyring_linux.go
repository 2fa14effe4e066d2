//go:build linux

package internal

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// sessionKeyring stores secrets as "user" keys on the kernel session keyring.
// The kernel clears the keyring when the login session ends, which is exactly
// the lifetime we want for cached credentials, and nothing touches disk.
type sessionKeyring struct{}

// NewSecretStore returns the platform secret store.
func NewSecretStore() (SecretStore, error) {
	return sessionKeyring{}, nil
}

func (sessionKeyring) Set(key string, value []byte) error {
	// add_key replaces an existing key with the same description in place.
	_, err := unix.AddKey("user", key, value, unix.KEY_SPEC_SESSION_KEYRING)
	if err != nil {
		return fmt.Errorf("keyring add %s: %w", key, err)
	}
	return nil
}

func (sessionKeyring) Get(key string) ([]byte, error) {
	id, err := unix.KeyctlSearch(unix.KEY_SPEC_SESSION_KEYRING, "user", key, 0)
	if err == unix.ENOKEY || err == unix.EKEYEXPIRED || err == unix.EKEYREVOKED {
		return nil, ErrSecretNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("keyring search %s: %w", key, err)
	}

	size, err := unix.KeyctlBuffer(unix.KEYCTL_READ, id, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("keyring read %s: %w", key, err)
	}
	buf := make([]byte, size)
	n, err := unix.KeyctlBuffer(unix.KEYCTL_READ, id, buf, 0)
	if err != nil {
		return nil, fmt.Errorf("keyring read %s: %w", key, err)
	}
	return buf[:n], nil
}

func (sessionKeyring) Delete(key string) error {
	id, err := unix.KeyctlSearch(unix.KEY_SPEC_SESSION_KEYRING, "user", key, 0)
	if err == unix.ENOKEY || err == unix.EKEYEXPIRED || err == unix.EKEYREVOKED {
		return nil
	}
	if err != nil {
		return fmt.Errorf("keyring search %s: %w", key, err)
	}
	if _, err := unix.KeyctlInt(unix.KEYCTL_UNLINK, id, unix.KEY_SPEC_SESSION_KEYRING, 0, 0); err != nil {
		return fmt.Errorf("keyring unlink %s: %w", key, err)
	}
	return nil
}
