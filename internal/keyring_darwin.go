//go:build darwin

package internal

import (
	"fmt"

	"github.com/keybase/go-keychain"
)

const keychainService = "bucketctl"

// macKeychain approximates the session-scoped store on macOS with
// non-synchronizable, unlocked-only keychain items. There is no kernel
// session keyring on darwin; the keychain is the closest OS-owned store
// that keeps credential material out of plain files.
type macKeychain struct{}

// NewSecretStore returns the platform secret store.
func NewSecretStore() (SecretStore, error) {
	return macKeychain{}, nil
}

func (macKeychain) Set(key string, value []byte) error {
	item := keychain.NewItem()
	item.SetSecClass(keychain.SecClassGenericPassword)
	item.SetService(keychainService)
	item.SetAccount(key)
	item.SetLabel("bucketctl session credentials")
	item.SetData(value)
	item.SetSynchronizable(keychain.SynchronizableNo)
	item.SetAccessible(keychain.AccessibleWhenUnlockedThisDeviceOnly)

	// Replace any previous entry for the key.
	keychain.DeleteItem(item)

	if err := keychain.AddItem(item); err != nil {
		return fmt.Errorf("keychain add %s: %w", key, err)
	}
	return nil
}

func (macKeychain) Get(key string) ([]byte, error) {
	query := keychain.NewItem()
	query.SetSecClass(keychain.SecClassGenericPassword)
	query.SetService(keychainService)
	query.SetAccount(key)
	query.SetMatchLimit(keychain.MatchLimitOne)
	query.SetReturnData(true)

	results, err := keychain.QueryItem(query)
	if err != nil {
		return nil, fmt.Errorf("keychain query %s: %w", key, err)
	}
	if len(results) != 1 {
		return nil, ErrSecretNotFound
	}
	return results[0].Data, nil
}

func (macKeychain) Delete(key string) error {
	item := keychain.NewItem()
	item.SetSecClass(keychain.SecClassGenericPassword)
	item.SetService(keychainService)
	item.SetAccount(key)

	err := keychain.DeleteItem(item)
	if err == keychain.ErrorItemNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("keychain delete %s: %w", key, err)
	}
	return nil
}
