package internal

// SecretStore is the session-scoped credential cache. Entries are owned by
// the OS (kernel keyring or system keychain), vanish when the session ends,
// and are never written to durable storage by any code path here.
//
// Get returns ErrSecretNotFound when no entry exists for the key. Set
// replaces any existing entry atomically.
type SecretStore interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
}
