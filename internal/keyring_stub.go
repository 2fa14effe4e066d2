//go:build !linux && !darwin

package internal

import "fmt"

// NewSecretStore stub for platforms without a session-scoped secret store.
func NewSecretStore() (SecretStore, error) {
	return nil, fmt.Errorf("no session secret store available on this platform")
}
