package internal

import "errors"

// Error kinds for the recoverable failure classes. Batch operations match on
// these with errors.Is, count the failure, and move on to the next item; only
// configuration-load failures and missing external tools are fatal.
var (
	// ErrUnknownGroup marks a group name absent from the configuration.
	ErrUnknownGroup = errors.New("unknown group")

	// ErrCatalogUnavailable marks a failed bucket-listing call. Distinct from a
	// profile that simply has zero visible buckets, which is not an error.
	ErrCatalogUnavailable = errors.New("bucket catalog unavailable")

	// ErrIssuanceFailed marks a failed or unparsable credential issuance.
	// Every bucket under the affected profile is skipped for the run.
	ErrIssuanceFailed = errors.New("credential issuance failed")

	// ErrMountTimeout marks a mount that never became live within the poll budget.
	ErrMountTimeout = errors.New("mount verification timed out")

	// ErrMountRejected marks an unmount refused by the kernel (busy or not mounted).
	ErrMountRejected = errors.New("unmount rejected")

	// ErrSecretNotFound is returned by a SecretStore when no entry exists for a key.
	ErrSecretNotFound = errors.New("secret not found")
)
