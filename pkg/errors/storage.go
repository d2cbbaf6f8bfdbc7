// pkg/errors/storage.go
package errors

// Storage error codes used by the Redis-backed ledger
const (
	// StorageErrConnection indicates a connection error
	StorageErrConnection = "STORAGE_CONNECTION"
	// StorageErrRead indicates a read error
	StorageErrRead = "STORAGE_READ"
	// StorageErrWrite indicates a write error
	StorageErrWrite = "STORAGE_WRITE"
)

// Storage domain name
const StorageDomain = "storage"

// Storage operations
const (
	OpConnect = "Connect"
	OpGet     = "Get"
	OpSet     = "Set"
)

// StorageWrapWithCode wraps an error with storage domain and code
func StorageWrapWithCode(err error, operation string, code string, message string) error {
	if err == nil {
		return nil
	}

	return &Error{
		Domain:    StorageDomain,
		Operation: operation,
		Code:      code,
		Message:   message,
		Original:  err,
	}
}
