package errors

// Mempool error codes. These classify operational failures inside the
// admission processor's collaborators (Redis, Kafka, envelope
// decoding, wallet lookup) and are distinct from the wire-facing ErrorKind
// strings a ticket's FinishedJobResult carries.
const (
	MempoolErrPoolUnavailable  = "MEMPOOL_POOL_UNAVAILABLE"
	MempoolErrChainUnavailable = "MEMPOOL_CHAIN_UNAVAILABLE"
	MempoolErrWalletLookup     = "MEMPOOL_WALLET_LOOKUP"
	MempoolErrDecode           = "MEMPOOL_DECODE"
	MempoolErrIngest           = "MEMPOOL_INGEST"
)

// Mempool domain name.
const MempoolDomain = "mempool"

// Mempool operations.
const (
	OpPoolHas           = "PoolHas"
	OpPoolAdd           = "PoolAddTransactions"
	OpChainForgedLookup = "ChainForgedLookup"
	OpWalletLookup      = "WalletLookup"
	OpDecodeTransaction = "DecodeTransaction"
	OpIngestConsume     = "IngestConsume"
)

// NewMempoolError creates a new mempool domain error.
func NewMempoolError(code string, message string, err error) error {
	return &Error{
		Domain:   MempoolDomain,
		Code:     code,
		Message:  message,
		Original: err,
	}
}

// MempoolWrap wraps an error with the mempool domain and an operation.
func MempoolWrap(err error, operation string, code string, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Domain:    MempoolDomain,
		Operation: operation,
		Code:      code,
		Message:   message,
		Original:  err,
	}
}

// IsMempoolError checks if an error is a mempool error with the given code.
func IsMempoolError(err error, code string) bool {
	var domainErr *Error
	if As(err, &domainErr) {
		return domainErr.Domain == MempoolDomain && domainErr.Code == code
	}
	return false
}
