// Package mempool implements the transaction admission processor: the
// concurrency and correctness core that turns unverified transaction
// payloads into admitted, broadcastable mempool entries.
package mempool

// Transaction is the minimal view the Processor needs of a submitted
// payload. The Processor never constructs or mutates a transaction; it
// only routes it between the dedup cache, the worker pool, and the
// collaborators in the post-worker pipeline.
type Transaction interface {
	// ID returns the content-derived, stable identifier used as the key
	// everywhere in the Processor (dedup cache, the five PendingJobResult
	// buckets, the wire FinishedJobResult).
	ID() string

	// SenderKey returns the sender's raw public key.
	SenderKey() []byte

	// Type and TypeGroup select the handler consulted by the pre-worker
	// filter's admissibility check.
	Type() int
	TypeGroup() int

	// Serialized returns the raw bytes the worker hands back once the
	// cryptographic prefix has verified them, recoverable into a typed
	// transaction via Decode.
	Serialized() []byte

	// SignatureData returns the signable message and the signature over
	// it, as consumed by the worker's signature-verification step.
	SignatureData() (message []byte, signature []byte)
}

// Decoder turns the worker's raw bytes back into a typed Transaction
// using the unchecked fast path described in §4.6(b)(i): the worker has
// already signature-verified the bytes, so decoding here skips that
// check and only re-parses the structure.
type Decoder interface {
	Decode(raw []byte) (Transaction, error)
}
