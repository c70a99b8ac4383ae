package relay

import "errors"

var (
	// ErrInvalidPrice means the conversion precondition was violated, the
	// quoted price must be strictly positive.
	ErrInvalidPrice = errors.New("invalid price quote")
	// ErrSubmission means the destination network rejected the outgoing
	// transaction (insufficient funds, nonce conflict, reverted transfer).
	ErrSubmission = errors.New("outgoing transaction rejected")
	// ErrConfirmationTimeout means the outgoing transaction was submitted
	// but did not confirm within the wait policy. The disbursement outcome
	// is unknown, funds may have left the funding account without a record.
	ErrConfirmationTimeout = errors.New("outgoing transaction confirmation timed out")
	// ErrPersistence means the transfer record write failed after a
	// confirmed disbursement. Funds were sent with no record, the event
	// will resurface through the backfill reconciler.
	ErrPersistence = errors.New("transfer record write failed")
)
