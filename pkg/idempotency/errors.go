package idempotency

import "errors"

var (
	// ErrMessageAlreadyProcessed indicates that a message has already been processed
	ErrMessageAlreadyProcessed = errors.New("message has already been processed")

	// ErrStorageFailure indicates that the idempotency storage is unavailable
	ErrStorageFailure = errors.New("idempotency storage is temporarily unavailable")
)
