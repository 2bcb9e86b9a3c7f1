package models

import "errors"

// Domain errors that can be returned by repositories
var (
	// ErrDuplicateTransaction indicates a transaction with the same transaction ID already exists
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrNotFound indicates the requested entity was not found
	ErrNotFound = errors.New("not found")

	// ErrThirdPartyIDConflict indicates a different processor id is already bound to the transaction
	ErrThirdPartyIDConflict = errors.New("third party id already bound")
)
