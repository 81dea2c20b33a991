package ledger

import (
	"errors"
	"fmt"
)

// Set of error variables for the ledger.
var (
	ErrEmptyChain     = errors.New("chain has no blocks")
	ErrChainCorrupted = errors.New("chain corrupted")
	ErrNoChain        = errors.New("no chain stored")
	ErrBlockNotFound  = errors.New("block not found")
)

// Reasons a block can fail validation.
const (
	ReasonHash      = "hash mismatch"
	ReasonLinkage   = "previous hash mismatch"
	ReasonIndex     = "index out of sequence"
	ReasonGenesis   = "invalid genesis"
	ReasonTraceHash = "trace commitment mismatch"
)

// ValidationError identifies the first block that failed validation when
// scanning the chain from low to high index.
type ValidationError struct {
	Index  uint64
	Reason string
	Got    string
	Exp    string
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	if ve.Got == "" && ve.Exp == "" {
		return fmt.Sprintf("block %d: %s", ve.Index, ve.Reason)
	}
	return fmt.Sprintf("block %d: %s, got %s, exp %s", ve.Index, ve.Reason, ve.Got, ve.Exp)
}

// AsValidationError returns the validation error inside the chain of errors
// or nil if there isn't one.
func AsValidationError(err error) *ValidationError {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return nil
	}
	return ve
}
