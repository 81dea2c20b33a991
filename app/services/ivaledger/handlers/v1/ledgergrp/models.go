package ledgergrp

import "github.com/xlerion/ivachain/foundation/blockchain/ledger"

// validation is the report returned by a chain validation request.
type validation struct {
	Valid        bool    `json:"valid"`
	Blocks       int     `json:"blocks"`
	InvalidIndex *uint64 `json:"invalid_index,omitempty"`
	Reason       string  `json:"reason,omitempty"`
	TracesValid  bool    `json:"traces_valid"`
	TraceError   string  `json:"trace_error,omitempty"`
}

func toValidation(blocks int, err error, traceErr error) validation {
	v := validation{
		Valid:       err == nil,
		Blocks:      blocks,
		TracesValid: traceErr == nil,
	}

	if ve := ledger.AsValidationError(err); ve != nil {
		index := ve.Index
		v.InvalidIndex = &index
		v.Reason = ve.Reason
	}

	if traceErr != nil {
		v.TraceError = traceErr.Error()
	}

	return v
}
