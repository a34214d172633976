package report

import "errors"

var (
	ErrMasterListNotFound = errors.New("final master list has not been generated")
	ErrAllocationsPending = errors.New("allocations are still pending processing for this month")
)
