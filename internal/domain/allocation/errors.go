package allocation

import "errors"

var (
	ErrAllocationNotFound     = errors.New("allocation not found")
	ErrAllocationProcessed    = errors.New("allocation already processed")
	ErrEmployeeNotInPod       = errors.New("employee does not belong to this pod")
	ErrPodHasNoLead           = errors.New("pod has no pod lead")
	ErrAllocationSheetMissing = errors.New("allocation sheet not generated")
)

// Item error codes reported inside a partial batch
const (
	ItemErrorEmployeeNotFound = "EMPLOYEE_NOT_FOUND"
	ItemErrorEmployeeNotInPod = "EMPLOYEE_NOT_IN_POD"
	ItemErrorInvalidProduct   = "INVALID_PRODUCT"
	ItemErrorNotFound         = "ALLOCATION_NOT_FOUND"
	ItemErrorAlreadyProcessed = "ALLOCATION_PROCESSED"
	ItemErrorDuplicateInBatch = "DUPLICATE_IN_BATCH"
)
