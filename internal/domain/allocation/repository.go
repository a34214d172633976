package allocation

import "context"

// AllocationRepository owns the allocation table.
type AllocationRepository interface {
	// WithPodMonthLock runs fn with exclusive ownership of the (pod, month)
	// allocation set. Writes issued through the ctx passed to fn commit
	// together when fn returns nil.
	WithPodMonthLock(ctx context.Context, podID, month string, fn func(ctx context.Context) error) error

	// ListByPodMonth returns the pod's rows for the month ordered by employee name, then creation.
	ListByPodMonth(ctx context.Context, podID, month string) ([]Allocation, error)

	// ApplySubmission stamps the values and moves the row to SUBMITTED.
	// Returns ErrAllocationProcessed when the row is already PROCESSED.
	ApplySubmission(ctx context.Context, id string, submission Submission) error

	// MarkProcessed moves SUBMITTED rows to PROCESSED and returns how many moved.
	MarkProcessed(ctx context.Context, ids []string) (int, error)

	// CreatePending inserts PENDING rows, leaving existing keys untouched.
	CreatePending(ctx context.Context, allocations []Allocation) (int, error)

	// ListPodIDsByMonth returns the pods that have rows for the month.
	ListPodIDsByMonth(ctx context.Context, month string) ([]string, error)

	// CountUnprocessed counts the month's rows that are not yet PROCESSED.
	CountUnprocessed(ctx context.Context, month string) (int, error)
}
