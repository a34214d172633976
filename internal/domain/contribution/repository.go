package contribution

import "context"

type ContributionRepository interface {
	// AddHours inserts records, adding hours onto an existing row with the same key.
	AddHours(ctx context.Context, records []Record) (int, error)

	// ReplaceHours inserts records, overwriting hours of an existing row with the same key.
	ReplaceHours(ctx context.Context, records []Record) (int, error)

	// ListScoped returns the month's records ordered by department, pod, employee.
	ListScoped(ctx context.Context, filter Filter) ([]ScopedRecord, error)
}
