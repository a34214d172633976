package allocation

import (
	"context"
	"io"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
)

type AllocationService interface {
	// GetPodAllocations lists every row of the pod for the month, any status.
	GetPodAllocations(ctx context.Context, identity user.Identity, podID, month string) ([]AllocationResponse, error)

	// SubmitAllocations applies a pod lead's batch. Item-level failures are
	// reported in the response; batch-level validation failures are returned as errors.
	SubmitAllocations(ctx context.Context, identity user.Identity, req SubmitAllocationsRequest) (SubmitAllocationsResponse, error)

	// ProcessAllocations converts the pod's SUBMITTED rows into contribution records.
	ProcessAllocations(ctx context.Context, identity user.Identity, req ProcessAllocationsRequest) (ProcessAllocationsResponse, error)

	// SeedPending creates PENDING rows from the initial upload.
	SeedPending(ctx context.Context, rows []SeedRow) (int, error)

	// GetAllocationSheet returns the generated sheet for a pod and month.
	GetAllocationSheet(ctx context.Context, identity user.Identity, podID, month string) (SheetInfo, error)

	// DownloadAllocationSheet opens the generated sheet for streaming.
	DownloadAllocationSheet(ctx context.Context, identity user.Identity, podID, month string) (io.ReadCloser, string, error)

	// GenerateSheets (re)writes the allocation sheet of every pod with rows for the month.
	GenerateSheets(ctx context.Context, month string, podIDs []string) ([]SheetInfo, error)
}
