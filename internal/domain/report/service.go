package report

import (
	"context"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
)

type ReportService interface {
	// GenerateMasterList writes every contribution record of the month to a
	// workbook. Fails with ErrAllocationsPending while any allocation of the
	// month is not yet processed.
	GenerateMasterList(ctx context.Context, identity user.Identity, req MasterListRequest) (MasterListResponse, error)

	// GetMasterList reports the generated workbook; Exists is false when none has been generated.
	GetMasterList(ctx context.Context, identity user.Identity, req MasterListRequest) (MasterListResponse, error)
}
