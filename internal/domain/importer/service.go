package importer

import (
	"context"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
)

// ImportService loads the admin spreadsheets. Bad rows are reported and
// skipped; the rest of the file is applied.
type ImportService interface {
	ImportEmployees(ctx context.Context, identity user.Identity, req ImportEmployeesRequest) (ImportEmployeesResponse, error)

	// UploadInitial seeds the month's PENDING allocations and generates a
	// sheet for every pod that received rows.
	UploadInitial(ctx context.Context, identity user.Identity, req InitialUploadRequest) (InitialUploadResponse, error)

	// UploadFeatures replaces the month's feature-sourced contribution records.
	UploadFeatures(ctx context.Context, identity user.Identity, req FeatureUploadRequest) (FeatureUploadResponse, error)
}
