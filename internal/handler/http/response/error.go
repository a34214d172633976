package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/allocation"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/organization"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/product"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth and access
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, "Invalid employee code")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, user.ErrIdentityRequired):
		Unauthorized(w, "Authentication required")
	case errors.Is(err, user.ErrForbidden):
		Forbidden(w, "Insufficient permissions")
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")

	// Organization
	case errors.Is(err, organization.ErrDepartmentNotFound):
		NotFound(w, "Department not found")
	case errors.Is(err, organization.ErrPodNotFound):
		NotFound(w, "Pod not found")
	case errors.Is(err, organization.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Allocations
	case errors.Is(err, allocation.ErrAllocationNotFound):
		NotFound(w, "Allocation not found")
	case errors.Is(err, allocation.ErrAllocationSheetMissing):
		NotFound(w, "Allocation sheet has not been generated for this month")
	case errors.Is(err, allocation.ErrAllocationProcessed):
		Conflict(w, "Allocation already processed")

	// Products
	case errors.Is(err, product.ErrInvalidProduct):
		BadRequest(w, "Invalid product", nil)

	// Reports
	case errors.Is(err, report.ErrMasterListNotFound):
		NotFound(w, "Final master list has not been generated")
	case errors.Is(err, report.ErrAllocationsPending):
		Conflict(w, err.Error())

	// Uploads
	case errors.Is(err, spreadsheet.ErrUnsupportedFormat),
		errors.Is(err, spreadsheet.ErrEmptySheet),
		errors.Is(err, spreadsheet.ErrMissingColumns),
		errors.Is(err, spreadsheet.ErrInvalidFile):
		ValidationError(w, map[string]string{"file": err.Error()})
	case errors.Is(err, storage.ErrFileNotFound):
		NotFound(w, "File not found")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
