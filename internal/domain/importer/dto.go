package importer

import (
	"io"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/allocation"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/validator"
)

// RowError reports one rejected line of an uploaded file.
type RowError struct {
	Sheet   string `json:"sheet,omitempty"`
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Upload is a file received from a multipart form.
type Upload struct {
	Filename string
	File     io.Reader
}

func (u Upload) validate(errs validator.ValidationErrors) validator.ValidationErrors {
	if u.File == nil || validator.IsEmpty(u.Filename) {
		errs = append(errs, validator.ValidationError{Field: "file", Message: ErrFileRequired.Error()})
	}
	return errs
}

func validateMonth(month string, errs validator.ValidationErrors) validator.ValidationErrors {
	if validator.IsEmpty(month) {
		return append(errs, validator.ValidationError{Field: "month", Message: "is required"})
	}
	if !validator.IsValidMonth(month) {
		return append(errs, validator.ValidationError{Field: "month", Message: "must be in YYYY-MM format"})
	}
	return errs
}

func result(errs validator.ValidationErrors) error {
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== EMPLOYEES ==========

// Employee master columns. email and is_pod_lead are optional.
var EmployeeColumns = []string{"employee_code", "name", "department", "pod", "role"}

type ImportEmployeesRequest struct {
	Upload
}

func (r *ImportEmployeesRequest) Validate() error {
	return result(r.Upload.validate(nil))
}

type EmployeeImportSummary struct {
	TotalRows          int `json:"total_rows"`
	CreatedEmployees   int `json:"created_employees"`
	UpdatedEmployees   int `json:"updated_employees"`
	CreatedDepartments int `json:"created_departments"`
	CreatedPods        int `json:"created_pods"`
	PodLeadsAssigned   int `json:"pod_leads_assigned"`
	ErrorCount         int `json:"error_count"`
}

type ImportEmployeesResponse struct {
	Summary   EmployeeImportSummary `json:"summary"`
	Errors    []RowError            `json:"errors"`
	HasErrors bool                  `json:"has_errors"`
}

// ========== INITIAL ALLOCATIONS ==========

// Initial upload columns. features_text is optional.
var InitialColumns = []string{"employee_code", "product", "product_description", "baseline_hours"}

type InitialUploadRequest struct {
	Upload
	Month string
}

func (r *InitialUploadRequest) Validate() error {
	return result(validateMonth(r.Month, r.Upload.validate(nil)))
}

type InitialUploadSummary struct {
	GeneratedSheets    int    `json:"generated_sheets"`
	CreatedAllocations int    `json:"created_allocations"`
	Month              string `json:"month"`
	TotalEmployees     int    `json:"total_employees"`
	TotalPodsInFile    int    `json:"total_pods_in_file"`
	PodsWithSheets     int    `json:"pods_with_sheets"`
	PodsSkipped        int    `json:"pods_skipped"`
	TeamsProcessed     int    `json:"teams_processed"`
}

// SkippedPod is a pod whose rows were not seeded.
type SkippedPod struct {
	PodName       string `json:"pod_name"`
	EmployeeCount int    `json:"employee_count"`
	Reason        string `json:"reason"`
}

// Team groups the upload outcome per department.
type Team struct {
	Department     string                 `json:"department"`
	PodsWithSheets int                    `json:"pods_with_sheets"`
	PodsSkipped    int                    `json:"pods_skipped"`
	Pods           []allocation.SheetInfo `json:"pods"`
	SkippedPods    []SkippedPod           `json:"skipped_pods"`
}

type InitialUploadResponse struct {
	Summary   InitialUploadSummary `json:"summary"`
	Teams     []Team               `json:"teams"`
	Errors    []RowError           `json:"errors"`
	HasErrors bool                 `json:"has_errors"`
}

// ========== FEATURES ==========

// Feature upload columns. description is optional.
var FeatureColumns = []string{"employee_code", "product", "feature", "hours"}

type FeatureUploadRequest struct {
	Upload
	Month string
}

func (r *FeatureUploadRequest) Validate() error {
	return result(validateMonth(r.Month, r.Upload.validate(nil)))
}

type FeatureUploadSummary struct {
	TotalRows      int    `json:"total_rows"`
	Features       int    `json:"features"`
	CreatedRecords int    `json:"created_records"`
	Month          string `json:"month"`
	ErrorCount     int    `json:"error_count"`
}

type FeatureUploadResponse struct {
	Summary   FeatureUploadSummary `json:"summary"`
	Errors    []RowError           `json:"errors"`
	HasErrors bool                 `json:"has_errors"`
}
