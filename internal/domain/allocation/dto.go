package allocation

import (
	"fmt"

	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== VIEW ==========

type AllocationResponse struct {
	ID                    string          `json:"id"`
	EmployeeID            string          `json:"employee_id"`
	EmployeeCode          string          `json:"employee_code"`
	EmployeeName          string          `json:"employee_name"`
	Email                 string          `json:"email"`
	Product               string          `json:"product"`
	ProductDescription    string          `json:"product_description"`
	AcademyPercent        decimal.Decimal `json:"academy_percent"`
	IntensivePercent      decimal.Decimal `json:"intensive_percent"`
	NIATPercent           decimal.Decimal `json:"niat_percent"`
	FeaturesText          *string         `json:"features_text"`
	IsVerifiedDescription bool            `json:"is_verified_description"`
	BaselineHours         decimal.Decimal `json:"baseline_hours"`
	Status                Status          `json:"status"`
	TotalPercent          decimal.Decimal `json:"total_percent"`
	Month                 string          `json:"month"`
}

// ========== SUBMIT ==========

type SubmissionItem struct {
	EmployeeID            string          `json:"employee_id"`
	Product               string          `json:"product"`
	ProductDescription    string          `json:"product_description"`
	AcademyPercent        decimal.Decimal `json:"academy_percent"`
	IntensivePercent      decimal.Decimal `json:"intensive_percent"`
	NIATPercent           decimal.Decimal `json:"niat_percent"`
	IsVerifiedDescription bool            `json:"is_verified_description"`
}

type SubmitAllocationsRequest struct {
	PodID       string           `json:"-"`
	Month       string           `json:"month"`
	Allocations []SubmissionItem `json:"allocations"`
}

// Validate checks the whole batch. Any failing item rejects the request,
// so nothing is written when the percentages do not add up.
func (r *SubmitAllocationsRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.PodID) {
		errs = append(errs, validator.ValidationError{Field: "pod_id", Message: "is required"})
	}
	if validator.IsEmpty(r.Month) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "is required"})
	} else if !validator.IsValidMonth(r.Month) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be in YYYY-MM format"})
	}
	if len(r.Allocations) == 0 {
		errs = append(errs, validator.ValidationError{Field: "allocations", Message: "at least one allocation is required"})
	}

	for i, item := range r.Allocations {
		field := fmt.Sprintf("allocations[%d]", i)

		if validator.IsEmpty(item.EmployeeID) {
			errs = append(errs, validator.ValidationError{Field: field + ".employee_id", Message: "is required"})
		}
		if validator.IsEmpty(item.Product) {
			errs = append(errs, validator.ValidationError{Field: field + ".product", Message: "is required"})
		}

		percents := map[string]decimal.Decimal{
			"academy_percent":   item.AcademyPercent,
			"intensive_percent": item.IntensivePercent,
			"niat_percent":      item.NIATPercent,
		}
		inRange := true
		for _, name := range []string{"academy_percent", "intensive_percent", "niat_percent"} {
			if !validator.IsValidPercent(percents[name]) {
				inRange = false
				errs = append(errs, validator.ValidationError{Field: field + "." + name, Message: "must be between 0 and 100"})
			}
		}
		if inRange && !validator.IsPercentSumValid(item.AcademyPercent, item.IntensivePercent, item.NIATPercent) {
			errs = append(errs, validator.ValidationError{Field: field, Message: "percentages must not exceed 100 in total"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SubmitSummary struct {
	UpdatedAllocations int `json:"updated_allocations"`
	ErrorCount         int `json:"error_count"`
}

// ItemError describes one submission item that could not be applied.
type ItemError struct {
	EmployeeID         string `json:"employee_id,omitempty"`
	Product            string `json:"product,omitempty"`
	ProductDescription string `json:"product_description,omitempty"`
	Code               string `json:"code"`
	Message            string `json:"message"`
}

type SubmitAllocationsResponse struct {
	Summary     SubmitSummary        `json:"summary"`
	Allocations []AllocationResponse `json:"allocations"`
	Errors      []ItemError          `json:"errors"`
	HasErrors   bool                 `json:"has_errors"`
}

// ========== PROCESS ==========

type OutputFormat string

const (
	OutputFormatRecords OutputFormat = "records"
	OutputFormatCSV     OutputFormat = "csv"
)

type ProcessAllocationsRequest struct {
	PodID        string
	Month        string
	OutputFormat OutputFormat
}

func (r *ProcessAllocationsRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.PodID) {
		errs = append(errs, validator.ValidationError{Field: "pod_id", Message: "is required"})
	}
	if validator.IsEmpty(r.Month) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "is required"})
	} else if !validator.IsValidMonth(r.Month) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be in YYYY-MM format"})
	}
	if r.OutputFormat == "" {
		r.OutputFormat = OutputFormatRecords
	}
	if r.OutputFormat != OutputFormatRecords && r.OutputFormat != OutputFormatCSV {
		errs = append(errs, validator.ValidationError{Field: "output_format", Message: "must be 'records' or 'csv'"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ProcessAllocationsResponse struct {
	ProcessedCount int          `json:"processed_count"`
	SkippedPending int          `json:"skipped_pending"`
	OutputFormat   OutputFormat `json:"output_format"`
	CreatedRecords int          `json:"created_records"`
	Message        string       `json:"message"`
	FilePath       *string      `json:"file_path,omitempty"`
	DownloadURL    *string      `json:"download_url,omitempty"`
}

// ========== SEED ==========

// SeedRow is one normalised line of the initial monthly upload.
type SeedRow struct {
	EmployeeID         string
	PodID              string
	Product            string
	ProductDescription string
	FeaturesText       *string
	BaselineHours      decimal.Decimal
	Month              string
}

// ========== SHEETS ==========

type SheetInfo struct {
	PodID       string `json:"pod_id"`
	PodName     string `json:"pod_name"`
	PodLeadCode string `json:"pod_lead_code"`
	SheetPath   string `json:"sheet_path"`
	DownloadURL string `json:"download_url"`
}

type GenerateSheetsSummary struct {
	GeneratedSheets int    `json:"generated_sheets"`
	Month           string `json:"month"`
}

type GenerateSheetsResponse struct {
	Summary GenerateSheetsSummary `json:"summary"`
	Sheets  []SheetInfo           `json:"sheets"`
}
