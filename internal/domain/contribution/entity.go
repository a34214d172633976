package contribution

import (
	"time"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/product"
	"github.com/shopspring/decimal"
)

// Source tells where a record's hours came from.
type Source string

const (
	SourceAllocation    Source = "allocation"
	SourceFeatureUpload Source = "feature_upload"
)

// Record is an hours-based contribution of one employee to one product.
// Append-only from the dashboard's point of view.
type Record struct {
	ID                   string
	EmployeeID           string
	Product              product.Product
	FeatureOrDescription string
	Hours                decimal.Decimal
	Month                string
	Source               Source
	AllocationID         *string
	CreatedAt            time.Time
}

// ScopedRecord is a record joined with the org placement of its employee.
type ScopedRecord struct {
	Record
	EmployeeCode   string
	EmployeeName   string
	PodID          string
	PodName        string
	DepartmentID   string
	DepartmentName string
}

// Filter narrows a month's records. Nil fields do not filter.
type Filter struct {
	Month        string
	DepartmentID *string
	PodID        *string
	EmployeeID   *string
}
