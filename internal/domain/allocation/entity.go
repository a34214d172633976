package allocation

import (
	"time"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/contribution"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/product"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSubmitted Status = "SUBMITTED"
	StatusProcessed Status = "PROCESSED"
)

// HoursPrecision is the number of decimal places converted hours are kept at.
const HoursPrecision = 2

var hundred = decimal.NewFromInt(100)

// Allocation is a pod lead's monthly split of one employee line item's
// baseline hours across the products.
type Allocation struct {
	ID                    string
	EmployeeID            string
	PodID                 string
	Product               product.Product
	ProductDescription    string
	AcademyPercent        decimal.Decimal
	IntensivePercent      decimal.Decimal
	NIATPercent           decimal.Decimal
	FeaturesText          *string
	IsVerifiedDescription bool
	BaselineHours         decimal.Decimal
	Status                Status
	Month                 string
	SubmittedAt           *time.Time
	ProcessedAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time

	// Joined fields
	EmployeeCode  *string
	EmployeeName  *string
	EmployeeEmail *string
}

// Key identifies the allocation within a month.
type Key struct {
	EmployeeID         string
	Product            product.Product
	ProductDescription string
}

func (a Allocation) Key() Key {
	return Key{EmployeeID: a.EmployeeID, Product: a.Product, ProductDescription: a.ProductDescription}
}

// TotalPercent is the sum of the three product percentages.
func (a Allocation) TotalPercent() decimal.Decimal {
	return a.AcademyPercent.Add(a.IntensivePercent).Add(a.NIATPercent)
}

// IsEditable reports whether the pod lead may still change the row.
func (a Allocation) IsEditable() bool {
	return a.Status == StatusPending || a.Status == StatusSubmitted
}

// Percents returns the percentage per product in display order.
func (a Allocation) Percents() map[product.Product]decimal.Decimal {
	return map[product.Product]decimal.Decimal{
		product.Academy:   a.AcademyPercent,
		product.Intensive: a.IntensivePercent,
		product.NIAT:      a.NIATPercent,
	}
}

// ContributionRecords converts the allocation into hours, one record per
// product with a non-zero percentage.
func (a Allocation) ContributionRecords() []contribution.Record {
	percents := a.Percents()
	id := a.ID

	var records []contribution.Record
	for _, p := range product.All {
		percent := percents[p]
		if !percent.IsPositive() {
			continue
		}
		hours := a.BaselineHours.Mul(percent).Div(hundred).Round(HoursPrecision)
		records = append(records, contribution.Record{
			EmployeeID:           a.EmployeeID,
			Product:              p,
			FeatureOrDescription: a.ProductDescription,
			Hours:                hours,
			Month:                a.Month,
			Source:               contribution.SourceAllocation,
			AllocationID:         &id,
		})
	}
	return records
}

// Submission carries the values a pod lead submits for one row.
type Submission struct {
	AcademyPercent        decimal.Decimal
	IntensivePercent      decimal.Decimal
	NIATPercent           decimal.Decimal
	IsVerifiedDescription bool
}
