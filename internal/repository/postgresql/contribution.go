package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/contribution"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/product"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/database"
)

type contributionRepositoryImpl struct {
	db *database.DB
}

func NewContributionRepository(db *database.DB) contribution.ContributionRepository {
	return &contributionRepositoryImpl{db: db}
}

const upsertRecordQuery = `
	INSERT INTO contribution_records (
		employee_id, product, feature_or_description, hours, month, source, allocation_id
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT ON CONSTRAINT contribution_records_key DO UPDATE SET
		hours = %s,
		allocation_id = COALESCE(EXCLUDED.allocation_id, contribution_records.allocation_id),
		updated_at = NOW()
`

func (r *contributionRepositoryImpl) upsert(ctx context.Context, records []contribution.Record, hoursExpr string) (int, error) {
	query := fmt.Sprintf(upsertRecordQuery, hoursExpr)

	err := WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)
		for _, rec := range records {
			_, err := q.Exec(ctx, query,
				rec.EmployeeID, string(rec.Product), rec.FeatureOrDescription,
				rec.Hours, rec.Month, string(rec.Source), rec.AllocationID,
			)
			if err != nil {
				return fmt.Errorf("failed to write contribution record for employee %s: %w", rec.EmployeeID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// AddHours implements contribution.ContributionRepository.
func (r *contributionRepositoryImpl) AddHours(ctx context.Context, records []contribution.Record) (int, error) {
	return r.upsert(ctx, records, "contribution_records.hours + EXCLUDED.hours")
}

// ReplaceHours implements contribution.ContributionRepository.
func (r *contributionRepositoryImpl) ReplaceHours(ctx context.Context, records []contribution.Record) (int, error) {
	return r.upsert(ctx, records, "EXCLUDED.hours")
}

// ListScoped implements contribution.ContributionRepository.
func (r *contributionRepositoryImpl) ListScoped(ctx context.Context, filter contribution.Filter) ([]contribution.ScopedRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			c.id, c.employee_id, c.product, c.feature_or_description, c.hours,
			c.month, c.source, c.allocation_id, c.created_at,
			e.employee_code, e.name, p.id, p.name, d.id, d.name
		FROM contribution_records c
		JOIN employees e ON e.id = c.employee_id
		JOIN pods p ON p.id = e.pod_id
		JOIN departments d ON d.id = e.department_id
		WHERE c.month = $1
			AND ($2::uuid IS NULL OR e.department_id = $2::uuid)
			AND ($3::uuid IS NULL OR e.pod_id = $3::uuid)
			AND ($4::uuid IS NULL OR e.id = $4::uuid)
		ORDER BY d.name, p.name, e.name, c.created_at, c.id
	`

	rows, err := q.Query(ctx, query, filter.Month, filter.DepartmentID, filter.PodID, filter.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contribution records for %s: %w", filter.Month, err)
	}
	defer rows.Close()

	var records []contribution.ScopedRecord
	for rows.Next() {
		var (
			rec                 contribution.ScopedRecord
			productName, source string
		)
		err := rows.Scan(
			&rec.ID, &rec.EmployeeID, &productName, &rec.FeatureOrDescription, &rec.Hours,
			&rec.Month, &source, &rec.AllocationID, &rec.CreatedAt,
			&rec.EmployeeCode, &rec.EmployeeName, &rec.PodID, &rec.PodName, &rec.DepartmentID, &rec.DepartmentName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contribution record: %w", err)
		}
		rec.Product = product.Product(productName)
		rec.Source = contribution.Source(source)
		records = append(records, rec)
	}
	return records, rows.Err()
}
