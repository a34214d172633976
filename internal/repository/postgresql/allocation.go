package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/allocation"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/product"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type allocationRepositoryImpl struct {
	db *database.DB
}

func NewAllocationRepository(db *database.DB) allocation.AllocationRepository {
	return &allocationRepositoryImpl{db: db}
}

// WithPodMonthLock implements allocation.AllocationRepository. The lock is
// a transaction scoped advisory lock, released on commit or rollback.
func (r *allocationRepositoryImpl) WithPodMonthLock(ctx context.Context, podID, month string, fn func(ctx context.Context) error) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)
		if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "allocation:"+podID+":"+month); err != nil {
			return fmt.Errorf("failed to lock allocations of pod %s for %s: %w", podID, month, err)
		}
		return fn(ctx)
	})
}

// ListByPodMonth implements allocation.AllocationRepository.
func (r *allocationRepositoryImpl) ListByPodMonth(ctx context.Context, podID, month string) ([]allocation.Allocation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			a.id, a.employee_id, a.pod_id, a.product, a.product_description,
			a.academy_percent, a.intensive_percent, a.niat_percent,
			a.features_text, a.is_verified_description, a.baseline_hours,
			a.status, a.month, a.submitted_at, a.processed_at, a.created_at, a.updated_at,
			e.employee_code, e.name, e.email
		FROM allocations a
		JOIN employees e ON e.id = a.employee_id
		WHERE a.pod_id = $1 AND a.month = $2
		ORDER BY e.name, a.created_at, a.id
	`

	rows, err := q.Query(ctx, query, podID, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations of pod %s for %s: %w", podID, month, err)
	}
	defer rows.Close()

	var allocations []allocation.Allocation
	for rows.Next() {
		var (
			a                   allocation.Allocation
			productName, status string
			code, name          string
			email               *string
		)
		err := rows.Scan(
			&a.ID, &a.EmployeeID, &a.PodID, &productName, &a.ProductDescription,
			&a.AcademyPercent, &a.IntensivePercent, &a.NIATPercent,
			&a.FeaturesText, &a.IsVerifiedDescription, &a.BaselineHours,
			&status, &a.Month, &a.SubmittedAt, &a.ProcessedAt, &a.CreatedAt, &a.UpdatedAt,
			&code, &name, &email,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		a.Product = product.Product(productName)
		a.Status = allocation.Status(status)
		a.EmployeeCode, a.EmployeeName, a.EmployeeEmail = &code, &name, email
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

// ApplySubmission implements allocation.AllocationRepository.
func (r *allocationRepositoryImpl) ApplySubmission(ctx context.Context, id string, submission allocation.Submission) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE allocations SET
			academy_percent = $2,
			intensive_percent = $3,
			niat_percent = $4,
			is_verified_description = $5,
			status = 'SUBMITTED',
			submitted_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND status <> 'PROCESSED'
		RETURNING id
	`

	var updated string
	err := q.QueryRow(ctx, query, id,
		submission.AcademyPercent, submission.IntensivePercent, submission.NIATPercent,
		submission.IsVerifiedDescription,
	).Scan(&updated)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to apply submission to allocation %s: %w", id, err)
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM allocations WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check allocation %s: %w", id, err)
	}
	if !exists {
		return allocation.ErrAllocationNotFound
	}
	return allocation.ErrAllocationProcessed
}

// MarkProcessed implements allocation.AllocationRepository.
func (r *allocationRepositoryImpl) MarkProcessed(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE allocations
		SET status = 'PROCESSED', processed_at = NOW(), updated_at = NOW()
		WHERE id = ANY($1::uuid[]) AND status = 'SUBMITTED'
	`

	tag, err := q.Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to mark allocations processed: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// CreatePending implements allocation.AllocationRepository.
func (r *allocationRepositoryImpl) CreatePending(ctx context.Context, allocations []allocation.Allocation) (int, error) {
	created := 0
	err := WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		query := `
			INSERT INTO allocations (
				employee_id, pod_id, product, product_description,
				features_text, baseline_hours, month, status
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'PENDING')
			ON CONFLICT ON CONSTRAINT allocations_key DO NOTHING
		`

		for _, a := range allocations {
			tag, err := q.Exec(ctx, query,
				a.EmployeeID, a.PodID, string(a.Product), a.ProductDescription,
				a.FeaturesText, a.BaselineHours, a.Month,
			)
			if err != nil {
				return fmt.Errorf("failed to create pending allocation for employee %s: %w", a.EmployeeID, err)
			}
			created += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// ListPodIDsByMonth implements allocation.AllocationRepository.
func (r *allocationRepositoryImpl) ListPodIDsByMonth(ctx context.Context, month string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT DISTINCT pod_id::text FROM allocations WHERE month = $1 ORDER BY 1`, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list pods with allocations for %s: %w", month, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan pod id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountUnprocessed implements allocation.AllocationRepository.
func (r *allocationRepositoryImpl) CountUnprocessed(ctx context.Context, month string) (int, error) {
	q := GetQuerier(ctx, r.db)

	var n int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM allocations WHERE month = $1 AND status <> 'PROCESSED'`, month).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unprocessed allocations for %s: %w", month, err)
	}
	return n, nil
}
