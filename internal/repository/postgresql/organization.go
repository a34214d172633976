package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/organization"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type organizationRepositoryImpl struct {
	db *database.DB
}

func NewOrganizationRepository(db *database.DB) organization.OrganizationRepository {
	return &organizationRepositoryImpl{db: db}
}

// GetDepartmentByID implements organization.OrganizationRepository.
func (r *organizationRepositoryImpl) GetDepartmentByID(ctx context.Context, id string) (organization.Department, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, created_at, updated_at
		FROM departments
		WHERE id = $1
	`

	var d organization.Department
	err := q.QueryRow(ctx, query, id).Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return organization.Department{}, organization.ErrDepartmentNotFound
		}
		return organization.Department{}, fmt.Errorf("failed to get department by id %s: %w", id, err)
	}
	return d, nil
}

// ListDepartments implements organization.OrganizationRepository.
func (r *organizationRepositoryImpl) ListDepartments(ctx context.Context) ([]organization.Department, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT id, name, created_at, updated_at FROM departments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	var departments []organization.Department
	for rows.Next() {
		var d organization.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

const podColumns = `
	p.id, p.name, p.department_id, p.pod_lead_employee_id, p.created_at, p.updated_at, d.name
`

func scanPod(row pgx.Row) (organization.Pod, error) {
	var p organization.Pod
	err := row.Scan(&p.ID, &p.Name, &p.DepartmentID, &p.PodLeadEmployeeID, &p.CreatedAt, &p.UpdatedAt, &p.DepartmentName)
	return p, err
}

// GetPodByID implements organization.OrganizationRepository.
func (r *organizationRepositoryImpl) GetPodByID(ctx context.Context, id string) (organization.Pod, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + podColumns + `
		FROM pods p
		JOIN departments d ON d.id = p.department_id
		WHERE p.id = $1
	`

	p, err := scanPod(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return organization.Pod{}, organization.ErrPodNotFound
		}
		return organization.Pod{}, fmt.Errorf("failed to get pod by id %s: %w", id, err)
	}
	return p, nil
}

// ListPods implements organization.OrganizationRepository.
func (r *organizationRepositoryImpl) ListPods(ctx context.Context) ([]organization.Pod, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + podColumns + `
		FROM pods p
		JOIN departments d ON d.id = p.department_id
		ORDER BY p.name
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}
	defer rows.Close()

	var pods []organization.Pod
	for rows.Next() {
		p, err := scanPod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pod: %w", err)
		}
		pods = append(pods, p)
	}
	return pods, rows.Err()
}

const employeeColumns = `
	e.id, e.employee_code, e.name, e.email, e.role, e.department_id, e.pod_id,
	e.created_at, e.updated_at, d.name, p.name
`

const employeeJoins = `
	FROM employees e
	JOIN departments d ON d.id = e.department_id
	JOIN pods p ON p.id = e.pod_id
`

func scanEmployee(row pgx.Row) (organization.Employee, error) {
	var (
		e    organization.Employee
		role string
	)
	err := row.Scan(
		&e.ID, &e.Code, &e.Name, &e.Email, &role, &e.DepartmentID, &e.PodID,
		&e.CreatedAt, &e.UpdatedAt, &e.DepartmentName, &e.PodName,
	)
	e.Role = user.ParseRole(role)
	return e, err
}

func (r *organizationRepositoryImpl) getEmployee(ctx context.Context, where string, arg string) (organization.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + employeeJoins + `WHERE ` + where

	e, err := scanEmployee(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return organization.Employee{}, organization.ErrEmployeeNotFound
		}
		return organization.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

// GetEmployeeByID implements organization.OrganizationRepository.
func (r *organizationRepositoryImpl) GetEmployeeByID(ctx context.Context, id string) (organization.Employee, error) {
	return r.getEmployee(ctx, `e.id = $1`, id)
}

// GetEmployeeByCode implements organization.OrganizationRepository.
func (r *organizationRepositoryImpl) GetEmployeeByCode(ctx context.Context, code string) (organization.Employee, error) {
	return r.getEmployee(ctx, `UPPER(e.employee_code) = UPPER($1)`, code)
}

// ListEmployeesByPod implements organization.OrganizationRepository.
func (r *organizationRepositoryImpl) ListEmployeesByPod(ctx context.Context, podID string) ([]organization.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + employeeJoins + `WHERE e.pod_id = $1 ORDER BY e.name`

	rows, err := q.Query(ctx, query, podID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees of pod %s: %w", podID, err)
	}
	defer rows.Close()

	var employees []organization.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// UpsertEmployee implements organization.OrganizationRepository. Each
// upsert reports whether it inserted through xmax, which is zero only for
// freshly inserted rows.
func (r *organizationRepositoryImpl) UpsertEmployee(ctx context.Context, input organization.UpsertEmployeeInput) (organization.UpsertEmployeeResult, error) {
	var result organization.UpsertEmployeeResult

	err := WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		var departmentID string
		err := q.QueryRow(ctx, `
			INSERT INTO departments (name) VALUES ($1)
			ON CONFLICT ((LOWER(name))) DO UPDATE SET updated_at = departments.updated_at
			RETURNING id, (xmax = 0)
		`, input.DepartmentName).Scan(&departmentID, &result.DepartmentCreated)
		if err != nil {
			return fmt.Errorf("failed to upsert department %q: %w", input.DepartmentName, err)
		}

		var podID string
		err = q.QueryRow(ctx, `
			INSERT INTO pods (name, department_id) VALUES ($1, $2)
			ON CONFLICT (department_id, (LOWER(name))) DO UPDATE SET updated_at = pods.updated_at
			RETURNING id, (xmax = 0)
		`, input.PodName, departmentID).Scan(&podID, &result.PodCreated)
		if err != nil {
			return fmt.Errorf("failed to upsert pod %q: %w", input.PodName, err)
		}

		var employeeID string
		err = q.QueryRow(ctx, `
			INSERT INTO employees (employee_code, name, email, role, department_id, pod_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT ((UPPER(employee_code))) DO UPDATE SET
				name = EXCLUDED.name,
				email = EXCLUDED.email,
				role = EXCLUDED.role,
				department_id = EXCLUDED.department_id,
				pod_id = EXCLUDED.pod_id,
				updated_at = NOW()
			RETURNING id, (xmax = 0)
		`, input.Code, input.Name, input.Email, string(user.ParseRole(input.Role)), departmentID, podID).Scan(&employeeID, &result.EmployeeCreated)
		if err != nil {
			return fmt.Errorf("failed to upsert employee %q: %w", input.Code, err)
		}

		if input.IsPodLead {
			_, err = q.Exec(ctx, `
				UPDATE pods SET pod_lead_employee_id = $1, updated_at = NOW()
				WHERE id = $2
			`, employeeID, podID)
			if err != nil {
				return fmt.Errorf("failed to assign pod lead: %w", err)
			}
		}

		result.Employee, err = r.GetEmployeeByID(ctx, employeeID)
		return err
	})
	if err != nil {
		return organization.UpsertEmployeeResult{}, err
	}
	return result, nil
}
