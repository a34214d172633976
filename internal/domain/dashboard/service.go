package dashboard

import (
	"context"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
)

// DashboardService answers rollup queries for a month. Every operation
// checks the caller's identity before reading.
type DashboardService interface {
	GetOrgDashboard(ctx context.Context, identity user.Identity, month string) (*OrgDashboardResponse, error)

	GetDepartmentDashboard(ctx context.Context, identity user.Identity, departmentID, month string) (*DepartmentDashboardResponse, error)

	GetPodContributions(ctx context.Context, identity user.Identity, podID, month string) (*PodContributionsResponse, error)

	GetEmployeeContributions(ctx context.Context, identity user.Identity, employeeID, month string) (*EmployeeContributionsResponse, error)
}
