package dashboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/contribution"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/organization"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/validator"
	"golang.org/x/sync/errgroup"
)

type DashboardServiceImpl struct {
	contributions contribution.ContributionRepository
	organization  organization.OrganizationRepository
	cache         cache.RollupCache
	topN          int
}

func NewDashboardService(contributions contribution.ContributionRepository, org organization.OrganizationRepository, rollups cache.RollupCache, topN int) dashboard.DashboardService {
	return &DashboardServiceImpl{
		contributions: contributions,
		organization:  org,
		cache:         rollups,
		topN:          topN,
	}
}

// cached serves key from the month's rollup cache, computing and storing it on a miss.
// Cache failures are logged and fall through to compute.
func cached[T any](ctx context.Context, c cache.RollupCache, month, key string, compute func(ctx context.Context) (*T, error)) (*T, error) {
	var hit T
	found, token, err := c.Lookup(ctx, month, key, &hit)
	if err != nil {
		slog.Warn("Rollup cache lookup failed", "month", month, "key", key, "error", err)
	}
	if found {
		return &hit, nil
	}

	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	if token.Month != "" {
		if storeErr := c.Store(ctx, token, key, value); storeErr != nil {
			slog.Warn("Rollup cache store failed", "month", month, "key", key, "error", storeErr)
		}
	}
	return value, nil
}

// GetOrgDashboard implements dashboard.DashboardService.
func (s *DashboardServiceImpl) GetOrgDashboard(ctx context.Context, identity user.Identity, month string) (*dashboard.OrgDashboardResponse, error) {
	if err := validator.ValidateMonth(month); err != nil {
		return nil, err
	}
	if !user.HasPermission(identity.Role, user.PermissionDashboardOrg) {
		return nil, user.ErrForbidden
	}

	return cached(ctx, s.cache, month, "org", func(ctx context.Context) (*dashboard.OrgDashboardResponse, error) {
		records, err := s.contributions.ListScoped(ctx, contribution.Filter{Month: month})
		if err != nil {
			return nil, fmt.Errorf("failed to load contributions: %w", err)
		}
		return BuildOrgDashboard(month, records, s.topN), nil
	})
}

// GetDepartmentDashboard implements dashboard.DashboardService.
func (s *DashboardServiceImpl) GetDepartmentDashboard(ctx context.Context, identity user.Identity, departmentID, month string) (*dashboard.DepartmentDashboardResponse, error) {
	if err := validator.ValidateMonth(month); err != nil {
		return nil, err
	}
	if !organization.CanViewDepartment(identity, departmentID) {
		return nil, user.ErrForbidden
	}

	return cached(ctx, s.cache, month, "department:"+departmentID, func(ctx context.Context) (*dashboard.DepartmentDashboardResponse, error) {
		var (
			department organization.Department
			records    []contribution.ScopedRecord
		)

		g, gCtx := errgroup.WithContext(ctx)

		g.Go(func() error {
			var err error
			department, err = s.organization.GetDepartmentByID(gCtx, departmentID)
			return err
		})

		g.Go(func() error {
			var err error
			records, err = s.contributions.ListScoped(gCtx, contribution.Filter{Month: month, DepartmentID: &departmentID})
			if err != nil {
				return fmt.Errorf("failed to load contributions: %w", err)
			}
			return nil
		})

		if err := g.Wait(); err != nil {
			return nil, err
		}
		return BuildDepartmentDashboard(department.ID, department.Name, month, records), nil
	})
}

// GetPodContributions implements dashboard.DashboardService.
func (s *DashboardServiceImpl) GetPodContributions(ctx context.Context, identity user.Identity, podID, month string) (*dashboard.PodContributionsResponse, error) {
	if err := validator.ValidateMonth(month); err != nil {
		return nil, err
	}
	if !user.HasPermission(identity.Role, user.PermissionDashboardPod) {
		return nil, user.ErrForbidden
	}

	pod, err := s.organization.GetPodByID(ctx, podID)
	if err != nil {
		return nil, err
	}
	if !organization.CanViewPod(identity, pod) {
		return nil, user.ErrForbidden
	}

	return cached(ctx, s.cache, month, "pod:"+podID, func(ctx context.Context) (*dashboard.PodContributionsResponse, error) {
		records, err := s.contributions.ListScoped(ctx, contribution.Filter{Month: month, PodID: &podID})
		if err != nil {
			return nil, fmt.Errorf("failed to load contributions: %w", err)
		}
		return BuildPodContributions(pod.ID, pod.Name, month, records), nil
	})
}

// GetEmployeeContributions implements dashboard.DashboardService.
func (s *DashboardServiceImpl) GetEmployeeContributions(ctx context.Context, identity user.Identity, employeeID, month string) (*dashboard.EmployeeContributionsResponse, error) {
	if err := validator.ValidateMonth(month); err != nil {
		return nil, err
	}
	if !user.HasPermission(identity.Role, user.PermissionDashboardEmployee) {
		return nil, user.ErrForbidden
	}

	employee, err := s.organization.GetEmployeeByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !organization.CanViewEmployee(identity, employee) {
		return nil, user.ErrForbidden
	}

	return cached(ctx, s.cache, month, "employee:"+employeeID, func(ctx context.Context) (*dashboard.EmployeeContributionsResponse, error) {
		records, err := s.contributions.ListScoped(ctx, contribution.Filter{Month: month, EmployeeID: &employeeID})
		if err != nil {
			return nil, fmt.Errorf("failed to load contributions: %w", err)
		}
		return BuildEmployeeContributions(employee.ID, employee.Code, employee.Name, month, records), nil
	})
}
