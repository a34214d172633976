package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/allocation"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/contribution"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/importer"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/organization"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/product"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type ImportServiceImpl struct {
	organization  organization.OrganizationRepository
	allocations   allocation.AllocationService
	features      product.FeatureRepository
	contributions contribution.ContributionRepository
	cache         cache.RollupCache
}

func NewImportService(
	org organization.OrganizationRepository,
	allocations allocation.AllocationService,
	features product.FeatureRepository,
	contributions contribution.ContributionRepository,
	rollups cache.RollupCache,
) importer.ImportService {
	return &ImportServiceImpl{
		organization:  org,
		allocations:   allocations,
		features:      features,
		contributions: contributions,
		cache:         rollups,
	}
}

func readTable(upload importer.Upload, columns []string) (*spreadsheet.Table, error) {
	table, err := spreadsheet.Read(upload.File, upload.Filename)
	if err != nil {
		return nil, err
	}
	if err := table.Require(columns...); err != nil {
		return nil, err
	}
	return table, nil
}

func rowError(row spreadsheet.Row, field, message string) importer.RowError {
	return importer.RowError{Row: row.Number, Field: field, Message: message}
}

// employeeLookup memoises employee_code lookups for the duration of one file.
type employeeLookup struct {
	org   organization.OrganizationRepository
	cache map[string]*organization.Employee
}

func newEmployeeLookup(org organization.OrganizationRepository) *employeeLookup {
	return &employeeLookup{org: org, cache: make(map[string]*organization.Employee)}
}

// get returns nil when the code is unknown.
func (l *employeeLookup) get(ctx context.Context, code string) (*organization.Employee, error) {
	key := strings.ToUpper(code)
	if e, ok := l.cache[key]; ok {
		return e, nil
	}
	found, err := l.org.GetEmployeeByCode(ctx, code)
	switch {
	case errors.Is(err, organization.ErrEmployeeNotFound):
		l.cache[key] = nil
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get employee by code: %w", err)
	}
	l.cache[key] = &found
	return &found, nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

// parseHours reads a non-negative decimal cell.
func parseHours(raw string) (decimal.Decimal, error) {
	hours, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, errors.New("must be a number")
	}
	if hours.IsNegative() {
		return decimal.Zero, errors.New("must not be negative")
	}
	return hours, nil
}

// ========== EMPLOYEES ==========

func parseEmployeeRow(row spreadsheet.Row) (organization.UpsertEmployeeInput, []importer.RowError) {
	var errs []importer.RowError

	input := organization.UpsertEmployeeInput{
		Code:           row.Get("employee_code"),
		Name:           row.Get("name"),
		Role:           row.Get("role"),
		DepartmentName: row.Get("department"),
		PodName:        row.Get("pod"),
		IsPodLead:      parseBool(row.Get("is_pod_lead")),
	}

	if validator.IsEmpty(input.Code) {
		errs = append(errs, rowError(row, "employee_code", "is required"))
	} else if !validator.IsValidEmployeeCode(input.Code) {
		errs = append(errs, rowError(row, "employee_code", "is not a valid employee code"))
	}
	if validator.IsEmpty(input.Name) {
		errs = append(errs, rowError(row, "name", "is required"))
	}
	if validator.IsEmpty(input.DepartmentName) {
		errs = append(errs, rowError(row, "department", "is required"))
	}
	if validator.IsEmpty(input.PodName) {
		errs = append(errs, rowError(row, "pod", "is required"))
	}
	if email := row.Get("email"); email != "" {
		if !validator.IsValidEmail(email) {
			errs = append(errs, rowError(row, "email", "is not a valid email"))
		} else {
			input.Email = &email
		}
	}

	// A pod lead flagged without a role still needs pod lead rights.
	if input.IsPodLead && user.ParseRole(input.Role) == user.RoleEmployee {
		input.Role = string(user.RolePodLead)
	}
	return input, errs
}

// ImportEmployees implements importer.ImportService.
func (s *ImportServiceImpl) ImportEmployees(ctx context.Context, identity user.Identity, req importer.ImportEmployeesRequest) (importer.ImportEmployeesResponse, error) {
	var resp importer.ImportEmployeesResponse

	if !user.HasPermission(identity.Role, user.PermissionDataImport) {
		return resp, user.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return resp, err
	}
	table, err := readTable(req.Upload, importer.EmployeeColumns)
	if err != nil {
		return resp, err
	}

	resp.Errors = []importer.RowError{}
	for _, row := range table.Rows {
		resp.Summary.TotalRows++

		input, rowErrs := parseEmployeeRow(row)
		if len(rowErrs) > 0 {
			resp.Errors = append(resp.Errors, rowErrs...)
			continue
		}

		result, err := s.organization.UpsertEmployee(ctx, input)
		if err != nil {
			return importer.ImportEmployeesResponse{}, fmt.Errorf("failed to import row %d: %w", row.Number, err)
		}
		if result.EmployeeCreated {
			resp.Summary.CreatedEmployees++
		} else {
			resp.Summary.UpdatedEmployees++
		}
		if result.DepartmentCreated {
			resp.Summary.CreatedDepartments++
		}
		if result.PodCreated {
			resp.Summary.CreatedPods++
		}
		if input.IsPodLead {
			resp.Summary.PodLeadsAssigned++
		}
	}

	resp.Summary.ErrorCount = len(resp.Errors)
	resp.HasErrors = resp.Summary.ErrorCount > 0

	if resp.Summary.CreatedEmployees+resp.Summary.UpdatedEmployees > 0 {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			slog.Error("Failed to invalidate rollup cache", "error", err)
		}
	}

	slog.Info("Employees imported",
		"employee_id", identity.EmployeeID,
		"created", resp.Summary.CreatedEmployees,
		"updated", resp.Summary.UpdatedEmployees,
		"errors", resp.Summary.ErrorCount,
	)
	return resp, nil
}

// ========== INITIAL ALLOCATIONS ==========

type podRows struct {
	podID     string
	employees map[string]bool
	rows      []allocation.SeedRow
}

// UploadInitial implements importer.ImportService.
func (s *ImportServiceImpl) UploadInitial(ctx context.Context, identity user.Identity, req importer.InitialUploadRequest) (importer.InitialUploadResponse, error) {
	var resp importer.InitialUploadResponse

	if !user.HasPermission(identity.Role, user.PermissionDataImport) {
		return resp, user.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return resp, err
	}
	table, err := readTable(req.Upload, importer.InitialColumns)
	if err != nil {
		return resp, err
	}

	resp.Errors = []importer.RowError{}
	lookup := newEmployeeLookup(s.organization)
	employees := make(map[string]bool)

	var order []*podRows
	byPod := make(map[string]*podRows)

	for _, row := range table.Rows {
		code := row.Get("employee_code")
		if validator.IsEmpty(code) {
			resp.Errors = append(resp.Errors, rowError(row, "employee_code", "is required"))
			continue
		}
		employee, err := lookup.get(ctx, code)
		if err != nil {
			return importer.InitialUploadResponse{}, err
		}
		if employee == nil {
			resp.Errors = append(resp.Errors, rowError(row, "employee_code", organization.ErrEmployeeNotFound.Error()))
			continue
		}
		if employee.PodID == "" {
			resp.Errors = append(resp.Errors, rowError(row, "employee_code", "employee is not assigned to a pod"))
			continue
		}

		p, ok := product.Parse(row.Get("product"))
		if !ok {
			resp.Errors = append(resp.Errors, rowError(row, "product", fmt.Sprintf("unknown product %q", row.Get("product"))))
			continue
		}
		description := row.Get("product_description")
		if validator.IsEmpty(description) {
			resp.Errors = append(resp.Errors, rowError(row, "product_description", "is required"))
			continue
		}
		baseline, err := parseHours(row.Get("baseline_hours"))
		if err != nil {
			resp.Errors = append(resp.Errors, rowError(row, "baseline_hours", err.Error()))
			continue
		}

		seed := allocation.SeedRow{
			EmployeeID:         employee.ID,
			PodID:              employee.PodID,
			Product:            string(p),
			ProductDescription: description,
			BaselineHours:      baseline,
			Month:              req.Month,
		}
		if features := row.Get("features_text"); features != "" {
			seed.FeaturesText = &features
		}

		group, ok := byPod[employee.PodID]
		if !ok {
			group = &podRows{podID: employee.PodID, employees: make(map[string]bool)}
			byPod[employee.PodID] = group
			order = append(order, group)
		}
		group.employees[employee.ID] = true
		group.rows = append(group.rows, seed)
		employees[employee.ID] = true
	}

	var (
		seeds   []allocation.SeedRow
		podIDs  []string
		teams   []*importer.Team
		teamOf  = make(map[string]*importer.Team)
		podTeam = make(map[string]*importer.Team)
	)
	for _, group := range order {
		pod, err := s.organization.GetPodByID(ctx, group.podID)
		if err != nil {
			return importer.InitialUploadResponse{}, err
		}

		department := deref(pod.DepartmentName)
		team, ok := teamOf[department]
		if !ok {
			team = &importer.Team{
				Department:  department,
				Pods:        []allocation.SheetInfo{},
				SkippedPods: []importer.SkippedPod{},
			}
			teamOf[department] = team
			teams = append(teams, team)
		}

		if !pod.HasLead() {
			team.PodsSkipped++
			team.SkippedPods = append(team.SkippedPods, importer.SkippedPod{
				PodName:       pod.Name,
				EmployeeCount: len(group.employees),
				Reason:        allocation.ErrPodHasNoLead.Error(),
			})
			resp.Summary.PodsSkipped++
			slog.Warn("Skipping pod without a pod lead", "pod_id", pod.ID, "month", req.Month, "rows", len(group.rows))
			continue
		}

		seeds = append(seeds, group.rows...)
		podIDs = append(podIDs, pod.ID)
		podTeam[pod.ID] = team
	}

	if len(seeds) > 0 {
		created, err := s.allocations.SeedPending(ctx, seeds)
		if err != nil {
			return importer.InitialUploadResponse{}, err
		}
		resp.Summary.CreatedAllocations = created

		sheets, err := s.allocations.GenerateSheets(ctx, req.Month, podIDs)
		if err != nil {
			return importer.InitialUploadResponse{}, err
		}
		for _, sheet := range sheets {
			team := podTeam[sheet.PodID]
			team.Pods = append(team.Pods, sheet)
			team.PodsWithSheets++
		}
		resp.Summary.GeneratedSheets = len(sheets)
		resp.Summary.PodsWithSheets = len(sheets)
	}

	resp.Teams = make([]importer.Team, 0, len(teams))
	for _, team := range teams {
		resp.Teams = append(resp.Teams, *team)
	}

	resp.Summary.Month = req.Month
	resp.Summary.TotalEmployees = len(employees)
	resp.Summary.TotalPodsInFile = len(order)
	resp.Summary.TeamsProcessed = len(resp.Teams)
	resp.HasErrors = len(resp.Errors) > 0

	slog.Info("Initial allocations uploaded",
		"month", req.Month,
		"employee_id", identity.EmployeeID,
		"created", resp.Summary.CreatedAllocations,
		"sheets", resp.Summary.GeneratedSheets,
		"pods_skipped", resp.Summary.PodsSkipped,
		"errors", len(resp.Errors),
	)
	return resp, nil
}

// ========== FEATURES ==========

type featureKey struct {
	employeeID string
	product    product.Product
	feature    string
}

func catalogueKey(p product.Product, name string) string {
	return string(p) + "\x00" + strings.ToLower(name)
}

// UploadFeatures implements importer.ImportService. Lines repeating an
// employee, product and feature are summed. Feature names match case-insensitively
// and records carry the spelling already stored in the catalogue.
func (s *ImportServiceImpl) UploadFeatures(ctx context.Context, identity user.Identity, req importer.FeatureUploadRequest) (importer.FeatureUploadResponse, error) {
	var resp importer.FeatureUploadResponse

	if !user.HasPermission(identity.Role, user.PermissionDataImport) {
		return resp, user.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return resp, err
	}
	table, err := readTable(req.Upload, importer.FeatureColumns)
	if err != nil {
		return resp, err
	}

	resp.Errors = []importer.RowError{}
	lookup := newEmployeeLookup(s.organization)

	var (
		keys     []featureKey
		hours     = make(map[featureKey]decimal.Decimal)
		features  []product.Feature
		seen      = make(map[string]bool)
		canonical = make(map[string]string)
	)

	for _, row := range table.Rows {
		resp.Summary.TotalRows++

		code := row.Get("employee_code")
		if validator.IsEmpty(code) {
			resp.Errors = append(resp.Errors, rowError(row, "employee_code", "is required"))
			continue
		}
		employee, err := lookup.get(ctx, code)
		if err != nil {
			return importer.FeatureUploadResponse{}, err
		}
		if employee == nil {
			resp.Errors = append(resp.Errors, rowError(row, "employee_code", organization.ErrEmployeeNotFound.Error()))
			continue
		}

		p, ok := product.Parse(row.Get("product"))
		if !ok {
			resp.Errors = append(resp.Errors, rowError(row, "product", fmt.Sprintf("unknown product %q", row.Get("product"))))
			continue
		}
		name := row.Get("feature")
		if validator.IsEmpty(name) {
			resp.Errors = append(resp.Errors, rowError(row, "feature", "is required"))
			continue
		}
		h, err := parseHours(row.Get("hours"))
		if err != nil {
			resp.Errors = append(resp.Errors, rowError(row, "hours", err.Error()))
			continue
		}

		featureID := catalogueKey(p, name)
		if !seen[featureID] {
			seen[featureID] = true
			f := product.Feature{Name: name, Product: p}
			if description := row.Get("description"); description != "" {
				f.Description = &description
			}
			features = append(features, f)
		}

		key := featureKey{employeeID: employee.ID, product: p, feature: strings.ToLower(name)}
		if _, ok := hours[key]; !ok {
			keys = append(keys, key)
		}
		hours[key] = hours[key].Add(h)
	}

	for _, f := range features {
		stored, err := s.features.Upsert(ctx, f)
		if err != nil {
			return importer.FeatureUploadResponse{}, fmt.Errorf("failed to upsert feature: %w", err)
		}
		canonical[catalogueKey(f.Product, f.Name)] = stored.Name
	}

	records := make([]contribution.Record, 0, len(keys))
	for _, key := range keys {
		records = append(records, contribution.Record{
			EmployeeID:           key.employeeID,
			Product:              key.product,
			FeatureOrDescription: canonical[catalogueKey(key.product, key.feature)],
			Hours:                hours[key].Round(allocation.HoursPrecision),
			Month:                req.Month,
			Source:               contribution.SourceFeatureUpload,
		})
	}
	if len(records) > 0 {
		if _, err := s.contributions.ReplaceHours(ctx, records); err != nil {
			return importer.FeatureUploadResponse{}, fmt.Errorf("failed to write contribution records: %w", err)
		}
		if err := cache.InvalidateMonth(ctx, s.cache, req.Month); err != nil {
			slog.Error("Failed to invalidate rollup cache", "month", req.Month, "error", err)
		}
	}

	resp.Summary.Features = len(features)
	resp.Summary.CreatedRecords = len(records)
	resp.Summary.Month = req.Month
	resp.Summary.ErrorCount = len(resp.Errors)
	resp.HasErrors = resp.Summary.ErrorCount > 0

	slog.Info("Feature contributions uploaded",
		"month", req.Month,
		"employee_id", identity.EmployeeID,
		"records", resp.Summary.CreatedRecords,
		"errors", resp.Summary.ErrorCount,
	)
	return resp, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
