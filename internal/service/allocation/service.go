package allocation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/allocation"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/contribution"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/organization"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/product"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/contribution-backend-go/internal/service/file"
)

type AllocationServiceImpl struct {
	allocations   allocation.AllocationRepository
	organization  organization.OrganizationRepository
	contributions contribution.ContributionRepository
	files         file.FileService
	cache         cache.RollupCache
}

func NewAllocationService(
	allocations allocation.AllocationRepository,
	org organization.OrganizationRepository,
	contributions contribution.ContributionRepository,
	files file.FileService,
	rollups cache.RollupCache,
) allocation.AllocationService {
	return &AllocationServiceImpl{
		allocations:   allocations,
		organization:  org,
		contributions: contributions,
		files:         files,
		cache:         rollups,
	}
}

func toResponse(a allocation.Allocation) allocation.AllocationResponse {
	return allocation.AllocationResponse{
		ID:                    a.ID,
		EmployeeID:            a.EmployeeID,
		EmployeeCode:          deref(a.EmployeeCode),
		EmployeeName:          deref(a.EmployeeName),
		Email:                 deref(a.EmployeeEmail),
		Product:               string(a.Product),
		ProductDescription:    a.ProductDescription,
		AcademyPercent:        a.AcademyPercent,
		IntensivePercent:      a.IntensivePercent,
		NIATPercent:           a.NIATPercent,
		FeaturesText:          a.FeaturesText,
		IsVerifiedDescription: a.IsVerifiedDescription,
		BaselineHours:         a.BaselineHours,
		Status:                a.Status,
		TotalPercent:          a.TotalPercent(),
		Month:                 a.Month,
	}
}

func toResponses(rows []allocation.Allocation) []allocation.AllocationResponse {
	out := make([]allocation.AllocationResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, toResponse(a))
	}
	return out
}

// authorizePod checks the permission and that the pod exists.
func (s *AllocationServiceImpl) authorizePod(ctx context.Context, identity user.Identity, podID string, permission user.Permission) (organization.Pod, error) {
	if !organization.CanManagePodAllocations(identity, podID, permission) {
		return organization.Pod{}, user.ErrForbidden
	}
	return s.organization.GetPodByID(ctx, podID)
}

// GetPodAllocations implements allocation.AllocationService.
func (s *AllocationServiceImpl) GetPodAllocations(ctx context.Context, identity user.Identity, podID, month string) ([]allocation.AllocationResponse, error) {
	if err := validator.ValidateMonth(month); err != nil {
		return nil, err
	}
	if _, err := s.authorizePod(ctx, identity, podID, user.PermissionAllocationView); err != nil {
		return nil, err
	}

	rows, err := s.allocations.ListByPodMonth(ctx, podID, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	return toResponses(rows), nil
}

// SubmitAllocations implements allocation.AllocationService.
func (s *AllocationServiceImpl) SubmitAllocations(ctx context.Context, identity user.Identity, req allocation.SubmitAllocationsRequest) (allocation.SubmitAllocationsResponse, error) {
	var resp allocation.SubmitAllocationsResponse

	// Percent checks reject the whole batch before anything is written.
	if err := req.Validate(); err != nil {
		return resp, err
	}
	pod, err := s.authorizePod(ctx, identity, req.PodID, user.PermissionAllocationSubmit)
	if err != nil {
		return resp, err
	}

	err = s.allocations.WithPodMonthLock(ctx, pod.ID, req.Month, func(ctx context.Context) error {
		rows, err := s.allocations.ListByPodMonth(ctx, pod.ID, req.Month)
		if err != nil {
			return fmt.Errorf("failed to list allocations: %w", err)
		}

		byKey := make(map[allocation.Key]allocation.Allocation, len(rows))
		hasRows := make(map[string]bool)
		for _, a := range rows {
			byKey[a.Key()] = a
			hasRows[a.EmployeeID] = true
		}

		employees := make(map[string]*organization.Employee)
		seen := make(map[allocation.Key]bool)
		updated := 0
		resp.Errors = []allocation.ItemError{}

		for _, item := range req.Allocations {
			itemErr := func(code, message string) {
				resp.Errors = append(resp.Errors, allocation.ItemError{
					EmployeeID:         item.EmployeeID,
					Product:            item.Product,
					ProductDescription: item.ProductDescription,
					Code:               code,
					Message:            message,
				})
			}

			p, ok := product.Parse(item.Product)
			if !ok {
				itemErr(allocation.ItemErrorInvalidProduct, fmt.Sprintf("unknown product %q", item.Product))
				continue
			}

			employee, cachedLookup := employees[item.EmployeeID]
			if !cachedLookup && !validator.IsValidUUID(item.EmployeeID) {
				employees[item.EmployeeID] = nil
				cachedLookup = true
			}
			if !cachedLookup {
				found, err := s.organization.GetEmployeeByID(ctx, item.EmployeeID)
				switch {
				case errors.Is(err, organization.ErrEmployeeNotFound):
					employee = nil
				case err != nil:
					return fmt.Errorf("failed to load employee: %w", err)
				default:
					employee = &found
				}
				employees[item.EmployeeID] = employee
			}
			if employee == nil {
				itemErr(allocation.ItemErrorEmployeeNotFound, organization.ErrEmployeeNotFound.Error())
				continue
			}
			if employee.PodID != pod.ID && !hasRows[employee.ID] {
				itemErr(allocation.ItemErrorEmployeeNotInPod, allocation.ErrEmployeeNotInPod.Error())
				continue
			}

			key := allocation.Key{EmployeeID: item.EmployeeID, Product: p, ProductDescription: item.ProductDescription}
			if seen[key] {
				itemErr(allocation.ItemErrorDuplicateInBatch, "allocation appears more than once in this submission")
				continue
			}
			seen[key] = true

			row, ok := byKey[key]
			if !ok {
				itemErr(allocation.ItemErrorNotFound, allocation.ErrAllocationNotFound.Error())
				continue
			}
			if !row.IsEditable() {
				itemErr(allocation.ItemErrorAlreadyProcessed, allocation.ErrAllocationProcessed.Error())
				continue
			}

			err := s.allocations.ApplySubmission(ctx, row.ID, allocation.Submission{
				AcademyPercent:        item.AcademyPercent,
				IntensivePercent:      item.IntensivePercent,
				NIATPercent:           item.NIATPercent,
				IsVerifiedDescription: item.IsVerifiedDescription,
			})
			if errors.Is(err, allocation.ErrAllocationProcessed) {
				itemErr(allocation.ItemErrorAlreadyProcessed, err.Error())
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to apply submission: %w", err)
			}
			updated++
		}

		after, err := s.allocations.ListByPodMonth(ctx, pod.ID, req.Month)
		if err != nil {
			return fmt.Errorf("failed to list allocations: %w", err)
		}

		resp.Summary = allocation.SubmitSummary{UpdatedAllocations: updated, ErrorCount: len(resp.Errors)}
		resp.Allocations = toResponses(after)
		resp.HasErrors = len(resp.Errors) > 0
		return nil
	})
	if err != nil {
		return allocation.SubmitAllocationsResponse{}, err
	}

	slog.Info("Allocations submitted",
		"pod_id", pod.ID,
		"month", req.Month,
		"employee_id", identity.EmployeeID,
		"updated", resp.Summary.UpdatedAllocations,
		"errors", resp.Summary.ErrorCount,
	)
	return resp, nil
}

// ProcessAllocations implements allocation.AllocationService.
func (s *AllocationServiceImpl) ProcessAllocations(ctx context.Context, identity user.Identity, req allocation.ProcessAllocationsRequest) (allocation.ProcessAllocationsResponse, error) {
	var resp allocation.ProcessAllocationsResponse

	if err := req.Validate(); err != nil {
		return resp, err
	}
	pod, err := s.authorizePod(ctx, identity, req.PodID, user.PermissionAllocationProcess)
	if err != nil {
		return resp, err
	}

	err = s.allocations.WithPodMonthLock(ctx, pod.ID, req.Month, func(ctx context.Context) error {
		rows, err := s.allocations.ListByPodMonth(ctx, pod.ID, req.Month)
		if err != nil {
			return fmt.Errorf("failed to list allocations: %w", err)
		}

		var (
			ids       []string
			records   []contribution.Record
			processed []file.ProcessedRow
			skipped   int
		)
		for _, a := range rows {
			switch a.Status {
			case allocation.StatusPending:
				skipped++
				continue
			case allocation.StatusProcessed:
				continue
			}
			ids = append(ids, a.ID)
			for _, r := range a.ContributionRecords() {
				records = append(records, r)
				processed = append(processed, file.ProcessedRow{
					Record:       r,
					EmployeeCode: deref(a.EmployeeCode),
					EmployeeName: deref(a.EmployeeName),
				})
			}
		}

		if len(records) > 0 {
			if _, err := s.contributions.AddHours(ctx, records); err != nil {
				return fmt.Errorf("failed to write contribution records: %w", err)
			}
		}

		moved := 0
		if len(ids) > 0 {
			moved, err = s.allocations.MarkProcessed(ctx, ids)
			if err != nil {
				return fmt.Errorf("failed to mark allocations processed: %w", err)
			}
		}

		resp.ProcessedCount = moved
		resp.SkippedPending = skipped
		resp.CreatedRecords = len(records)
		resp.OutputFormat = req.OutputFormat

		if req.OutputFormat == allocation.OutputFormatCSV {
			stored, err := s.files.WriteProcessedCSV(ctx, pod.ID, req.Month, processed)
			if err != nil {
				return fmt.Errorf("failed to write processed csv: %w", err)
			}
			resp.FilePath = &stored.Path
			resp.DownloadURL = &stored.DownloadURL
		}
		return nil
	})
	if err != nil {
		return allocation.ProcessAllocationsResponse{}, err
	}

	if resp.ProcessedCount > 0 {
		if err := cache.InvalidateMonth(ctx, s.cache, req.Month); err != nil {
			slog.Error("Failed to invalidate rollup cache", "month", req.Month, "error", err)
		}
	}

	resp.Message = fmt.Sprintf("Processed %d allocations into %d contribution records", resp.ProcessedCount, resp.CreatedRecords)
	if resp.SkippedPending > 0 {
		resp.Message += fmt.Sprintf("; %d pending allocations were skipped", resp.SkippedPending)
		slog.Warn("Processing skipped pending allocations",
			"pod_id", pod.ID,
			"month", req.Month,
			"skipped_pending", resp.SkippedPending,
		)
	}

	slog.Info("Allocations processed",
		"pod_id", pod.ID,
		"month", req.Month,
		"employee_id", identity.EmployeeID,
		"processed", resp.ProcessedCount,
		"records", resp.CreatedRecords,
	)
	return resp, nil
}

// SeedPending implements allocation.AllocationService.
func (s *AllocationServiceImpl) SeedPending(ctx context.Context, rows []allocation.SeedRow) (int, error) {
	type podMonth struct{ pod, month string }

	var order []podMonth
	grouped := make(map[podMonth][]allocation.Allocation)
	for _, r := range rows {
		p, ok := product.Parse(r.Product)
		if !ok {
			return 0, fmt.Errorf("%w: %q", product.ErrInvalidProduct, r.Product)
		}
		key := podMonth{pod: r.PodID, month: r.Month}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], allocation.Allocation{
			EmployeeID:         r.EmployeeID,
			PodID:              r.PodID,
			Product:            p,
			ProductDescription: r.ProductDescription,
			FeaturesText:       r.FeaturesText,
			BaselineHours:      r.BaselineHours,
			Month:              r.Month,
		})
	}

	created := 0
	for _, key := range order {
		err := s.allocations.WithPodMonthLock(ctx, key.pod, key.month, func(ctx context.Context) error {
			n, err := s.allocations.CreatePending(ctx, grouped[key])
			created += n
			return err
		})
		if err != nil {
			return created, fmt.Errorf("failed to seed allocations: %w", err)
		}
	}
	return created, nil
}

// GetAllocationSheet implements allocation.AllocationService.
func (s *AllocationServiceImpl) GetAllocationSheet(ctx context.Context, identity user.Identity, podID, month string) (allocation.SheetInfo, error) {
	if err := validator.ValidateMonth(month); err != nil {
		return allocation.SheetInfo{}, err
	}
	pod, err := s.authorizePod(ctx, identity, podID, user.PermissionAllocationView)
	if err != nil {
		return allocation.SheetInfo{}, err
	}

	stored, err := s.files.StatAllocationSheet(ctx, pod.ID, month)
	if err != nil {
		return allocation.SheetInfo{}, err
	}
	return s.sheetInfo(ctx, pod, stored), nil
}

// DownloadAllocationSheet implements allocation.AllocationService.
func (s *AllocationServiceImpl) DownloadAllocationSheet(ctx context.Context, identity user.Identity, podID, month string) (io.ReadCloser, string, error) {
	if err := validator.ValidateMonth(month); err != nil {
		return nil, "", err
	}
	pod, err := s.authorizePod(ctx, identity, podID, user.PermissionAllocationView)
	if err != nil {
		return nil, "", err
	}

	body, stored, err := s.files.OpenAllocationSheet(ctx, pod.ID, month)
	if err != nil {
		return nil, "", err
	}
	return body, stored.Filename, nil
}

// GenerateSheets implements allocation.AllocationService.
func (s *AllocationServiceImpl) GenerateSheets(ctx context.Context, month string, podIDs []string) ([]allocation.SheetInfo, error) {
	if err := validator.ValidateMonth(month); err != nil {
		return nil, err
	}

	if len(podIDs) == 0 {
		var err error
		podIDs, err = s.allocations.ListPodIDsByMonth(ctx, month)
		if err != nil {
			return nil, fmt.Errorf("failed to list pods: %w", err)
		}
	}

	sheets := make([]allocation.SheetInfo, 0, len(podIDs))
	for _, podID := range podIDs {
		pod, err := s.organization.GetPodByID(ctx, podID)
		if err != nil {
			return sheets, err
		}
		rows, err := s.allocations.ListByPodMonth(ctx, pod.ID, month)
		if err != nil {
			return sheets, fmt.Errorf("failed to list allocations: %w", err)
		}

		info := s.sheetInfo(ctx, pod, file.StoredFile{})
		stored, err := s.files.WriteAllocationSheet(ctx, file.AllocationSheet{
			Pod:         pod,
			PodLeadCode: info.PodLeadCode,
			Month:       month,
			Rows:        rows,
		})
		if err != nil {
			return sheets, err
		}
		info.SheetPath = stored.Path
		info.DownloadURL = stored.DownloadURL
		sheets = append(sheets, info)
	}

	slog.Info("Allocation sheets generated", "month", month, "count", len(sheets))
	return sheets, nil
}

func (s *AllocationServiceImpl) sheetInfo(ctx context.Context, pod organization.Pod, stored file.StoredFile) allocation.SheetInfo {
	info := allocation.SheetInfo{
		PodID:       pod.ID,
		PodName:     pod.Name,
		SheetPath:   stored.Path,
		DownloadURL: stored.DownloadURL,
	}
	if pod.HasLead() {
		lead, err := s.organization.GetEmployeeByID(ctx, *pod.PodLeadEmployeeID)
		if err != nil {
			slog.Warn("Pod lead not found", "pod_id", pod.ID, "error", err)
		} else {
			info.PodLeadCode = lead.Code
		}
	}
	return info
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
