package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/allocation"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/contribution"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contribution-backend-go/internal/service/file"
)

type ReportServiceImpl struct {
	allocations   allocation.AllocationRepository
	contributions contribution.ContributionRepository
	files         file.FileService
}

func NewReportService(
	allocations allocation.AllocationRepository,
	contributions contribution.ContributionRepository,
	files file.FileService,
) report.ReportService {
	return &ReportServiceImpl{
		allocations:   allocations,
		contributions: contributions,
		files:         files,
	}
}

func masterListResponse(month string, stored file.StoredFile) report.MasterListResponse {
	return report.MasterListResponse{
		FilePath:    stored.Path,
		DownloadURL: stored.DownloadURL,
		Month:       month,
		Filename:    stored.Filename,
		Exists:      true,
	}
}

// GenerateMasterList implements report.ReportService.
func (s *ReportServiceImpl) GenerateMasterList(ctx context.Context, identity user.Identity, req report.MasterListRequest) (report.MasterListResponse, error) {
	if !user.HasPermission(identity.Role, user.PermissionMasterList) {
		return report.MasterListResponse{}, user.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return report.MasterListResponse{}, err
	}

	unprocessed, err := s.allocations.CountUnprocessed(ctx, req.Month)
	if err != nil {
		return report.MasterListResponse{}, fmt.Errorf("failed to count unprocessed allocations: %w", err)
	}
	if unprocessed > 0 {
		return report.MasterListResponse{}, fmt.Errorf("%w: %d remaining", report.ErrAllocationsPending, unprocessed)
	}

	records, err := s.contributions.ListScoped(ctx, contribution.Filter{Month: req.Month})
	if err != nil {
		return report.MasterListResponse{}, fmt.Errorf("failed to list contribution records: %w", err)
	}

	stored, err := s.files.WriteMasterList(ctx, req.Month, records)
	if err != nil {
		return report.MasterListResponse{}, err
	}

	slog.Info("Final master list generated", "month", req.Month, "records", len(records), "employee_id", identity.EmployeeID)

	resp := masterListResponse(req.Month, stored)
	count := len(records)
	resp.RecordCount = &count
	return resp, nil
}

// GetMasterList implements report.ReportService.
func (s *ReportServiceImpl) GetMasterList(ctx context.Context, identity user.Identity, req report.MasterListRequest) (report.MasterListResponse, error) {
	if !user.HasPermission(identity.Role, user.PermissionMasterList) {
		return report.MasterListResponse{}, user.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return report.MasterListResponse{}, err
	}

	stored, err := s.files.StatMasterList(ctx, req.Month)
	if errors.Is(err, report.ErrMasterListNotFound) {
		return report.MasterListResponse{Month: req.Month, Exists: false}, nil
	}
	if err != nil {
		return report.MasterListResponse{}, err
	}
	return masterListResponse(req.Month, stored), nil
}
