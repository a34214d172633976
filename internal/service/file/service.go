package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/allocation"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/contribution"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/organization"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/storage"
)

// StoredFile locates a generated file.
type StoredFile struct {
	Path        string `json:"file_path"`
	DownloadURL string `json:"download_url"`
	Filename    string `json:"filename"`
}

// AllocationSheet is what a pod lead receives to fill in for the month.
type AllocationSheet struct {
	Pod         organization.Pod
	PodLeadCode string
	Month       string
	Rows        []allocation.Allocation
}

// ProcessedRow is one emitted contribution record with its employee.
type ProcessedRow struct {
	Record       contribution.Record
	EmployeeCode string
	EmployeeName string
}

type FileService interface {
	// Allocation sheets, one per pod and month
	WriteAllocationSheet(ctx context.Context, sheet AllocationSheet) (StoredFile, error)
	StatAllocationSheet(ctx context.Context, podID, month string) (StoredFile, error)
	OpenAllocationSheet(ctx context.Context, podID, month string) (io.ReadCloser, StoredFile, error)

	// WriteProcessedCSV stores the records a processing run emitted.
	WriteProcessedCSV(ctx context.Context, podID, month string, rows []ProcessedRow) (StoredFile, error)

	// Final master list of every contribution record in a month
	WriteMasterList(ctx context.Context, month string, records []contribution.ScopedRecord) (StoredFile, error)
	StatMasterList(ctx context.Context, month string) (StoredFile, error)
}

type fileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
	}
}

var allocationSheetHeaders = []string{
	"allocation_id",
	"employee_code",
	"employee_name",
	"email",
	"product",
	"product_description",
	"features_text",
	"baseline_hours",
	"academy_percent",
	"intensive_percent",
	"niat_percent",
	"is_verified_description",
	"status",
}

func allocationSheetPath(podID, month string) string {
	return path.Join("allocation_sheets", month, podID+".xlsx")
}

func (s *fileServiceImpl) stored(p string) StoredFile {
	return StoredFile{Path: p, DownloadURL: s.storage.URL(p), Filename: path.Base(p)}
}

func (s *fileServiceImpl) save(ctx context.Context, p string, content *bytes.Buffer) (StoredFile, error) {
	rel, err := s.storage.Save(ctx, p, content)
	if err != nil {
		return StoredFile{}, fmt.Errorf("failed to store %s: %w", p, err)
	}
	return s.stored(rel), nil
}

// WriteAllocationSheet implements FileService.
func (s *fileServiceImpl) WriteAllocationSheet(ctx context.Context, sheet AllocationSheet) (StoredFile, error) {
	rows := make([][]any, 0, len(sheet.Rows))
	for _, a := range sheet.Rows {
		rows = append(rows, []any{
			a.ID,
			deref(a.EmployeeCode),
			deref(a.EmployeeName),
			deref(a.EmployeeEmail),
			string(a.Product),
			a.ProductDescription,
			deref(a.FeaturesText),
			a.BaselineHours.InexactFloat64(),
			a.AcademyPercent.InexactFloat64(),
			a.IntensivePercent.InexactFloat64(),
			a.NIATPercent.InexactFloat64(),
			a.IsVerifiedDescription,
			string(a.Status),
		})
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteXLSX(&buf, sheetName(sheet.Pod.Name), allocationSheetHeaders, rows); err != nil {
		return StoredFile{}, fmt.Errorf("failed to build allocation sheet: %w", err)
	}
	return s.save(ctx, allocationSheetPath(sheet.Pod.ID, sheet.Month), &buf)
}

// StatAllocationSheet implements FileService.
func (s *fileServiceImpl) StatAllocationSheet(ctx context.Context, podID, month string) (StoredFile, error) {
	p := allocationSheetPath(podID, month)
	exists, err := s.storage.Exists(ctx, p)
	if err != nil {
		return StoredFile{}, fmt.Errorf("failed to check allocation sheet: %w", err)
	}
	if !exists {
		return StoredFile{}, allocation.ErrAllocationSheetMissing
	}
	return s.stored(p), nil
}

// OpenAllocationSheet implements FileService.
func (s *fileServiceImpl) OpenAllocationSheet(ctx context.Context, podID, month string) (io.ReadCloser, StoredFile, error) {
	p := allocationSheetPath(podID, month)
	body, err := s.storage.Open(ctx, p)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return nil, StoredFile{}, allocation.ErrAllocationSheetMissing
		}
		return nil, StoredFile{}, err
	}
	return body, s.stored(p), nil
}

// WriteProcessedCSV implements FileService.
func (s *fileServiceImpl) WriteProcessedCSV(ctx context.Context, podID, month string, rows []ProcessedRow) (StoredFile, error) {
	lines := make([][]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, []string{
			r.EmployeeCode,
			r.EmployeeName,
			string(r.Record.Product),
			r.Record.FeatureOrDescription,
			r.Record.Hours.StringFixed(2),
			r.Record.Month,
			deref(r.Record.AllocationID),
		})
	}

	var buf bytes.Buffer
	headers := []string{"employee_code", "employee_name", "product", "feature_or_description", "hours", "month", "allocation_id"}
	if err := spreadsheet.WriteCSV(&buf, headers, lines); err != nil {
		return StoredFile{}, err
	}
	return s.save(ctx, path.Join("processed", fmt.Sprintf("%s_%s.csv", podID, month)), &buf)
}

func masterListPath(month string) string {
	return path.Join("master_lists", fmt.Sprintf("final_master_list_%s.xlsx", month))
}

// WriteMasterList implements FileService.
func (s *fileServiceImpl) WriteMasterList(ctx context.Context, month string, records []contribution.ScopedRecord) (StoredFile, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.DepartmentName,
			r.PodName,
			r.EmployeeCode,
			r.EmployeeName,
			string(r.Product),
			r.FeatureOrDescription,
			r.Hours.InexactFloat64(),
			string(r.Source),
			r.Month,
		})
	}

	headers := []string{"department", "pod", "employee_code", "employee_name", "product", "feature_or_description", "hours", "source", "month"}
	var buf bytes.Buffer
	if err := spreadsheet.WriteXLSX(&buf, "Master List", headers, rows); err != nil {
		return StoredFile{}, fmt.Errorf("failed to build master list: %w", err)
	}
	return s.save(ctx, masterListPath(month), &buf)
}

// StatMasterList implements FileService.
func (s *fileServiceImpl) StatMasterList(ctx context.Context, month string) (StoredFile, error) {
	p := masterListPath(month)
	exists, err := s.storage.Exists(ctx, p)
	if err != nil {
		return StoredFile{}, fmt.Errorf("failed to check master list: %w", err)
	}
	if !exists {
		return StoredFile{}, report.ErrMasterListNotFound
	}
	return s.stored(p), nil
}

// sheetName fits a pod name into Excel's 31 character, restricted charset sheet names.
func sheetName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	if cleaned == "" {
		return "Allocations"
	}
	if runes := []rune(cleaned); len(runes) > 31 {
		cleaned = string(runes[:31])
	}
	return cleaned
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
