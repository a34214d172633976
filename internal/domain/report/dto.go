package report

import "github.com/cmlabs-hris/contribution-backend-go/internal/pkg/validator"

// ========================================
// FINAL MASTER LIST
// ========================================

type MasterListRequest struct {
	Month string `json:"month"`
}

func (r *MasterListRequest) Validate() error {
	return validator.ValidateMonth(r.Month)
}

type MasterListResponse struct {
	FilePath    string `json:"file_path"`
	DownloadURL string `json:"download_url"`
	Month       string `json:"month"`
	Filename    string `json:"filename"`
	Exists      bool   `json:"exists"`
	RecordCount *int   `json:"record_count,omitempty"`
}
