package http

import (
	"net/http"
	"strings"

	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// idParam reads a path parameter that must be a UUID.
func idParam(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil || !validator.IsValidUUID(raw) {
		return "", validator.ValidationErrors{{Field: name, Message: "must be a valid UUID"}}
	}
	return id.String(), nil
}

// monthQuery reads and validates the month query parameter.
func monthQuery(r *http.Request) (string, error) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if err := validator.ValidateMonth(month); err != nil {
		return "", err
	}
	return month, nil
}
