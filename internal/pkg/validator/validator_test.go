package validator

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidMonth(t *testing.T) {
	valid := []string{"2024-01", "2025-12", "1999-06"}
	invalid := []string{"2024-13", "2024-00", "2024-1", "24-01", "2024/01", "2024-01-01", "", " 2024-01"}
	for _, m := range valid {
		if !IsValidMonth(m) {
			t.Errorf("IsValidMonth(%q) = false, want true", m)
		}
	}
	for _, m := range invalid {
		if IsValidMonth(m) {
			t.Errorf("IsValidMonth(%q) = true, want false", m)
		}
	}
}

func TestValidateMonth(t *testing.T) {
	if err := ValidateMonth("2024-05"); err != nil {
		t.Errorf("ValidateMonth(valid) = %v, want nil", err)
	}

	err := ValidateMonth("")
	errs, ok := err.(ValidationErrors)
	if !ok || errs.ToMap()["month"] != "is required" {
		t.Errorf("ValidateMonth(\"\") = %v, want month is required", err)
	}

	err = ValidateMonth("May 2024")
	errs, ok = err.(ValidationErrors)
	if !ok || errs.ToMap()["month"] != "must be in YYYY-MM format" {
		t.Errorf("ValidateMonth(bad) = %v, want format error", err)
	}
}

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b",
		"123e4567-e89b-12d3-a456-426614174000",
	}
	invalid := []string{
		"0188d0f27b8c7b4a8a2b6b8b8b8b8b8b",
		"g188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b",
		"{123e4567-e89b-12d3-a456-426614174000}",
		"",
	}
	for _, id := range valid {
		if !IsValidUUID(id) {
			t.Errorf("IsValidUUID(%q) = false, want true", id)
		}
	}
	for _, id := range invalid {
		if IsValidUUID(id) {
			t.Errorf("IsValidUUID(%q) = true, want false", id)
		}
	}
}

func TestIsValidPercent(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"0", true},
		{"100", true},
		{"33.3", true},
		{"-0.1", false},
		{"100.01", false},
	}
	for _, c := range cases {
		got := IsValidPercent(decimal.RequireFromString(c.input))
		if got != c.want {
			t.Errorf("IsValidPercent(%s) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsPercentSumValid(t *testing.T) {
	d := decimal.RequireFromString
	if !IsPercentSumValid(d("33.3"), d("33.3"), d("33.4")) {
		t.Errorf("33.3+33.3+33.4 should be a valid sum")
	}
	if !IsPercentSumValid(d("50"), d("25"), d("0")) {
		t.Errorf("75 should be a valid sum")
	}
	if IsPercentSumValid(d("60"), d("30"), d("10.5")) {
		t.Errorf("100.5 should be rejected")
	}
}

func TestIsValidEmployeeCode(t *testing.T) {
	valid := []string{"EMP001", "N24-0042", "a.b_c"}
	invalid := []string{"", "E", "-EMP", "EMP 001"}
	for _, c := range valid {
		if !IsValidEmployeeCode(c) {
			t.Errorf("IsValidEmployeeCode(%q) = false, want true", c)
		}
	}
	for _, c := range invalid {
		if IsValidEmployeeCode(c) {
			t.Errorf("IsValidEmployeeCode(%q) = true, want false", c)
		}
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "month", Message: "is required"},
		{Field: "allocations[0]", Message: "percentages exceed 100"},
	}
	got := errs.Error()
	want := "month: is required; allocations[0]: percentages exceed 100"
	if got != want {
		t.Errorf("ValidationErrors.Error() = %q, want %q", got, want)
	}
}

func TestValidationErrors_ToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "month", Message: "invalid"},
		{Field: "pod_id", Message: "required"},
	}
	got := errs.ToMap()
	want := map[string]string{"month": "invalid", "pod_id": "required"}
	if len(got) != len(want) {
		t.Errorf("ValidationErrors.ToMap() length = %d, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("ValidationErrors.ToMap()[%q] = %q, want %q", k, got[k], v)
		}
	}
}
