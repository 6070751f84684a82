// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package validation

import (
	"strings"
	"testing"
)

type windowRequest struct {
	Days int `validate:"min=1,max=365"`
}

type pageRequest struct {
	Limit  int `validate:"min=1,max=500"`
	Offset int `validate:"min=0"`
}

func TestValidateStructPasses(t *testing.T) {
	tests := []struct {
		name string
		req  interface{}
	}{
		{"lower bound", &windowRequest{Days: 1}},
		{"upper bound", &windowRequest{Days: 365}},
		{"typical page", &pageRequest{Limit: 50, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(tt.req); err != nil {
				t.Errorf("ValidateStruct() = %v, want nil", err)
			}
		})
	}
}

func TestValidateStructFails(t *testing.T) {
	tests := []struct {
		name      string
		req       interface{}
		wantField string
	}{
		{"days too small", &windowRequest{Days: 0}, "Days"},
		{"days too large", &windowRequest{Days: 366}, "Days"},
		{"negative offset", &pageRequest{Limit: 10, Offset: -1}, "Offset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if got := err.Errors()[0].Field(); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestValidationErrorMessages(t *testing.T) {
	err := ValidateStruct(&windowRequest{Days: 400})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if msg := err.Error(); !strings.Contains(msg, "at most 365") {
		t.Errorf("message = %q, want max bound mentioned", msg)
	}
}

func TestToAPIErrorSingle(t *testing.T) {
	err := ValidateStruct(&windowRequest{Days: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Details["field"] != "Days" {
		t.Errorf("details field = %v, want Days", apiErr.Details["field"])
	}
}

func TestToAPIErrorMultiple(t *testing.T) {
	err := ValidateStruct(&pageRequest{Limit: 0, Offset: -5})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("errors = %d, want 2", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("multiple failures must list fields in details")
	}
}
