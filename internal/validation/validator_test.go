// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package validation

import (
	"strings"
	"testing"
	"time"
)

type queryParams struct {
	StoreID string `param:"storeId" validate:"required,number"`
	Refresh string `param:"refresh" validate:"omitempty,boolean"`
	ForDate string `param:"forDate" validate:"omitempty,fordate"`
}

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil || v1 != v2 {
		t.Error("GetValidator() should return the same non-nil instance")
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input queryParams
	}{
		{"store only", queryParams{StoreID: "12"}},
		{"refresh true", queryParams{StoreID: "1", Refresh: "true"}},
		{"refresh 0", queryParams{StoreID: "1", Refresh: "0"}},
		{"date only", queryParams{StoreID: "1", ForDate: "2025-08-08"}},
		{"local date-time", queryParams{StoreID: "1", ForDate: "2025-08-08T10:30:00"}},
		{"rfc3339", queryParams{StoreID: "1", ForDate: "2025-08-08T10:30:00+02:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(&tt.input); err != nil {
				t.Errorf("ValidateStruct() error = %v", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input queryParams
		field string
		tag   string
	}{
		{"missing store", queryParams{}, "storeId", "required"},
		{"non-numeric store", queryParams{StoreID: "abc"}, "storeId", "number"},
		{"negative store", queryParams{StoreID: "-3"}, "storeId", "number"},
		{"bad refresh", queryParams{StoreID: "1", Refresh: "yes"}, "refresh", "boolean"},
		{"bad date", queryParams{StoreID: "1", ForDate: "08/08/2025"}, "forDate", "fordate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if len(err.Errors()) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(err.Errors()), err)
			}
			fe := err.Errors()[0]
			if fe.Field() != tt.field || fe.Tag() != tt.tag {
				t.Errorf("error = %s/%s, want %s/%s", fe.Field(), fe.Tag(), tt.field, tt.tag)
			}
			if !strings.HasPrefix(fe.Error(), tt.field) {
				t.Errorf("message %q should start with the parameter name", fe.Error())
			}
		})
	}
}

func TestToAPIError_SingleError(t *testing.T) {
	err := ValidateStruct(&queryParams{StoreID: "1", Refresh: "maybe"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != CodeValidation {
		t.Errorf("Code = %s, want %s", apiErr.Code, CodeValidation)
	}
	if apiErr.Message != "refresh must be true or false" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "refresh" {
		t.Errorf("Details[field] = %v, want refresh", apiErr.Details["field"])
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	err := ValidateStruct(&queryParams{Refresh: "maybe", ForDate: "yesterday"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Details[fields] missing or wrong type: %#v", apiErr.Details)
	}
	if len(fields) != 3 {
		t.Errorf("got %d field errors, want 3", len(fields))
	}
	if strings.Count(apiErr.Message, ";") != 2 {
		t.Errorf("Message = %q, want three joined messages", apiErr.Message)
	}
}

func TestParseDate(t *testing.T) {
	tirana, err := time.LoadLocation("Europe/Tirane")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name  string
		input string
		loc   *time.Location
		want  time.Time
	}{
		{"date", "2025-08-08", time.UTC, time.Date(2025, 8, 8, 0, 0, 0, 0, time.UTC)},
		{"date in zone", "2025-08-08", tirana, time.Date(2025, 8, 8, 0, 0, 0, 0, tirana)},
		{"local date-time", "2025-08-08T10:30:00", tirana, time.Date(2025, 8, 8, 10, 30, 0, 0, tirana)},
		{"rfc3339 keeps offset", "2025-08-08T10:30:00Z", tirana, time.Date(2025, 8, 8, 10, 30, 0, 0, time.UTC)},
		{"surrounding space", " 2025-08-08 ", nil, time.Date(2025, 8, 8, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input, tt.loc)
			if err != nil {
				t.Fatalf("ParseDate() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate() = %v, want %v", got, tt.want)
			}
		})
	}

	for _, bad := range []string{"", "2025-13-01", "08/08/2025", "2025-08-08 10:30"} {
		if _, err := ParseDate(bad, time.UTC); err == nil {
			t.Errorf("ParseDate(%q) should fail", bad)
		}
	}
}
