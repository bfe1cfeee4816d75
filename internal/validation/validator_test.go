// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/visitline/internal/models"
)

// ===================================================================================================
// Singleton Validator Tests
// ===================================================================================================

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

// ===================================================================================================
// ValidateStruct Tests
// ===================================================================================================

type TestStruct struct {
	Name   string `validate:"required,min=1,max=100"`
	Limit  int    `validate:"min=1,max=1000"`
	Offset int    `validate:"min=0,max=1000000"`
	Mode   string `validate:"omitempty,oneof=frame wall"`
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input TestStruct
	}{
		{"all valid fields", TestStruct{Name: "slot", Limit: 100, Mode: "wall"}},
		{"minimum values", TestStruct{Name: "A", Limit: 1}},
		{"maximum values", TestStruct{Name: "A", Limit: 1000, Offset: 1000000, Mode: "frame"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(&tt.input); err != nil {
				t.Errorf("ValidateStruct() returned unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     TestStruct
		wantField string
		wantTag   string
	}{
		{"missing required name", TestStruct{Limit: 100}, "Name", "required"},
		{"limit too low", TestStruct{Name: "A", Limit: 0}, "Limit", "min"},
		{"limit too high", TestStruct{Name: "A", Limit: 2000}, "Limit", "max"},
		{"negative offset", TestStruct{Name: "A", Limit: 1, Offset: -1}, "Offset", "min"},
		{"unknown mode", TestStruct{Name: "A", Limit: 1, Mode: "vsync"}, "Mode", "oneof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() should have returned an error")
			}

			found := false
			for _, e := range err.Errors() {
				if e.Field() == tt.wantField && e.Tag() == tt.wantTag {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Expected error on field %s with tag %s, got: %v", tt.wantField, tt.wantTag, err.Errors())
			}
		})
	}
}

// ===================================================================================================
// ToAPIError Tests
// ===================================================================================================

func TestToAPIError_SingleError(t *testing.T) {
	err := ValidateStruct(&TestStruct{Limit: 100})
	if err == nil {
		t.Fatal("Expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected code VALIDATION_ERROR, got %s", apiErr.Code)
	}
	if apiErr.Message != "Name is required" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "Name is required")
	}
	if apiErr.Details["field"] != "Name" {
		t.Errorf("Details[field] = %v, want Name", apiErr.Details["field"])
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	err := ValidateStruct(&TestStruct{Limit: 0, Offset: -1})
	if err == nil {
		t.Fatal("Expected validation error")
	}

	apiErr := err.ToAPIError()
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("Expected details to contain 'fields' key")
	}
	for _, field := range []string{"Name", "Limit", "Offset"} {
		if !strings.Contains(apiErr.Message, field) {
			t.Errorf("Message %q should mention %s", apiErr.Message, field)
		}
	}
}

func TestToAPIError_Empty(t *testing.T) {
	var ve RequestValidationError
	if ve.Error() != "validation failed" {
		t.Errorf("Error() = %q", ve.Error())
	}
	if apiErr := ve.ToAPIError(); apiErr.Message != "Validation failed" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

// ===================================================================================================
// Custom Validator Tests
// ===================================================================================================

type presenceTarget struct {
	URL string `koanf:"url" validate:"required,wsurl"`
}

func TestWebSocketURLValidation(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"ws://localhost:3001", true},
		{"wss://presence.example.com/ws", true},
		{"http://localhost:3001", false},
		{"ws://", false},
		{"localhost:3001", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateStruct(&presenceTarget{URL: tt.url})
			if tt.valid && err != nil {
				t.Errorf("ValidateStruct(%q) unexpected error: %v", tt.url, err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatalf("ValidateStruct(%q) should fail", tt.url)
				}
				if got := err.Errors()[0].Field(); got != "url" {
					t.Errorf("Field() = %q, want koanf name url", got)
				}
			}
		})
	}
}

func TestTimestampValidation(t *testing.T) {
	tests := []struct {
		slot  models.TimeSlot
		valid bool
	}{
		{models.TimeSlot{ID: "morning", Start: "2024-05-01T08:00:00Z", End: "2024-05-01T12:00:00Z"}, true},
		{models.TimeSlot{ID: "local", Start: "2024-05-01T08:00", End: "2024-05-01"}, true},
		{models.TimeSlot{ID: "bad", Start: "yesterday", End: "2024-05-01T12:00:00Z"}, false},
		{models.TimeSlot{Start: "2024-05-01T08:00:00Z", End: "2024-05-01T12:00:00Z"}, false},
	}

	for _, tt := range tests {
		err := ValidateStruct(&tt.slot)
		if (err == nil) != tt.valid {
			t.Errorf("ValidateStruct(%+v) error = %v, valid %v", tt.slot, err, tt.valid)
		}
	}
}

type nestedConfig struct {
	Timeline struct {
		Slots    []models.TimeSlot `koanf:"slots" validate:"dive"`
		Timezone string            `koanf:"timezone" validate:"required,timezone"`
	} `koanf:"timeline"`
	Delay time.Duration `koanf:"delay" validate:"gt=0"`
}

func TestNestedFieldNames(t *testing.T) {
	var cfg nestedConfig
	cfg.Timeline.Timezone = "Mars/Olympus"
	cfg.Timeline.Slots = []models.TimeSlot{{ID: "a", Start: "2024-05-01T08:00:00Z", End: "never"}}

	err := ValidateStruct(&cfg)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	fields := make(map[string]string)
	for _, e := range err.Errors() {
		fields[e.Field()] = e.Error()
	}
	for _, want := range []string{"timeline.slots[0].end", "timeline.timezone", "delay"} {
		if _, ok := fields[want]; !ok {
			t.Errorf("missing error for %s, got %v", want, fields)
		}
	}
	if msg := fields["timeline.slots[0].end"]; msg != "timeline.slots[0].end must be an ISO-8601 timestamp" {
		t.Errorf("timestamp message = %q", msg)
	}
}
