package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestErrorResponseInvariant(t *testing.T) {
	resp := ErrorResponse("upstream timeout", nil)
	if resp.Success {
		t.Error("error response must not be successful")
	}
	if resp.ErrorMessage != "upstream timeout" {
		t.Errorf("message = %q", resp.ErrorMessage)
	}
	if err := resp.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	// Empty messages are replaced, never silently dropped.
	if got := ErrorResponse("", nil); got.ErrorMessage == "" {
		t.Error("empty error message must be substituted")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		resp    APIResponse
		wantErr bool
	}{
		{"success clean", APIResponse{Success: true}, false},
		{"failure with message", APIResponse{Success: false, ErrorMessage: "boom"}, false},
		{"failure without message", APIResponse{Success: false}, true},
		{"success with message", APIResponse{Success: true, ErrorMessage: "boom"}, true},
	}
	for _, tt := range tests {
		if err := tt.resp.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestFinancialRecordJSONOmitsNilFields(t *testing.T) {
	rec := FinancialRecord{
		Cert:        "3511",
		ReportDate:  time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		TotalAssets: Float(1900000),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded["total_deposits"]; ok {
		t.Error("nil optional fields must be omitted from JSON")
	}
	if decoded["total_assets"] != float64(1900000) {
		t.Errorf("total_assets = %v", decoded["total_assets"])
	}
	if decoded["cert"] != "3511" {
		t.Errorf("cert = %v", decoded["cert"])
	}
}

func TestFloat(t *testing.T) {
	p := Float(42.5)
	if p == nil || *p != 42.5 {
		t.Errorf("Float(42.5) = %v", p)
	}
}
