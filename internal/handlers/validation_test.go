package handlers

import (
	"errors"
	"testing"
)

func TestValidateRequest_SearchEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr string
	}{
		{"valid address", "someone@example.com", ""},
		{"valid with plus tag", "someone+breach@example.co.uk", ""},
		{"missing", "", "validation failed: Email: this field is required"},
		{"no at sign", "someone.example.com", "validation failed: Email: must be a valid email address"},
		{"no domain", "someone@", "validation failed: Email: must be a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(SearchRequest{Email: tt.email})
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateRequest(%q) unexpected error: %v", tt.email, err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("ValidateRequest(%q) = %v, want %q", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRequest_MonitorEmail(t *testing.T) {
	if err := ValidateRequest(AddMonitorRequest{Email: "watch@example.com"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateRequest(AddMonitorRequest{Email: "watch"}); err == nil {
		t.Error("expected validation error for malformed address")
	}
}

func TestValidateRequest_ReportsFailingField(t *testing.T) {
	err := ValidateRequest(AddMonitorRequest{Email: "watch"})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Field != "Email" || ve.Message != "must be a valid email address" {
		t.Errorf("got field %q message %q", ve.Field, ve.Message)
	}
}
