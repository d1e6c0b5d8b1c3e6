package tool

import "testing"

func TestRequireField(t *testing.T) {
	if err := RequireField("url", ""); err == nil {
		t.Error("expected error for empty value")
	}
	if err := RequireField("url", "x"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"", false}, // empty is allowed, RequireField enforces presence
		{"https://example.com/page", false},
		{"http://example.com", false},
		{"ftp://example.com/file", true},
		{"javascript:alert(1)", true},
		{"https://", true},
		{"://bad", true},
	}

	for _, tt := range tests {
		err := ValidateURL("url", tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestValidateAll(t *testing.T) {
	if err := ValidateAll(nil, nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateAll(nil, RequireField("url", "")); err == nil {
		t.Error("expected first non-nil error")
	}
}
