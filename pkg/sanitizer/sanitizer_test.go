package sanitizer

import "testing"

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trims and collapses", "  Canopy   10x10  ", "Canopy 10x10"},
		{"strips control chars", "Booth\x00 A\x1b", "Booth A"},
		{"newlines become spaces", "Spring\nCarnival", "SpringCarnival"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeLabel(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSanitizeFreeTextKeepsNewlines(t *testing.T) {
	input := "Line one\nLine two\x00"
	expected := "Line one\nLine two"
	if got := SanitizeFreeText(input); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestSanitizeCategoryType(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Food & Beverage", "Food & Beverage"},
		{"canopy/booth", "canopy/booth"},
		{"type; DROP TABLE", "type DROP TABLE"},
		{"café-stall", "café-stall"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeCategoryType(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestEscapeSearchQuery(t *testing.T) {
	if got := EscapeSearchQuery("booth (a.*)"); got != `booth \(a\.\*\)` {
		t.Errorf("unexpected escape result: %q", got)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"malaysian mobile", "012-345 6789", "+60123456789"},
		{"already e164", "+60123456789", "+60123456789"},
		{"singapore number", "+65 9123 4567", "+6591234567"},
		{"garbage", "not a phone", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
