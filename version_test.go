package siteboot

import (
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input string
		want  Version
	}{
		{"3.12.1", Version{3, 12, 1}},
		{"3.12", Version{3, 12, -1}},
		{"3", Version{3, -1, -1}},
		{"2.1.0-beta", Version{2, 1, 0}},
		{"24.0", Version{24, 0, -1}},
	}

	for _, tt := range tests {
		got, err := ParseVersion(tt.input)
		if err != nil {
			t.Errorf("ParseVersion(%q) returned error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVersion(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestParseVersionInvalid(t *testing.T) {
	if _, err := ParseVersion("not-a-version"); err == nil {
		t.Error("Expected error for non-numeric version string")
	}
}

func TestParsePythonVersion(t *testing.T) {
	got, err := ParsePythonVersion("Python 3.12.1\n")
	if err != nil {
		t.Fatalf("Failed to parse python version: %v", err)
	}
	if got != (Version{3, 12, 1}) {
		t.Errorf("Expected {3 12 1}, got %+v", got)
	}

	if _, err := ParsePythonVersion("Perl 5.36.0"); err == nil {
		t.Error("Expected error for non-Python version string")
	}
}

func TestParsePipVersion(t *testing.T) {
	got, err := ParsePipVersion("pip 24.0 from /venv/lib/python3.12/site-packages/pip (python 3.12)")
	if err != nil {
		t.Fatalf("Failed to parse pip version: %v", err)
	}
	if got != (Version{24, 0, -1}) {
		t.Errorf("Expected {24 0 -1}, got %+v", got)
	}

	if _, err := ParsePipVersion("conda 23.1"); err == nil {
		t.Error("Expected error for non-pip version string")
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b Version
		want int
	}{
		{Version{3, 12, 1}, Version{3, 12, 1}, 0},
		{Version{3, 12, 1}, Version{3, 11, 9}, 1},
		{Version{3, 9, 0}, Version{3, 10, 0}, -1},
		{Version{2, 7, 18}, Version{3, 0, 0}, -1},
		{Version{3, 12, -1}, Version{3, 12, 0}, -1},
	}

	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestVersionString(t *testing.T) {
	tests := []struct {
		v    Version
		want string
	}{
		{Version{3, 12, 1}, "3.12.1"},
		{Version{3, 12, -1}, "3.12"},
		{Version{3, -1, -1}, "3"},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String(%+v) = %q, want %q", tt.v, got, tt.want)
		}
	}

	v := Version{3, 12, 1}
	if got := v.MinorString(); got != "3.12" {
		t.Errorf("MinorString() = %q, want %q", got, "3.12")
	}
}
