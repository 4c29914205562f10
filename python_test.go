package siteboot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestImportName(t *testing.T) {
	tests := []struct {
		dist string
		want string
	}{
		{"requests", "requests"},
		{"beautifulsoup4", "bs4"},
		{"tqdm", "tqdm"},
		{"BeautifulSoup4", "bs4"},
		{"readability-lxml", "readability"},
		{"typing-extensions", "typing_extensions"},
	}

	for _, tt := range tests {
		if got := ImportName(tt.dist); got != tt.want {
			t.Errorf("ImportName(%q) = %q, want %q", tt.dist, got, tt.want)
		}
	}
}

func TestCheckImportsStdlib(t *testing.T) {
	base := requirePython(t)

	// Standard library modules are always importable, so this exercises the
	// probe without installing anything.
	if err := base.CheckImports([]string{"json", "os"}); err != nil {
		t.Errorf("Expected stdlib imports to succeed: %v", err)
	}

	if err := base.CheckImports([]string{"definitely-not-a-real-package-xyz"}); err == nil {
		t.Error("Expected import check to fail for a missing package")
	}
}

func TestRunScript(t *testing.T) {
	base := requirePython(t)

	script := filepath.Join(t.TempDir(), "hello.py")
	if err := os.WriteFile(script, []byte("import sys\nprint('hello', sys.argv[1])\n"), 0644); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}

	out, err := base.RunScript(script, "world")
	if err != nil {
		t.Fatalf("RunScript failed: %v", err)
	}
	if !strings.Contains(out, "hello world") {
		t.Errorf("Expected script output, got %q", out)
	}
}
