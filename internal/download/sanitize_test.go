package download

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeName_ControlChars(t *testing.T) {
	got := SanitizeName(" A\nB\rC\tD\x00 ", 100)
	if strings.ContainsAny(got, "\n\r\t\x00") {
		t.Fatalf("sanitize output contains control chars: %q", got)
	}
	if got != "ABCD" {
		t.Fatalf("SanitizeName control char behavior mismatch, got %q", got)
	}
}

func TestSanitizeName_ReplacesDisallowed(t *testing.T) {
	got := SanitizeName("bad<>|\"name", 100)
	if got != "bad____name" {
		t.Fatalf("SanitizeName disallowed replacement mismatch: got %q", got)
	}
}

func TestTargetName(t *testing.T) {
	cases := []struct {
		filename, ext, want string
	}{
		{"clip1700000000000.mp4", "gif", "clip1700000000000.gif"},
		{"holiday.mp4", ".webm", "holiday.webm"},
		{"../../etc/passwd", "gif", "passwd.gif"},
		{"what?.mov", "mp4", "what_.mp4"},
		{"...", "gif", "video.gif"},
	}
	for _, tc := range cases {
		if got := TargetName(tc.filename, tc.ext); got != tc.want {
			t.Errorf("TargetName(%q, %q) = %q, want %q", tc.filename, tc.ext, got, tc.want)
		}
	}
}

func TestValidateOutputDir_Valid(t *testing.T) {
	dir := t.TempDir()
	if err := ValidateOutputDir(dir); err != nil {
		t.Fatalf("ValidateOutputDir(%q) error = %v, want nil", dir, err)
	}
}

func TestValidateOutputDir_NotExist(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	if err := ValidateOutputDir(missing); err == nil {
		t.Fatalf("ValidateOutputDir(%q) expected error for non-existent path", missing)
	}
}

func TestValidateOutputDir_PathTraversal(t *testing.T) {
	if err := ValidateOutputDir("/tmp/../etc"); err == nil {
		t.Fatal("expected traversal error")
	}
}

func TestValidateOutputDir_NotADir(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(filePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := ValidateOutputDir(filePath); err == nil {
		t.Fatalf("ValidateOutputDir(%q) expected non-directory error", filePath)
	}
}

func TestCleanOutputDir(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"./out", "out"},
		{"dir/", "dir"},
		{".", "."},
		{"/tmp//videos/", "/tmp/videos"},
		{"../out", "../out"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := CleanOutputDir(tc.in); got != filepath.FromSlash(tc.want) {
			t.Errorf("CleanOutputDir(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanOutputDir_TrailingSlashValidates(t *testing.T) {
	dir := t.TempDir() + string(filepath.Separator)
	if err := ValidateOutputDir(dir); err == nil {
		t.Fatalf("ValidateOutputDir(%q) accepted an unclean path", dir)
	}
	if err := ValidateOutputDir(CleanOutputDir(dir)); err != nil {
		t.Fatalf("ValidateOutputDir(CleanOutputDir(%q)) error = %v", dir, err)
	}
	if err := ValidateOutputDir(CleanOutputDir("../out")); err == nil {
		t.Fatal("expected traversal error after cleaning")
	}
}
