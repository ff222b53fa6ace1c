package download

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// MaxNameLen bounds the length of a saved file's base name in runes.
const MaxNameLen = 200

// SanitizeName replaces characters that are unsafe in file names with '_'
// and drops control characters.
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if isAllowedNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	return cleaned
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', ',', '(', ')':
		return true
	default:
		return false
	}
}

// TargetName is the local name for a rendition of the server file
// filename: its base name, sanitised, with the extension replaced by ext.
func TargetName(filename, ext string) string {
	base := filepath.Base(filepath.FromSlash(filename))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := SanitizeName(base, MaxNameLen)
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "video"
	}
	return name + "." + strings.TrimPrefix(ext, ".")
}

// CleanOutputDir normalises a user-typed directory such as "./out" or
// "dir/" before it is validated. Traversal segments are kept so that
// ValidateOutputDir still rejects them.
func CleanOutputDir(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	for _, part := range strings.Split(filepath.ToSlash(raw), "/") {
		if part == ".." {
			return raw
		}
	}
	return filepath.Clean(raw)
}

// ValidateOutputDir checks that dir is a clean, existing directory.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("output directory is required")
	}

	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return fmt.Errorf("output directory cannot contain path traversal")
		}
	}

	if filepath.Clean(dir) != dir {
		return fmt.Errorf("output directory must be a clean path")
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output directory %s does not exist", dir)
		}
		return fmt.Errorf("invalid output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
