// Package security guards the paths flowcheck derives from scenario files.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a derived path leaves its directory.
var ErrPathTraversal = errors.New("path traversal detected")

// maxNameLen bounds names derived from user input.
const maxNameLen = 128

// ValidatePathWithinDirectory checks lexically that filePath stays inside
// dir after cleaning. Symlinks are not resolved, so the check also works
// for paths that do not exist yet or live on an in-memory filesystem.
func ValidatePathWithinDirectory(filePath, dir string) error {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("%w: %s is not under %s", ErrPathTraversal, filePath, dir)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s escapes %s", ErrPathTraversal, filePath, dir)
	}
	return nil
}

// SanitizeFilename maps an arbitrary scenario or file name onto ASCII
// letters, digits, dot, underscore and dash. Runs of other characters become
// one underscore and leading or trailing dots and underscores are dropped.
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxNameLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
