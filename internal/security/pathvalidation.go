// Package security validates user-supplied filesystem paths.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateSessionPath checks that a requested session folder resolves inside
// the allowed sessions directory. Symlinks are resolved on both sides first,
// so a link planted inside the sessions directory cannot point the server at
// an arbitrary filesystem location.
func ValidateSessionPath(path, sessionsDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("resolve session path: %w", err)
	}
	absDir, err := filepath.Abs(sessionsDir)
	if err != nil {
		return fmt.Errorf("resolve sessions directory: %w", err)
	}

	// The session folder must exist to be loadable, so an unresolvable
	// path is a failure here, not a deferred one.
	canonicalPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return fmt.Errorf("resolve session path: %w", err)
	}
	canonicalDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("resolve sessions directory: %w", err)
	}

	rel, err := filepath.Rel(canonicalDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("session path %q is outside the sessions directory", path)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("session path %q escapes the sessions directory", path)
	}
	return nil
}
