package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/eventrank/internal/errors"
)

// ExportExt is the required extension for export files.
const ExportExt = ".jsonl"

// ValidateExportPath checks that path is safe to write an export to:
// no ".." components, a .jsonl extension, the file sits directly in
// exportsDir (no subdirectories), and neither the directory nor the file is
// a symlink.
//
// Requiring the file to be directly in exportsDir removes the window where
// an intermediate directory could be swapped for a symlink between this
// check and the O_NOFOLLOW open.
func ValidateExportPath(path, exportsDir string) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != ExportExt {
		return errors.NewInvalidRequest("path must have .jsonl extension")
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	allowed, err := resolveDir(exportsDir)
	if err != nil {
		return err
	}
	parentDir := filepath.Dir(absPath)
	if resolvedParent, err := resolveDir(parentDir); err == nil {
		parentDir = resolvedParent
	}
	if filepath.Clean(parentDir) != allowed {
		return errors.NewInvalidRequest(fmt.Sprintf("file must be directly in %s (no subdirectories)", allowed))
	}

	if info, err := os.Lstat(absPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

// resolveDir returns dir as an absolute path, following a symlink at dir
// itself so a symlinked exports directory compares equal to its target.
func resolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(dir))
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid directory: %v", err))
	}
	if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return "", errors.NewInvalidRequest(fmt.Sprintf("cannot resolve exports directory: %v", err))
		}
		abs = resolved
	}
	return abs, nil
}

// containsTraversal reports whether path has a ".." component.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
