package hook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrOutsideProject = errors.New("path is outside the project")

// ResolveTarget resolves targetPath (relative to projectDir or absolute) and
// ensures it stays inside projectDir. Non-existent paths are fine; only the
// lexical relationship is checked, after resolving projectDir's own symlinks.
func ResolveTarget(projectDir, targetPath string) (string, error) {
	if targetPath == "" {
		return "", fmt.Errorf("%w: empty path", ErrOutsideProject)
	}
	absProject, err := filepath.Abs(projectDir)
	if err != nil {
		return "", fmt.Errorf("project dir: %w", err)
	}
	if real, err := filepath.EvalSymlinks(absProject); err == nil {
		absProject = real
	}

	resolved := expandHome(targetPath)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(absProject, resolved)
	}
	resolved = filepath.Clean(resolved)
	if real, err := filepath.EvalSymlinks(filepath.Dir(resolved)); err == nil {
		resolved = filepath.Join(real, filepath.Base(resolved))
	}

	rel, err := filepath.Rel(absProject, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s (project: %s)", ErrOutsideProject, targetPath, absProject)
	}
	return resolved, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}
