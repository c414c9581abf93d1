package tools

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/clio-ai/clio/errors"
)

// resolve maps a model-supplied path onto the sandbox root and returns the
// absolute path plus the cleaned sandbox-relative path. Absolute paths from
// the model are never trusted as absolute: they are re-rooted under the
// sandbox. Paths whose ".." segments resolve outside the root are rejected
// before any I/O happens.
func resolve(root, path string) (abs string, rel string, err error) {
	if strings.TrimSpace(path) == "" {
		path = "."
	}

	// Strip any absolute prefix (including Windows volume names) so the
	// remainder is interpreted relative to the sandbox.
	p := filepath.ToSlash(path)
	if vol := filepath.VolumeName(path); vol != "" {
		p = p[len(vol):]
	}
	p = strings.TrimPrefix(p, "/")

	cleaned := filepath.Clean(filepath.FromSlash(p))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", "", errors.New("path %q escapes the working directory", path)
	}

	return filepath.Join(root, cleaned), cleaned, nil
}

// isRestricted checks a sandbox-relative path against the configured glob
// denylist. Patterns use doublestar syntax, e.g. ".git/**" or "**/*.pem".
func isRestricted(rel string, patterns []string) (bool, error) {
	slashed := filepath.ToSlash(rel)
	for _, pattern := range patterns {
		match, err := doublestar.Match(pattern, slashed)
		if err != nil {
			return false, errors.Wrapf(err, "invalid restricted pattern %q", pattern)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}
