package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrEscapesRoot  = errors.New("path escapes root")
	ErrNotDirectory = errors.New("not a directory")
)

// CleanFSPath normalizes a slash-separated request path into a path relative
// to a root. Paths that would climb above the root are rejected.
func CleanFSPath(pathValue string) (string, error) {
	slashPath := filepath.ToSlash(pathValue)
	slashPath = strings.TrimLeft(slashPath, "/")
	if slashPath == "" {
		return ".", nil
	}
	cleaned := path.Clean(slashPath)
	if cleaned == "." {
		return ".", nil
	}
	if !fs.ValidPath(cleaned) {
		return "", fmt.Errorf("%w: %q", ErrEscapesRoot, pathValue)
	}
	return cleaned, nil
}

// JoinWithinRoot joins a request path onto root without leaving it.
func JoinWithinRoot(root, pathValue string) (string, error) {
	cleaned, err := CleanFSPath(pathValue)
	if err != nil {
		return "", err
	}
	joined := filepath.Join(root, filepath.FromSlash(cleaned))
	if !IsWithinPath(root, joined) {
		return "", fmt.Errorf("%w: %q", ErrEscapesRoot, pathValue)
	}
	return joined, nil
}

// IsWithinPath reports whether child is parent or lies below it.
func IsWithinPath(parent, child string) bool {
	parentPath := filepath.Clean(parent)
	childPath := filepath.Clean(child)
	rel, err := filepath.Rel(parentPath, childPath)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return false
	}
	return true
}

// CanonicalDir resolves dir to an absolute path without symlinks and checks
// that it is a directory.
func CanonicalDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	return resolved, nil
}
