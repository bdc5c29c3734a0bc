package watcher

import (
	"io/fs"
	"path/filepath"
)

// collectRecursiveDirs lists root and every directory below it. Unreadable
// entries are skipped rather than failing the whole walk.
func collectRecursiveDirs(root string, skipDir func(string) bool) ([]string, error) {
	dirs := []string{}
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && skipDir != nil && skipDir(path) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}
