package live

import (
	"path/filepath"
	"strings"
)

const vcsMetadataDir = ".git"

// IsAutoSave reports Emacs-style auto-save files (".#name").
func IsAutoSave(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".#")
}

// IsBackup reports editor backup files ("name~").
func IsBackup(path string) bool {
	return strings.HasSuffix(path, "~")
}

// IsVCSMetadata reports paths inside a .git directory, or the directory itself.
func IsVCSMetadata(path string) bool {
	for _, component := range strings.Split(filepath.ToSlash(path), "/") {
		if component == vcsMetadataDir {
			return true
		}
	}
	return false
}

// SkipVCSMetadata returns a directory predicate for watcher.Options.SkipDir
// that prunes .git trees below root. Components of root itself are ignored.
func SkipVCSMetadata(root string) func(path string) bool {
	return func(path string) bool {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return false
		}
		return IsVCSMetadata(rel)
	}
}

func IsNoise(path string) bool {
	return IsAutoSave(path) || IsBackup(path) || IsVCSMetadata(path)
}

// FilterNoise returns the relevant paths in their original order.
func FilterNoise(paths []string) []string {
	kept := make([]string, 0, len(paths))
	for _, path := range paths {
		if IsNoise(path) {
			continue
		}
		kept = append(kept, path)
	}
	return kept
}
