package util

import (
	"os"
	"path/filepath"
	"strings"
)

func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// ValidFile reports whether path is a regular file with content.
func ValidFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// Extension returns the lower-cased extension of path without the dot.
// "reads.M1" -> "m1", "dir/archive" -> "".
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Stem drops the last extension from path, keeping the directory.
func Stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
