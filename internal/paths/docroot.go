// Package paths provides path resolution utilities.
package paths

import (
	"os"
	"path/filepath"
)

// DefaultDocRoot is where cargo doc writes its output.
var DefaultDocRoot = filepath.Join("target", "doc")

// ResolveDocRoot resolves the documentation root (the directory holding
// implementors/) from user input.
//
// Input normalization:
//   - "" -> "./target/doc"
//   - "/path/to/doc/implementors" -> "/path/to/doc"
//   - "/path/to/crate" (containing target/doc) -> "/path/to/crate/target/doc"
//   - anything else is used as given
func ResolveDocRoot(path string) string {
	if path == "" {
		return DefaultDocRoot
	}
	path = filepath.Clean(path)

	if filepath.Base(path) == "implementors" {
		return filepath.Dir(path)
	}

	if isDir(filepath.Join(path, "implementors")) {
		return path
	}

	// A crate or workspace root: look for cargo's output below it.
	candidate := filepath.Join(path, DefaultDocRoot)
	if isDir(candidate) {
		return candidate
	}

	return path
}

// ImplementorsDir returns the fragment directory of a documentation root.
func ImplementorsDir(docRoot string) string {
	return filepath.Join(docRoot, "implementors")
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
