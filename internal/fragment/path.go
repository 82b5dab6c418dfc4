package fragment

import (
	"errors"
	"fmt"
	stdpath "path"
	"path/filepath"
	"strings"

	"github.com/zjrosen/implbridge/internal/implementors"
)

const (
	// Dir is the directory below the documentation root holding fragments.
	Dir = "implementors"

	filePrefix = "trait."
	fileSuffix = ".js"
)

// ErrNotFragmentPath is returned for paths that do not name a trait fragment.
var ErrNotFragmentPath = errors.New("not an implementors fragment path")

// normalize turns OS or Windows separators into forward slashes.
func normalize(p string) string {
	return strings.ReplaceAll(filepath.ToSlash(p), `\`, "/")
}

// IsFragmentPath reports whether the base name looks like trait.<Name>.js.
func IsFragmentPath(p string) bool {
	base := stdpath.Base(normalize(p))
	return strings.HasPrefix(base, filePrefix) &&
		strings.HasSuffix(base, fileSuffix) &&
		len(base) > len(filePrefix)+len(fileSuffix)
}

// TraitFromPath derives the trait path from a fragment path relative to the
// documentation root, e.g. implementors/core/marker/trait.StructuralEq.js →
// core::marker::StructuralEq. Directories before the first implementors
// directory are ignored.
func TraitFromPath(p string) (string, error) {
	clean := stdpath.Clean(normalize(p))
	if !IsFragmentPath(clean) {
		return "", fmt.Errorf("%w: %s", ErrNotFragmentPath, p)
	}

	parts := strings.Split(clean, "/")
	start := -1
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == Dir {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return "", fmt.Errorf("%w: %s has no %s directory", ErrNotFragmentPath, p, Dir)
	}

	modules := parts[start : len(parts)-1]
	base := parts[len(parts)-1]
	name := strings.TrimSuffix(strings.TrimPrefix(base, filePrefix), fileSuffix)

	segments := append(append([]string{}, modules...), name)
	return strings.Join(segments, implementors.PathSeparator), nil
}

// PathForTrait returns the slash-separated fragment path for trait, relative
// to the documentation root.
func PathForTrait(trait string) (string, error) {
	segments := strings.Split(trait, implementors.PathSeparator)
	for _, s := range segments {
		if s == "" || strings.ContainsAny(s, "/\\") || s == "." || s == ".." {
			return "", fmt.Errorf("invalid trait path %q", trait)
		}
	}
	name := segments[len(segments)-1]
	dirs := append([]string{Dir}, segments[:len(segments)-1]...)
	return stdpath.Join(append(dirs, filePrefix+name+fileSuffix)...), nil
}
