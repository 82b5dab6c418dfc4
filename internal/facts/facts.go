// Package facts reads generation-time implementor facts from disk. A facts
// file names one trait and, per crate, the implementors that crate
// contributes. YAML and JSONC (JSON with comments and trailing commas) are
// both accepted; the format is chosen by extension.
package facts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/implbridge/internal/implementors"
)

// ErrMissingTrait is returned when a facts file has no trait.
var ErrMissingTrait = errors.New("facts: trait is required")

// File is the on-disk shape of a facts file.
type File struct {
	Trait  string  `json:"trait" yaml:"trait"`
	Crates []Crate `json:"crates" yaml:"crates"`
}

// Crate is one crate's contribution.
type Crate struct {
	Name         string        `json:"name" yaml:"name"`
	Implementors []Implementor `json:"implementors" yaml:"implementors"`
}

// Implementor is one implementor entry. Types is the type path; a single
// qualified name such as "syn::Ident" is the common case.
type Implementor struct {
	Text      string   `json:"text" yaml:"text"`
	Synthetic bool     `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
	Types     []string `json:"types,omitempty" yaml:"types,omitempty"`
}

// ParseYAML decodes a YAML facts document.
func ParseYAML(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parsing facts: %w", err)
	}
	return f, f.Validate()
}

// ParseJSONC strips comments and trailing commas, then decodes the JSON.
func ParseJSONC(data []byte) (File, error) {
	var f File
	if err := json.Unmarshal(jsonc.ToJSON(data), &f); err != nil {
		return File{}, fmt.Errorf("parsing facts: %w", err)
	}
	return f, f.Validate()
}

// ReadFile reads path and parses it according to its extension. ".yaml" and
// ".yml" are YAML; everything else is treated as JSONC.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return File{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err = ParseYAML(data)
	default:
		f, err = ParseJSONC(data)
	}
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Validate checks the structural rules: a trait, named crates with no
// duplicates, and non-empty display text.
func (f File) Validate() error {
	if strings.TrimSpace(f.Trait) == "" {
		return ErrMissingTrait
	}
	seen := make(map[string]bool, len(f.Crates))
	for i, c := range f.Crates {
		if c.Name == "" {
			return fmt.Errorf("facts: crates[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("facts: crate %q listed twice", c.Name)
		}
		seen[c.Name] = true
		for j, impl := range c.Implementors {
			if impl.Text == "" {
				return fmt.Errorf("facts: crate %q implementors[%d]: text is required", c.Name, j)
			}
		}
	}
	return nil
}

// CrateFacts converts the file into producer input.
func (f File) CrateFacts() []implementors.CrateFacts {
	out := make([]implementors.CrateFacts, 0, len(f.Crates))
	for _, c := range f.Crates {
		cf := implementors.CrateFacts{Crate: c.Name}
		for _, impl := range c.Implementors {
			cf.Implementors = append(cf.Implementors, implementors.Fact{
				DisplayText: impl.Text,
				Synthetic:   impl.Synthetic,
				TypePath:    impl.Types,
			})
		}
		out = append(out, cf)
	}
	return out
}
