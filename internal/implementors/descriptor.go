package implementors

import (
	"slices"
	"strings"
)

// PathSeparator joins type path segments into a qualified name.
const PathSeparator = "::"

// Descriptor describes one implementor of a trait: the human-readable impl
// signature (which may embed markup) and the path of the implementing type.
type Descriptor struct {
	displayText string
	typePath    []string
	synthetic   bool
}

// NewDescriptor creates a descriptor. typePath is copied.
func NewDescriptor(displayText string, typePath ...string) Descriptor {
	return Descriptor{
		displayText: displayText,
		typePath:    slices.Clone(typePath),
	}
}

// NewSyntheticDescriptor creates a descriptor for a compiler-derived impl,
// such as an auto trait.
func NewSyntheticDescriptor(displayText string, typePath ...string) Descriptor {
	d := NewDescriptor(displayText, typePath...)
	d.synthetic = true
	return d
}

// DisplayText returns the impl signature as generated, markup included.
func (d Descriptor) DisplayText() string {
	return d.displayText
}

// TypePath returns a copy of the implementing type's path.
func (d Descriptor) TypePath() []string {
	return slices.Clone(d.typePath)
}

// Synthetic reports whether the impl was derived by the compiler.
func (d Descriptor) Synthetic() bool {
	return d.synthetic
}

// QualifiedName joins the type path with "::".
func (d Descriptor) QualifiedName() string {
	return strings.Join(d.typePath, PathSeparator)
}

// Equal reports whether two descriptors carry the same content.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.displayText == other.displayText &&
		d.synthetic == other.synthetic &&
		slices.Equal(d.typePath, other.typePath)
}
