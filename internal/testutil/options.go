package testutil

import (
	"fmt"
	"strings"

	"github.com/zjrosen/implbridge/internal/implementors"
)

// CrateOption adds one crate to a page.
type CrateOption func(*implementors.TableBuilder)

// Crate lists descs under name.
func Crate(name string, descs ...implementors.Descriptor) CrateOption {
	return func(tb *implementors.TableBuilder) {
		tb.Crate(name, descs...)
	}
}

// Impl returns an explicit implementor of trait for the type at typePath,
// with display text shaped like rustdoc's.
func Impl(trait, typePath string) implementors.Descriptor {
	return implementors.NewDescriptor(displayText(trait, typePath), typePath)
}

// AutoImpl is Impl for a compiler-derived implementation.
func AutoImpl(trait, typePath string) implementors.Descriptor {
	return implementors.NewSyntheticDescriptor(displayText(trait, typePath), typePath)
}

func displayText(trait, typePath string) string {
	traitName, typeName := lastSegment(trait), lastSegment(typePath)
	return fmt.Sprintf(`<code>impl %s for <a class="struct" href="struct.%s.html">%s</a></code>`,
		traitName, typeName, typeName)
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, implementors.PathSeparator); i >= 0 {
		return path[i+len(implementors.PathSeparator):]
	}
	return path
}
