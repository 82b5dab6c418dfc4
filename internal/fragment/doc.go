// Package fragment reads and writes the generated per-trait implementors
// fragments of a documentation tree.
//
// A fragment is a self-invoking script that fills an ordered object of crate
// name → implementor list and then either registers it with the page's
// consumer hook or parks it for later pickup:
//
//	(function() {var implementors = {};
//	implementors["syn"] = [{"text":"impl …","synthetic":false,"types":["syn::Meta"]}];
//	if (window.register_implementors) {window.register_implementors(implementors);} else {window.pending_implementors = implementors;}})()
//
// Fragments live at implementors/<module path>/trait.<Name>.js below the
// documentation root; the path encodes the trait they describe.
package fragment
