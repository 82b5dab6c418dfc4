// Package implementors holds the data model of a trait page's implementors
// table and the producer that shapes generation-time facts into it.
//
// A Table maps crate names to the ordered list of Descriptors found in that
// crate. Both the crate order and the descriptor order are significant and are
// preserved by every accessor. Tables and Descriptors are immutable: fields are
// unexported and every accessor that exposes a slice returns a copy.
//
// The package has no external dependencies and knows nothing about how tables
// are encoded on disk or delivered to consumers.
package implementors
