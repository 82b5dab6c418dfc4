package testutil

// Traits in the standard dataset.
const (
	TraitSend      = "core::marker::Send"
	TraitSync      = "core::marker::Sync"
	TraitParse     = "syn::parse::Parse"
	TraitSerialize = "serde::ser::Serialize"
)

// WithStandardTestData adds four pages spread over three crates. syn::Ident
// implements every trait; Send and Sync carry auto impls from quote.
func (b *Builder) WithStandardTestData() *Builder {
	return b.
		WithPage(TraitSend,
			Crate("syn", Impl(TraitSend, "syn::Ident"), Impl(TraitSend, "syn::Lifetime")),
			Crate("quote", AutoImpl(TraitSend, "quote::Tokens"))).
		WithPage(TraitSync,
			Crate("syn", Impl(TraitSync, "syn::Ident")),
			Crate("quote", AutoImpl(TraitSync, "quote::Tokens"))).
		WithPage(TraitParse,
			Crate("syn", Impl(TraitParse, "syn::Ident"), Impl(TraitParse, "syn::Lifetime"))).
		WithPage(TraitSerialize,
			Crate("serde", Impl(TraitSerialize, "alloc::string::String")),
			Crate("syn", Impl(TraitSerialize, "syn::Ident")))
}
