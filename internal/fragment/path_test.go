package fragment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTraitFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path: "implementors/core/marker/trait.StructuralEq.js", want: "core::marker::StructuralEq"},
		{path: "doc/implementors/serde/de/trait.Deserialize.js", want: "serde::de::Deserialize"},
		{path: `doc\implementors\std\io\trait.Read.js`, want: "std::io::Read"},
		{path: "implementors/trait.Top.js", want: "Top"},
		{path: "implementors/core/marker/struct.Foo.js", wantErr: true},
		{path: "implementors/core/trait..js", wantErr: true},
		{path: "core/marker/trait.Eq.js", wantErr: true},
		{path: "implementors/core/marker/trait.Eq.json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := TraitFromPath(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNotFragmentPath)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestPathForTrait(t *testing.T) {
	got, err := PathForTrait("core::marker::StructuralEq")
	require.NoError(t, err)
	require.Equal(t, "implementors/core/marker/trait.StructuralEq.js", got)

	back, err := TraitFromPath(got)
	require.NoError(t, err)
	require.Equal(t, "core::marker::StructuralEq", back)

	for _, bad := range []string{"", "core::", "::Eq", "core::../Eq", "a/b::Eq"} {
		_, err := PathForTrait(bad)
		require.Error(t, err, bad)
	}
}
