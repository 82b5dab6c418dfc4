package fragment

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/implbridge/internal/implementors"
)

const structuralEqFixture = "testdata/implementors/core/marker/trait.StructuralEq.js"

func TestDecode_GeneratedFragment(t *testing.T) {
	f, err := os.Open(structuralEqFixture)
	require.NoError(t, err)
	defer f.Close()

	table, err := Decode(f)
	require.NoError(t, err)

	require.Equal(t, []string{"proc_macro2", "syn"}, table.Crates())
	require.Equal(t, 110, table.Count())

	pm, ok := table.Implementors("proc_macro2")
	require.True(t, ok)
	require.Len(t, pm, 2)
	require.Equal(t, []string{"proc_macro2::Delimiter"}, pm[0].TypePath())
	require.Equal(t, []string{"proc_macro2::Spacing"}, pm[1].TypePath())
	require.False(t, pm[0].Synthetic())

	syn, _ := table.Implementors("syn")
	require.Len(t, syn, 108)
	require.Equal(t, "syn::attr::AttrStyle", syn[0].QualifiedName())
	require.Equal(t, "syn::punctuated::Punctuated", syn[107].QualifiedName())
	require.True(t, strings.HasPrefix(syn[107].DisplayText(), "impl&lt;T, P&gt; <a class=\"trait\""))
}

func TestEncodeDecode_PreservesOrderAndMarkup(t *testing.T) {
	table := implementors.NewTableBuilder().
		Crate("zeta",
			implementors.NewDescriptor(`impl <a class="trait" href="x.html">Eq</a> for <b>Z</b>`, "zeta::Z"),
			implementors.NewSyntheticDescriptor("impl Send for Y", "zeta::inner::Y"),
		).
		Crate("alpha").
		Build()

	text, err := EncodeToString(table)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(text, prologue+"\n"))
	require.Contains(t, text, `implementors["zeta"] = [{"text":"impl <a class=\"trait\" href=\"x.html\">Eq</a> for <b>Z</b>","synthetic":false,"types":["zeta::Z"]}`)
	require.Contains(t, text, `implementors["alpha"] = [];`)
	require.Contains(t, text, trailer)

	back, err := DecodeBytes([]byte(text))
	require.NoError(t, err)
	require.True(t, table.Equal(back))
}

func TestEncode_FixtureRoundTrip(t *testing.T) {
	data, err := os.ReadFile(structuralEqFixture)
	require.NoError(t, err)

	table, err := DecodeBytes(data)
	require.NoError(t, err)

	text, err := EncodeToString(table)
	require.NoError(t, err)

	again, err := DecodeBytes([]byte(text))
	require.NoError(t, err)
	require.True(t, table.Equal(again))
}

func TestDecode_EmptyObject(t *testing.T) {
	table, err := DecodeBytes([]byte(prologue + trailer))
	require.NoError(t, err)
	require.True(t, table.IsEmpty())
}

func TestDecode_RepeatedCrateKeepsFirstPositionLastList(t *testing.T) {
	src := prologue + "\n" +
		`implementors["a"] = [{"text":"old","synthetic":false,"types":["a::Old"]}];` + "\n" +
		`implementors["b"] = [];` + "\n" +
		`implementors["a"] = [{"text":"new","synthetic":true,"types":["a::New"]}];` + "\n" +
		trailer

	table, err := DecodeBytes([]byte(src))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, table.Crates())

	descs, _ := table.Implementors("a")
	require.Len(t, descs, 1)
	require.Equal(t, "new", descs[0].DisplayText())
	require.True(t, descs[0].Synthetic())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		notFrag   bool
		syntaxMsg string
	}{
		{name: "empty input", src: "", notFrag: true},
		{name: "other script", src: "console.log('hi')", notFrag: true},
		{name: "bad key", src: prologue + `implementors[crate] = [];`, syntaxMsg: "invalid character"},
		{name: "missing equals", src: prologue + `implementors["a"] [];`, syntaxMsg: "expected '='"},
		{name: "bad list", src: prologue + `implementors["a"] = [{"text":1}];`, syntaxMsg: "cannot unmarshal"},
		{name: "missing semicolon", src: prologue + `implementors["a"] = [] implementors["b"] = [];`, syntaxMsg: "expected ';'"},
		{name: "junk after trailer", src: prologue + trailer + "alert(1)", syntaxMsg: "after trailer"},
		{name: "unknown statement", src: prologue + `window.x = 1;`, syntaxMsg: "expected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes([]byte(tt.src))
			require.Error(t, err)
			if tt.notFrag {
				require.ErrorIs(t, err, ErrNotFragment)
				return
			}
			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr), "got %T: %v", err, err)
			require.Contains(t, syntaxErr.Msg, tt.syntaxMsg)
			require.Greater(t, syntaxErr.Offset, 0)
		})
	}
}

func TestDecode_ToleratesWhitespace(t *testing.T) {
	src := "\n  " + prologue + "\r\n\timplementors[ \"a\" ]  =  [ ] ;\n\n" + trailer + ";\n"
	table, err := DecodeBytes([]byte(src))
	require.NoError(t, err)
	require.True(t, table.Has("a"))
}
