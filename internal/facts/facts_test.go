package facts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/implbridge/internal/implementors"
)

const sampleYAML = `trait: syn::parse::Parse
crates:
  - name: syn
    implementors:
      - text: <code>impl Parse for Ident</code>
        types: ["syn::Ident"]
      - text: <code>impl Parse for Lifetime</code>
        types: ["syn::Lifetime"]
  - name: quote
    implementors:
      - text: <code>impl Send for Tokens</code>
        synthetic: true
`

const sampleJSONC = `{
  // generated by hand
  "trait": "syn::parse::Parse",
  "crates": [
    {
      "name": "syn",
      "implementors": [
        {"text": "<code>impl Parse for Ident</code>", "types": ["syn::Ident"]},
        {"text": "<code>impl Parse for Lifetime</code>", "types": ["syn::Lifetime"]},
      ],
    },
    {
      "name": "quote",
      "implementors": [
        {"text": "<code>impl Send for Tokens</code>", "synthetic": true}, /* auto */
      ],
    },
  ],
}`

func requireSample(t *testing.T, f File) {
	t.Helper()
	require.Equal(t, "syn::parse::Parse", f.Trait)

	table := implementors.Assemble(f.CrateFacts()...)
	require.Equal(t, []string{"syn", "quote"}, table.Crates())
	require.Equal(t, 3, table.Count())

	syn, ok := table.Implementors("syn")
	require.True(t, ok)
	require.Equal(t, "syn::Ident", syn[0].QualifiedName())
	require.False(t, syn[0].Synthetic())

	quote, ok := table.Implementors("quote")
	require.True(t, ok)
	require.True(t, quote[0].Synthetic())
	require.Empty(t, quote[0].TypePath())
}

func TestParseYAML(t *testing.T) {
	f, err := ParseYAML([]byte(sampleYAML))
	require.NoError(t, err)
	requireSample(t, f)
}

func TestParseJSONC(t *testing.T) {
	f, err := ParseJSONC([]byte(sampleJSONC))
	require.NoError(t, err)
	requireSample(t, f)
}

func TestReadFile_ByExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "parse.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(sampleYAML), 0o600))
	f, err := ReadFile(yamlPath)
	require.NoError(t, err)
	requireSample(t, f)

	jsoncPath := filepath.Join(dir, "parse.jsonc")
	require.NoError(t, os.WriteFile(jsoncPath, []byte(sampleJSONC), 0o600))
	f, err = ReadFile(jsoncPath)
	require.NoError(t, err)
	requireSample(t, f)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		file    File
		wantErr string
	}{
		{name: "no trait", file: File{}, wantErr: "trait is required"},
		{
			name:    "unnamed crate",
			file:    File{Trait: "T", Crates: []Crate{{}}},
			wantErr: "crates[0]: name is required",
		},
		{
			name:    "duplicate crate",
			file:    File{Trait: "T", Crates: []Crate{{Name: "a"}, {Name: "a"}}},
			wantErr: `crate "a" listed twice`,
		},
		{
			name:    "empty text",
			file:    File{Trait: "T", Crates: []Crate{{Name: "a", Implementors: []Implementor{{}}}}},
			wantErr: `crate "a" implementors[0]: text is required`,
		},
		{name: "empty crate list is fine", file: File{Trait: "T"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.file.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParseYAML_Malformed(t *testing.T) {
	_, err := ParseYAML([]byte("trait: [unterminated"))
	require.Error(t, err)
}
