package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/implbridge/internal/config"
	"github.com/zjrosen/implbridge/internal/presentation"
	"github.com/zjrosen/implbridge/internal/testutil"
)

type fixture struct {
	docRoot    string
	configPath string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	docRoot := testutil.NewBuilderAt(t, filepath.Join(dir, "doc")).WithStandardTestData().Build()

	configPath := filepath.Join(dir, "config.yaml")
	content := "doc_root: " + docRoot + "\n" +
		"store:\n  path: " + filepath.Join(dir, "index.db") + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return fixture{docRoot: docRoot, configPath: configPath}
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, child := range c.Commands() {
		resetFlags(child)
	}
}

// run executes the CLI with args against the fixture's config file.
func run(t *testing.T, f fixture, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = config.Config{}
	t.Cleanup(func() {
		resetFlags(rootCmd)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", f.configPath))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSetDefaults_MatchConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var got config.Config
	require.NoError(t, v.Unmarshal(&got))

	want := config.Defaults()
	require.Equal(t, want.Bridge, got.Bridge)
	require.Equal(t, want.Watch, got.Watch)
	require.Equal(t, want.Render, got.Render)
	require.Equal(t, want.Store, got.Store)
	require.Equal(t, want.Tracing, got.Tracing)
}

func TestScan_JSON(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, f, "scan", "--json")
	require.NoError(t, err)

	var result presentation.ScanResultDTO
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Equal(t, "late", result.Attach)
	require.Len(t, result.Pages, 4)
	require.Empty(t, result.Pending)
	require.Equal(t, 4, result.Stats.Delivered)

	var send presentation.PageSummaryDTO
	for _, p := range result.Pages {
		if p.Trait == testutil.TraitSend {
			send = p
		}
	}
	require.Equal(t, 2, send.Crates)
	require.Equal(t, 3, send.Implementors)
	require.Equal(t, 1, send.Deliveries)
}

func TestScan_Summary(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, f, "scan")
	require.NoError(t, err)
	require.Contains(t, out, "core::marker::Send")
	require.Contains(t, out, "4 pages from "+f.docRoot)
}

func TestShow_Text(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, f, "show", "core::marker::Send", "--format", "text")
	require.NoError(t, err)
	require.Contains(t, out, "impl Send for Ident")
	require.Contains(t, out, "Auto implementors")
	require.NotContains(t, out, "<code>")
}

func TestShow_JSON(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, f, "show", "core::marker::Send", "-f", "json")
	require.NoError(t, err)

	var page presentation.PageDTO
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Equal(t, 3, page.Count)
	require.Equal(t, "syn", page.Crates[0].Name)
	require.Equal(t, "syn::Ident", page.Crates[0].Implementors[0].TypePath)
}

func TestShow_UnknownTrait(t *testing.T) {
	f := newFixture(t)
	_, err := run(t, f, "show", "core::marker::Sync")
	require.Error(t, err)
}

func TestShow_BadFormat(t *testing.T) {
	f := newFixture(t)
	_, err := run(t, f, "show", "core::marker::Send", "--format", "html")
	require.ErrorContains(t, err, "unknown render format")
}

func TestTypes(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, f, "types", "quote::Tokens")
	require.NoError(t, err)
	require.Contains(t, out, "core::marker::Send  [quote] (auto)")

	out, err = run(t, f, "types", "serde::Value")
	require.NoError(t, err)
	require.Contains(t, out, "no implementations found")
}

func TestPending(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, f, "pending", "--json")
	require.NoError(t, err)

	var pending []presentation.PendingDTO
	require.NoError(t, json.Unmarshal([]byte(out), &pending))
	require.Len(t, pending, 4)
	for _, p := range pending {
		require.Equal(t, 1, p.Pending)
		require.Equal(t, "overwrite", p.Policy)
	}
}

func TestEmit_ThenShow(t *testing.T) {
	f := newFixture(t)
	factsPath := filepath.Join(t.TempDir(), "to_tokens.jsonc")
	require.NoError(t, os.WriteFile(factsPath, []byte(`{
  // quote's trait, implemented in syn
  "trait": "quote::ToTokens",
  "crates": [
    {"name": "syn", "implementors": [{"text": "<code>impl ToTokens for Ident</code>", "types": ["syn::Ident"]}]},
  ],
}`), 0o600))

	out, err := run(t, f, "emit", factsPath)
	require.NoError(t, err)
	require.Contains(t, out, "quote::ToTokens: 1 crates, 1 implementors")
	require.FileExists(t, filepath.Join(f.docRoot, "implementors", "quote", "trait.ToTokens.js"))

	out, err = run(t, f, "types", "syn::Ident")
	require.NoError(t, err)
	require.Contains(t, out, "quote::ToTokens")
	require.Contains(t, out, testutil.TraitSend)
}

func TestConfigPolicy(t *testing.T) {
	f := newFixture(t)

	_, err := run(t, f, "config:policy", "queue")
	require.NoError(t, err)

	data, err := os.ReadFile(f.configPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "pending_policy: queue")
	require.Contains(t, string(data), "doc_root: "+f.docRoot)

	_, err = run(t, f, "config:policy", "drop")
	require.Error(t, err)
}

func TestConfigInit_RefusesExisting(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	f := fixture{configPath: filepath.Join(dir, "missing.yaml")}
	out, err := run(t, f, "config:init")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "wrote "))
	require.FileExists(t, filepath.Join(dir, ".implbridge", "config.yaml"))

	_, err = run(t, f, "config:init")
	require.ErrorContains(t, err, "already exists")
}
