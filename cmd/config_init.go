package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjrosen/implbridge/internal/bridge"
	"github.com/zjrosen/implbridge/internal/config"
)

var configInitGlobal bool

var configInitCmd = &cobra.Command{
	Use:   "config:init",
	Short: "Write a commented default config file",
	Long: `Write the default configuration to .implbridge/config.yaml, or to
~/.config/implbridge/config.yaml with --global. An existing file is left
alone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := localConfigPath
		if configInitGlobal {
			dir := config.DefaultConfigDir()
			if dir == "" {
				return fmt.Errorf("cannot determine home directory")
			}
			path = filepath.Join(dir, "config.yaml")
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return err
	},
}

var configPolicyCmd = &cobra.Command{
	Use:   "config:policy <overwrite|queue>",
	Short: "Set bridge.pending_policy in the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := bridge.ParsePolicy(args[0])
		if err != nil {
			return err
		}
		path := configPath()
		if err := config.SaveBridgePolicy(path, policy.String()); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "bridge.pending_policy = %s (%s)\n", policy, path)
		return err
	},
}

var configDocRootCmd = &cobra.Command{
	Use:   "config:doc-root <path>",
	Short: "Set doc_root in the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if err := config.SaveDocRoot(path, args[0]); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "doc_root = %s (%s)\n", args[0], path)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configInitCmd, configPolicyCmd, configDocRootCmd)
	configInitCmd.Flags().BoolVar(&configInitGlobal, "global", false, "write to ~/.config/implbridge/config.yaml")
}
