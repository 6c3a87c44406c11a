package main

import (
	"github.com/spf13/cobra"
)

// Execute runs the avatarview command tree.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "avatarview",
		Short:         "Show an animated avatar and hot-swap it from an external avatar tool",
		Long:          "avatarview loads a default avatar, loops an idle animation on it, and replaces the avatar whenever the avatar creation tool reports an export.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file (default ./avatarview.toml if present)")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newConfigCmd(&configPath),
	)

	return rootCmd
}
