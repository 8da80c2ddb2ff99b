package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for dirmirror.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dirmirror",
		Short: "Mirror an authenticated HTTP directory listing to disk",
		Long: `dirmirror walks an "Index of" style HTTP directory listing behind Basic
authentication, builds the complete file inventory breadth-first and downloads
every file into the same folder structure below a local destination.

Downloads run one at a time. The first failed request or write stops the run
with a non-zero exit status.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewMirrorCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
