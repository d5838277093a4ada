package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/storefront-labs/orderpulse/internal/build"
)

var rootCmd = &cobra.Command{
	Use:     "orderpulse",
	Short:   "Order notification companion for the storefront admin backend",
	Long:    "orderpulse keeps a live connection to the storefront admin backend and surfaces order, return and payment notifications in the terminal.",
	Version: build.String(),
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(inboxCmd)
	rootCmd.AddCommand(NewUpdateCmd())
}
