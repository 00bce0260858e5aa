// Package cli implements the hipotrack terminal client. It drives the
// same synchronization core the dashboard uses, connected straight to
// the backing services, and is mainly used by operators and loan
// officers who live in a terminal.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

var viewerEmail string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hipotrack",
	Short: "HipoTrack messaging client for the terminal",
	Long: `hipotrack lists your mortgage-application conversations, tails new
messages as they arrive and sends messages with attachments.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&viewerEmail, "user", "u", "", "email of the signed-in user (or HIPOTRACK_USER)")
}
