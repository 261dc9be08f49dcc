package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/herald-sh/herald/internal/build"
)

var rootCmd = &cobra.Command{
	Use:     "herald",
	Short:   "Notification delivery and retry engine",
	Long:    "Herald consumes auth events from the message broker and delivers notifications over email and SMS, with tiered broker-side retries.",
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
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sendCmd)
}
