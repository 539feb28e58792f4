// Package main provides the viva CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	pretty  = true
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "viva",
		Short: "Automated technical interview sessions",
		Long: `viva conducts an automated technical interview about a live
project demo: it captures narration and screen content, asks
evidence-grounded questions, and produces a scored evaluation report.

Usage modes:
  viva run                  Start a live interview session
  viva run --chunk-dir DIR  Interview over pre-recorded audio chunks
  viva sessions             List stored sessions
  viva report <session-id>  Show or export a session report`,
	}

	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "Pretty print output")

	rootCmd.AddCommand(
		runCmd(),
		sessionsCmd(),
		reportCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("viva %s\n", version)
		},
	}
}
