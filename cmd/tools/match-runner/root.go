package main

import (
	"github.com/spf13/cobra"
)

const app = "match-runner"

var (
	debug     bool
	logFormat string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "match-runner runs the advisor matcher over a fixture file, without any backing services",
		// errors are reported by the commands themselves
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format: console or json")
}
