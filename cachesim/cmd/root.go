// Package cmd provides the command-line interface of cachesim.
package cmd

import (
	"github.com/sarchlab/cachesim/logger"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cachesim",
		Short: "cachesim replays memory traces through set-associative caches.",
		Long: `cachesim replays valgrind-style memory traces through ` +
			`write-back, write-allocate, set-associative caches with LRU ` +
			`replacement and reports hits, misses, evictions and dirty bytes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString(flagEnvFile)
			return loadEnvFile(envFile, cmd.Flags().Changed(flagEnvFile))
		},
	}

	rootCmd.PersistentFlags().String(flagLog, "",
		"log level: critical, error, warning, notice, info or debug "+
			"(env "+envLog+", default info)")
	rootCmd.PersistentFlags().String(flagEnvFile, ".env",
		"file that provides "+envPrefix+"* defaults")

	rootCmd.AddCommand(newSimCmd(), newSweepCmd(), newReportCmd())

	return rootCmd
}

// Execute runs the command line and exits. Registered exit handlers, like the
// ones that flush recorders, run before the process ends.
func Execute() {
	err := newRootCmd().Execute()
	if err != nil {
		logger.NewLogger("info", "cachesim").Critical(err.Error())
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
