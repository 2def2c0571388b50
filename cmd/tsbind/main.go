package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

func main() {
	var verbose int
	var logFile string

	rootCmd := &cobra.Command{
		Use:           "tsbind",
		Short:         "Generate TypeScript declarations from Java sources",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var path *string
			if logFile != "" {
				path = &logFile
			}
			commonlog.Configure(verbose, path)
		},
	}
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newEmitCmd())
	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newLSPCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tsbind: %s\n", err)
		os.Exit(1)
	}
}
