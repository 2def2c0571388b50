package main

import (
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/tsbind/codebase"
	"github.com/dhamidi/tsbind/config"
)

var log = commonlog.GetLogger("tsbind.cli")

func newLSPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start a language server that previews generated TypeScript on hover",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			server := codebase.NewLSPServer(version, codebaseOptions(cfg), cfg.Debounce)
			return server.RunStdio()
		},
	}

	addGenerationFlags(cmd.Flags())

	return cmd
}
