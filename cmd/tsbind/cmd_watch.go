package main

import (
	"io"
	"os"
	"os/signal"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dhamidi/tsbind/codebase"
	"github.com/dhamidi/tsbind/config"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir...]",
		Short: "Regenerate the .d.ts files whenever a source changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Sources = args
			}

			var dirs []string
			for _, src := range cfg.Sources {
				if info, err := os.Stat(src); err == nil && info.IsDir() {
					dirs = append(dirs, src)
				}
			}
			if len(dirs) == 0 {
				return errors.New("watch needs at least one source directory")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			regenerate := func() {
				result, files, err := generate(ctx, cfg, io.Discard)
				if err != nil {
					log.Errorf("%s", err)
					return
				}
				report(out, result, files)
			}
			regenerate()

			w, err := codebase.NewWatcher(dirs, cfg.Debounce)
			if err != nil {
				return err
			}
			log.Noticef("watching %v", dirs)
			return w.Run(ctx, func(paths []string) {
				log.Infof("%d files changed, regenerating", len(paths))
				regenerate()
			})
		},
	}

	addGenerationFlags(cmd.Flags())

	return cmd
}
