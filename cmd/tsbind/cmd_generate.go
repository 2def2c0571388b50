package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dhamidi/tsbind/config"
	"github.com/dhamidi/tsbind/project"
	"github.com/dhamidi/tsbind/scanner"
)

var errUnitsFailed = errors.New("some units failed")

func newGenerateCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "generate [source...]",
		Short: "Convert Java sources, directories, jars and zips into .d.ts files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Sources = args
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			var progress io.Writer = os.Stderr
			if quiet {
				progress = io.Discard
			}
			result, files, err := generate(ctx, cfg, progress)
			if err != nil {
				return err
			}
			report(cmd.OutOrStdout(), result, files)
			if cfg.FailOnError && result.Failed > 0 {
				return errUnitsFailed
			}
			return nil
		},
	}

	addGenerationFlags(cmd.Flags())
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")

	return cmd
}

// generate runs one full batch and writes the output directory.
func generate(ctx context.Context, cfg *config.Config, progress io.Writer) (*scanner.Result, []string, error) {
	var (
		once sync.Once
		bar  *progressbar.ProgressBar
	)
	opts := scannerOptions(cfg)
	opts.Progress = func(done, total int) {
		once.Do(func() { bar = newProgressBar(progress, total) })
		_ = bar.Add(1)
	}
	s, err := scanner.New(opts)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.Scan(ctx, cfg.Sources)
	if err != nil {
		return nil, nil, err
	}

	p := project.New(cfg.OutDir, result.Declarations)
	files, err := p.Write(cfg.Indent, cfg.DocFilter())
	if err != nil {
		return result, nil, err
	}
	return result, files, nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Converting"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("units/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

func report(w io.Writer, result *scanner.Result, files []string) {
	for _, d := range result.Diagnostics {
		fmt.Fprintln(w, d.String())
	}
	fmt.Fprintf(w, "%s, %d files written in %s\n", result.Summary(), len(files), result.EndedAt.Sub(result.StartedAt).Round(time.Millisecond))
}
