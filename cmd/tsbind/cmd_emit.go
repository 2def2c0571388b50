package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dhamidi/tsbind/codebase"
	"github.com/dhamidi/tsbind/config"
	"github.com/dhamidi/tsbind/format"
	"github.com/dhamidi/tsbind/java"
)

func newEmitCmd() *cobra.Command {
	var bare bool

	cmd := &cobra.Command{
		Use:   "emit <file.java>",
		Short: "Print the TypeScript generated for one Java file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			c, decl, err := loadFile(cfg, args[0])
			if err != nil {
				return err
			}
			if decl == nil {
				fmt.Fprintf(os.Stderr, "%s: no public type\n", args[0])
				return nil
			}

			if bare {
				enc := format.NewTypeScriptEncoder(cmd.OutOrStdout(),
					format.WithIndent(cfg.Indent),
					format.WithDocFilter(cfg.DocFilter()),
				)
				return enc.Encode(decl)
			}
			text, err := c.Render(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}

	addGenerationFlags(cmd.Flags())
	cmd.Flags().BoolVar(&bare, "bare", false, "print only the declaration, without the module wrapper")

	return cmd
}

// loadFile extracts a single file. A nil declaration without an error means
// the file has no public principal type.
func loadFile(cfg *config.Config, path string) (*codebase.Codebase, *java.Declaration, error) {
	c := codebase.New(".", codebaseOptions(cfg))
	if err := c.ScanFile(path); err != nil {
		return nil, nil, err
	}
	f := c.GetFile(path)
	if f.Err != nil {
		var perr *java.ParseError
		if errors.As(f.Err, &perr) {
			for _, p := range perr.Problems {
				fmt.Fprintf(os.Stderr, "%s:%d:%d: %s\n", path, p.Line, p.Column, p.Message)
			}
		}
		return nil, nil, f.Err
	}
	return c, f.Declaration, nil
}
