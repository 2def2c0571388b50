package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dhamidi/tsbind/config"
	"github.com/dhamidi/tsbind/format"
)

func newDumpCmd() *cobra.Command {
	var dumpFormat string

	cmd := &cobra.Command{
		Use:   "dump <file.java>",
		Short: "Dump the declaration model extracted from a Java file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			_, decl, err := loadFile(cfg, args[0])
			if err != nil {
				return err
			}
			if decl == nil {
				return errors.Newf("%s: no public type", args[0])
			}

			w := cmd.OutOrStdout()
			switch dumpFormat {
			case "json":
				if err := format.NewJSONModelEncoder(w).Encode(decl); err != nil {
					return errors.Wrap(err, "encode json")
				}
				fmt.Fprintln(w)
			case "line":
				if err := format.NewLineModelEncoder(w).Encode(decl); err != nil {
					return errors.Wrap(err, "encode line")
				}
			default:
				return errors.Newf("unknown format: %s (expected json or line)", dumpFormat)
			}
			return nil
		},
	}

	addGenerationFlags(cmd.Flags())
	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "line", "output format (json, line)")

	return cmd
}
