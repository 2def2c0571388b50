package main

import (
	"github.com/spf13/pflag"

	"github.com/dhamidi/tsbind/codebase"
	"github.com/dhamidi/tsbind/config"
	"github.com/dhamidi/tsbind/scanner"
)

// addGenerationFlags registers the flags that override the configuration
// file. Their defaults only document the built-in values; an unset flag
// never wins over the file or the environment.
func addGenerationFlags(flags *pflag.FlagSet) {
	def := config.Default()
	flags.StringP("out", "o", def.OutDir, "output directory")
	flags.StringSlice("include", nil, "only convert units matching these globs")
	flags.StringSlice("exclude", nil, "skip units matching these globs")
	flags.IntP("workers", "j", def.Workers, "number of units converted in parallel")
	flags.String("indent", def.Indent, "indentation unit of the generated files")
	flags.String("doc-format", def.DocFormat, "javadoc rendering: plain, markdown or none")
	flags.Bool("strict", false, "treat types reachable only through wildcard imports as unresolved")
	flags.StringSlice("nullable", def.NullableAnnotations, "annotations that mark a type as nullable")
	flags.Bool("fail-on-error", false, "exit with an error when any unit fails")
	flags.Duration("debounce", def.Debounce, "quiet period before watch mode regenerates")
}

func scannerOptions(cfg *config.Config) scanner.Options {
	return scanner.Options{
		Include:             cfg.Include,
		Exclude:             cfg.Exclude,
		Workers:             cfg.Workers,
		Strict:              cfg.Strict,
		NullableAnnotations: cfg.NullableAnnotations,
	}
}

func codebaseOptions(cfg *config.Config) codebase.Options {
	return codebase.Options{
		Indent:              cfg.Indent,
		Docs:                cfg.DocFilter(),
		Strict:              cfg.Strict,
		NullableAnnotations: cfg.NullableAnnotations,
	}
}
