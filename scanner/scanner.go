// Package scanner drives extraction over a batch of Java source units.
package scanner

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/tsbind/java"
	"github.com/dhamidi/tsbind/java/treesitter"
)

var log = commonlog.GetLogger("tsbind.scanner")

type Category string

const (
	CategoryRead       Category = "read"
	CategoryParse      Category = "parse"
	CategoryUnresolved Category = "unresolved-type"
	CategoryError      Category = "error"
)

// Diagnostic describes why one unit produced no declaration.
type Diagnostic struct {
	Unit     string
	Category Category
	Message  string
	Problems []java.Problem
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Unit, d.Category, d.Message)
}

// Result is the outcome of one batch. Declarations are in unit name order.
type Result struct {
	Declarations []*java.Declaration
	Passed       int
	Failed       int
	// Skipped counts units whose principal type is not public.
	Skipped     int
	Diagnostics []Diagnostic
	StartedAt   time.Time
	EndedAt     time.Time
}

func (r *Result) Total() int {
	return r.Passed + r.Failed + r.Skipped
}

func (r *Result) Summary() string {
	return fmt.Sprintf("%d passed, %d failed", r.Passed+r.Skipped, r.Failed)
}

type Scanner struct {
	include  []compiledPattern
	exclude  []compiledPattern
	workers  int
	strict   bool
	nullable []string
	progress func(done, total int)
}

type Options struct {
	Include             []string
	Exclude             []string
	Workers             int
	Strict              bool
	NullableAnnotations []string
	// Progress, if set, is called after each unit from the worker that
	// finished it.
	Progress func(done, total int)
}

func New(opts Options) (*Scanner, error) {
	include, err := compilePatterns(opts.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compilePatterns(opts.Exclude)
	if err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		include:  include,
		exclude:  exclude,
		workers:  workers,
		strict:   opts.Strict,
		nullable: opts.NullableAnnotations,
		progress: opts.Progress,
	}, nil
}

// Scan discovers the units under inputs and extracts them.
func (s *Scanner) Scan(ctx context.Context, inputs []string) (*Result, error) {
	units, diags, err := s.Discover(inputs)
	if err != nil {
		return nil, err
	}
	result, err := s.Run(ctx, units)
	if err != nil {
		return nil, err
	}
	for _, d := range diags {
		log.Warningf("%s", d)
	}
	result.Failed += len(diags)
	result.Diagnostics = append(diags, result.Diagnostics...)
	return result, nil
}

type outcome struct {
	decl *java.Declaration
	err  error
}

// Run extracts every unit. A failing unit is recorded as a diagnostic and
// never stops the others; only cancellation of ctx aborts the batch.
func (s *Scanner) Run(ctx context.Context, units []java.SourceUnit) (*Result, error) {
	result := &Result{StartedAt: time.Now()}

	resolver := treesitter.New(
		treesitter.WithKnownTypes(KnownTypes(units)),
		treesitter.WithStrictImports(s.strict),
	)
	var opts []java.ExtractorOption
	if len(s.nullable) > 0 {
		opts = append(opts, java.WithNullableAnnotations(s.nullable...))
	}
	extractor := java.NewExtractor(resolver, opts...)

	outcomes := make([]outcome, len(units))
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, unit := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			decl, err := extractor.Extract(gctx, unit)
			outcomes[i] = outcome{decl: decl, err: err}
			if s.progress != nil {
				s.progress(int(done.Add(1)), len(units))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "scan cancelled")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "scan cancelled")
	}

	for i, o := range outcomes {
		unit := units[i]
		switch {
		case o.err != nil:
			result.Failed++
			d := diagnose(unit, o.err)
			log.Warningf("%s", d)
			result.Diagnostics = append(result.Diagnostics, d)
		case o.decl == nil:
			result.Skipped++
		default:
			result.Passed++
			result.Declarations = append(result.Declarations, o.decl)
		}
	}
	result.EndedAt = time.Now()
	log.Infof("scanned %d units in %s: %s", len(units), result.EndedAt.Sub(result.StartedAt), result.Summary())
	return result, nil
}

func diagnose(unit java.SourceUnit, err error) Diagnostic {
	name := unit.Name
	if name == "" {
		name = unit.Path
	}
	d := Diagnostic{Unit: name, Category: CategoryError, Message: err.Error()}
	switch {
	case errors.Is(err, java.ErrParse):
		d.Category = CategoryParse
		var perr *java.ParseError
		if errors.As(err, &perr) {
			d.Problems = perr.Problems
		}
	case errors.Is(err, java.ErrUnresolvedType):
		d.Category = CategoryUnresolved
	}
	return d
}
