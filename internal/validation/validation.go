// Package validation implements the three-pass validation gate run at the
// Layer-3 boundary: structural shape, ontology-term resolution, and
// bibliographic-reference verification. The three passes are independent —
// a file can fail one, two, or all three — and the driver aggregates a
// ValidationReport per file plus corpus-level statistics.
package validation

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/culturemech/culturemech/internal/domain/recipe"
	"github.com/culturemech/culturemech/internal/ontology"
	"github.com/culturemech/culturemech/pkg/errors"
)

// Pass identifies which of the three independent checks an Issue came from.
type Pass string

const (
	PassStructural Pass = "structural"
	PassTerms      Pass = "terms"
	PassReferences Pass = "references"
)

// Issue is one validation finding against a single recipe.
type Issue struct {
	Pass    Pass
	Code    errors.ErrorCode
	Field   string
	Message string
}

// ValidationReport is the outcome of running all three passes against one
// recipe file.
type ValidationReport struct {
	Path   string
	Issues []Issue
	Fatal  bool // true if a reference-check failure was fatal under the active Config
	Passed bool
}

func (r *ValidationReport) addIssue(i Issue, strictReferences bool) {
	r.Issues = append(r.Issues, i)
	if i.Pass == PassReferences && strictReferences {
		r.Fatal = true
	}
}

// ReferenceCache resolves a bibliographic reference to the cited work's
// text. Implemented by internal/infrastructure/database/postgres.ReferenceCache;
// declared here so this package depends on the capability, not the backend.
type ReferenceCache interface {
	Lookup(ctx context.Context, reference string) (text string, found bool, err error)
}

// Config tunes pass behavior that the corpus's recipes alone don't decide.
type Config struct {
	// StrictReferences, when true (the default), treats an EvidenceItem
	// whose snippet cannot be found in the cited text as fatal. When
	// false, the same condition is recorded as a non-fatal Issue.
	StrictReferences bool
}

// Stats aggregates corpus-level validation counts.
type Stats struct {
	TotalFiles         int
	StructuralFailures int
	TermFailures       int
	ReferenceFailures  int
	FatalFailures      int
	Passed             int
}

// ValidateOne runs all three passes against a single recipe. svc and cache
// may be nil, in which case the corresponding pass is skipped entirely
// (useful for structural-only validation in tests or constrained
// environments); a skipped pass contributes no issues.
func ValidateOne(ctx context.Context, path string, r *recipe.Recipe, svc ontology.Service, cache ReferenceCache, cfg Config) *ValidationReport {
	report := &ValidationReport{Path: path}

	for _, issue := range ValidateStructural(r) {
		report.addIssue(issue, cfg.StrictReferences)
	}
	if svc != nil {
		for _, issue := range ValidateTerms(ctx, r, svc) {
			report.addIssue(issue, cfg.StrictReferences)
		}
	}
	if cache != nil {
		for _, issue := range ValidateReferences(ctx, r, cache, cfg) {
			report.addIssue(issue, cfg.StrictReferences)
		}
	}

	report.Passed = len(report.Issues) == 0
	return report
}

// Validate runs ValidateOne over every (path, recipe) pair concurrently,
// bounded by CPU count, matching the pipeline's data-parallel-at-stage-
// boundaries concurrency model. The returned map is keyed by path.
func Validate(ctx context.Context, files map[string]*recipe.Recipe, svc ontology.Service, cache ReferenceCache, cfg Config) (map[string]*ValidationReport, Stats, error) {
	reports := make(map[string]*ValidationReport, len(files))
	type pair struct {
		path string
		r    *recipe.Recipe
	}
	pairs := make([]pair, 0, len(files))
	for path, r := range files {
		pairs = append(pairs, pair{path, r})
	}
	results := make([]*ValidationReport, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, runtime.NumCPU()))
	for i, p := range pairs {
		i, p := i, p
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = ValidateOne(gctx, p.path, p.r, svc, cache, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	var stats Stats
	for i, p := range pairs {
		report := results[i]
		reports[p.path] = report
		stats.TotalFiles++
		if report.Passed {
			stats.Passed++
			continue
		}
		var structural, terms, references bool
		for _, issue := range report.Issues {
			switch issue.Pass {
			case PassStructural:
				structural = true
			case PassTerms:
				terms = true
			case PassReferences:
				references = true
			}
		}
		if structural {
			stats.StructuralFailures++
		}
		if terms {
			stats.TermFailures++
		}
		if references {
			stats.ReferenceFailures++
		}
		if report.Fatal {
			stats.FatalFailures++
		}
	}

	return reports, stats, nil
}
