// Package quality scans Layer-3 recipes and idempotently attaches quality
// flags describing known-shaky data: placeholder ingredients, recipes
// still awaiting curation attention, and ingredients whose ontology
// mapping carries low confidence.
package quality

import (
	"context"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/culturemech/culturemech/internal/domain/recipe"
	"github.com/culturemech/culturemech/internal/sssom"
)

// secondarySources are the scrapers considered low-trust for the purposes
// of the pending_curation flag; DSMZ, MediaDive, TOGO, and KOMODO are the
// primary sources and are never flagged pending_curation on source alone.
var secondarySources = map[string]bool{
	"BACDIVE":         true,
	"NBRC":            true,
	"ATCC":            true,
	"MEDIADB":         true,
	"UTEX":            true,
	"CCAP":            true,
	"SAG":             true,
	"MICROMEDIAPARAM": true,
}

func isSecondaryScraper(sourceDB string) bool {
	return secondarySources[strings.ToUpper(sourceDB)]
}

// ConfidenceLookup resolves an ingredient's free-text name to the
// confidence of its current ontology mapping, when one exists.
type ConfidenceLookup func(ingredientName string) (confidence float64, ok bool)

// ConfidenceLookupFromMappingSet builds a ConfidenceLookup from a loaded
// SSSOM mapping set, indexed by subject_label.
func ConfidenceLookupFromMappingSet(ms *sssom.MappingSet) ConfidenceLookup {
	index := make(map[string]float64, len(ms.Rows))
	for _, row := range ms.Rows {
		index[row.Mapping.SubjectLabel] = row.Mapping.Confidence
	}
	return func(name string) (float64, bool) {
		c, ok := index[name]
		return c, ok
	}
}

func hasPlaceholderIngredient(r *recipe.Recipe) bool {
	for _, ing := range r.AllIngredients() {
		if ing.IsPlaceholder() {
			return true
		}
	}
	return false
}

func isPendingCuration(r *recipe.Recipe) bool {
	return len(r.TargetOrganisms) == 0 &&
		!r.HasOntologyTerm() &&
		isSecondaryScraper(r.Provenance.SourceDB)
}

func hasLowConfidenceIngredient(r *recipe.Recipe, confidenceOf ConfidenceLookup) bool {
	if confidenceOf == nil {
		return false
	}
	for _, ing := range r.AllIngredients() {
		if confidence, ok := confidenceOf(ing.PreferredTerm); ok && confidence < 0.5 {
			return true
		}
	}
	return false
}

// Tag evaluates every quality predicate against r and adds any flag whose
// predicate currently holds. It never removes a flag: a flag a curator
// cleared stays cleared unless the predicate that earns it holds again on
// this pass. Returns whether any flag was added.
func Tag(r *recipe.Recipe, confidenceOf ConfidenceLookup) bool {
	changed := false
	if hasPlaceholderIngredient(r) && r.AddQualityFlag(recipe.FlagIncompleteComposition) {
		changed = true
	}
	if isPendingCuration(r) && r.AddQualityFlag(recipe.FlagPendingCuration) {
		changed = true
	}
	if hasLowConfidenceIngredient(r, confidenceOf) && r.AddQualityFlag(recipe.FlagLowConfidence) {
		changed = true
	}
	return changed
}

// TagBatch runs Tag over recipes concurrently, bounded by CPU count, per
// the pipeline's data-parallel-at-stage-boundaries concurrency model.
// Returns the count of recipes that received at least one new flag.
func TagBatch(ctx context.Context, recipes []*recipe.Recipe, confidenceOf ConfidenceLookup) (int, error) {
	changed := make([]bool, len(recipes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, runtime.NumCPU()))
	for i, r := range recipes {
		i, r := i, r
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			changed[i] = Tag(r, confidenceOf)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	count := 0
	for _, c := range changed {
		if c {
			count++
		}
	}
	return count, nil
}
