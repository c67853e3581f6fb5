// Package composition implements cross-source enrichment of placeholder
// Layer-3 recipes: a source that only records a pointer to another source's
// full formulation (KOMODO referencing a DSMZ medium number, for instance)
// gets its composition filled in from the target recipe once it's found.
package composition

import (
	"fmt"

	"github.com/culturemech/culturemech/internal/domain/recipe"
)

// IDExtractor pulls the target-source cross-reference id out of a
// source-source recipe (its notes, structured cross-references, or any
// other provenance the concrete wiring cares to inspect).
type IDExtractor func(r *recipe.Recipe) (id string, ok bool)

// IDLookup resolves a target-source cross-reference id to the recipe it
// names, typically backed by an in-memory index built once per run.
type IDLookup func(id string) (*recipe.Recipe, bool)

// UnresolvedComposition reports one recipe the resolver could not enrich,
// and why.
type UnresolvedComposition struct {
	RecipeID  string
	Reason    string
	MissingID string
}

// Outcome is the result of running a Resolver over a batch of recipes.
type Outcome struct {
	Resolved   []string
	Unresolved []UnresolvedComposition
}

// Resolver generalizes the KOMODO↔DSMZ enrichment to any
// (targetSource, sourceSource, idExtractor, idLookup) tuple.
type Resolver struct {
	TargetSource string
	SourceSource string
	Extract      IDExtractor
	Lookup       IDLookup
}

// needsResolution reports whether r's ingredients are entirely absent or
// entirely placeholder, making it a candidate for cross-source enrichment.
func needsResolution(r *recipe.Recipe) bool {
	all := r.AllIngredients()
	if len(all) == 0 {
		return true
	}
	for _, ing := range all {
		if !ing.IsPlaceholder() {
			return false
		}
	}
	return true
}

func filterPlaceholderIngredients(ings []recipe.Ingredient) []recipe.Ingredient {
	out := make([]recipe.Ingredient, 0, len(ings))
	for _, ing := range ings {
		if !ing.IsPlaceholder() {
			out = append(out, ing)
		}
	}
	return out
}

func filterPlaceholderSolutions(sols []recipe.Solution) []recipe.Solution {
	out := make([]recipe.Solution, 0, len(sols))
	for _, s := range sols {
		s.Ingredients = filterPlaceholderIngredients(s.Ingredients)
		out = append(out, s)
	}
	return out
}

// ResolveAll scans recipes for source-source entries needing resolution,
// copies composition from the matching target-source recipe when one is
// found, and appends one curation event per successful resolution.
// Recipes not from SourceSource, or whose composition is already present,
// are left untouched and do not appear in Outcome at all.
func (res *Resolver) ResolveAll(recipes []*recipe.Recipe, curatorID string) Outcome {
	var out Outcome
	for _, r := range recipes {
		if r.Provenance.SourceDB != res.SourceSource {
			continue
		}
		if !needsResolution(r) {
			continue
		}

		id, ok := res.Extract(r)
		if !ok {
			out.Unresolved = append(out.Unresolved, UnresolvedComposition{
				RecipeID: r.ID,
				Reason:   "no_cross_reference_found",
			})
			continue
		}

		target, found := res.Lookup(id)
		if !found {
			out.Unresolved = append(out.Unresolved, UnresolvedComposition{
				RecipeID:  r.ID,
				Reason:    "unresolved_composition",
				MissingID: id,
			})
			continue
		}

		r.Ingredients = filterPlaceholderIngredients(target.Ingredients)
		r.Solutions = filterPlaceholderSolutions(target.Solutions)
		r.AppendCurationEvent(curatorID, "Resolved composition from cross-source reference",
			fmt.Sprintf("copied composition from %s:%s", res.TargetSource, id))
		out.Resolved = append(out.Resolved, r.ID)
	}
	return out
}
