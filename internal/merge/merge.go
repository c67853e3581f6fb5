// Package merge implements the ingredient-set fingerprint deduplication
// engine: groups Layer-3 recipes sharing a formulation fingerprint, picks
// one canonical record per group, and emits a Layer-4 record carrying the
// union of categories, the absorbed names as synonyms, and a merge
// statistics summary.
package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/culturemech/culturemech/internal/domain/recipe"
)

const concentrationDisagreementThreshold = 0.10

// sourcePriority ranks a source for canonical-selection tie-breaking:
// lower is preferred. Unlisted sources all tie at the lowest priority.
func sourcePriority(sourceDB string) int {
	switch strings.ToUpper(sourceDB) {
	case "DSMZ":
		return 0
	case "MEDIADIVE":
		return 1
	case "TOGO":
		return 2
	case "KOMODO":
		return 3
	default:
		return 99
	}
}

// SkipCounters tallies recipes the merger declined to group, by reason.
type SkipCounters struct {
	NoIngredientsField int
	NoValidIngredients int
	ParseError         int
}

// GroupSummary describes one fingerprint group for the top-K report.
type GroupSummary struct {
	Fingerprint   string
	CanonicalName string
	Size          int
}

// Stats summarizes one merge run.
type Stats struct {
	InputRecipes        int
	OutputRecipes       int
	ReductionPercentage float64
	CrossCategoryMerges int
	LargestGroupSize    int
	TopGroups           []GroupSummary
	Skipped             SkipCounters
}

// Merge groups recipes by ingredient-set fingerprint and emits one Layer-4
// record per group. normalize is the canonical-form function threaded
// through to Recipe.Fingerprint. parseErrorCount carries over the count of
// files that failed to parse during the Layer-3 scan that produced
// recipes — the merger itself never parses files, so this is supplied by
// the caller for the stats summary. topK bounds how many of the largest
// groups are reported; 0 defaults to 10.
func Merge(recipes []*recipe.Recipe, normalize func(string) string, curatorID string, parseErrorCount, topK int) ([]*recipe.Recipe, Stats) {
	if topK <= 0 {
		topK = 10
	}

	groups := make(map[string][]*recipe.Recipe)
	var skipped SkipCounters
	skipped.ParseError = parseErrorCount

	for _, r := range recipes {
		if len(r.Ingredients) == 0 && len(r.Solutions) == 0 {
			skipped.NoIngredientsField++
			continue
		}
		fp, ok := r.Fingerprint(normalize)
		if !ok {
			skipped.NoValidIngredients++
			continue
		}
		groups[fp] = append(groups[fp], r)
	}

	var output []*recipe.Recipe
	var summaries []GroupSummary
	crossCategoryMerges := 0
	largestGroupSize := 0

	for fp, group := range groups {
		canonical := pickCanonical(group)
		merged := buildLayer4Record(canonical, group, fp, curatorID)
		output = append(output, merged)

		if spansMultipleCategories(group) {
			crossCategoryMerges++
		}
		if len(group) > largestGroupSize {
			largestGroupSize = len(group)
		}
		summaries = append(summaries, GroupSummary{
			Fingerprint:   fp,
			CanonicalName: canonical.Name,
			Size:          len(group),
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Size != summaries[j].Size {
			return summaries[i].Size > summaries[j].Size
		}
		return summaries[i].Fingerprint < summaries[j].Fingerprint
	})
	if len(summaries) > topK {
		summaries = summaries[:topK]
	}

	sort.SliceStable(output, func(i, j int) bool { return output[i].ID < output[j].ID })

	stats := Stats{
		InputRecipes:        len(recipes),
		OutputRecipes:       len(output),
		CrossCategoryMerges: crossCategoryMerges,
		LargestGroupSize:    largestGroupSize,
		TopGroups:           summaries,
		Skipped:             skipped,
	}
	if stats.InputRecipes > 0 {
		stats.ReductionPercentage = 100 * float64(stats.InputRecipes-stats.OutputRecipes) / float64(stats.InputRecipes)
	}
	return output, stats
}

// pickCanonical selects the group member whose name occurs most often
// within the group; ties break by source priority, then lexicographically
// by name.
func pickCanonical(group []*recipe.Recipe) *recipe.Recipe {
	nameCounts := make(map[string]int, len(group))
	for _, r := range group {
		nameCounts[r.Name]++
	}

	bestName := ""
	bestCount := -1
	bestPriority := 1 << 30
	for name, count := range nameCounts {
		priority := minSourcePriorityForName(group, name)
		switch {
		case count > bestCount:
			bestName, bestCount, bestPriority = name, count, priority
		case count == bestCount && priority < bestPriority:
			bestName, bestPriority = name, priority
		case count == bestCount && priority == bestPriority && name < bestName:
			bestName = name
		}
	}

	var best *recipe.Recipe
	for _, r := range group {
		if r.Name != bestName {
			continue
		}
		if best == nil ||
			sourcePriority(r.Provenance.SourceDB) < sourcePriority(best.Provenance.SourceDB) ||
			(sourcePriority(r.Provenance.SourceDB) == sourcePriority(best.Provenance.SourceDB) && r.ID < best.ID) {
			best = r
		}
	}
	return best
}

func minSourcePriorityForName(group []*recipe.Recipe, name string) int {
	best := 1 << 30
	for _, r := range group {
		if r.Name == name {
			if p := sourcePriority(r.Provenance.SourceDB); p < best {
				best = p
			}
		}
	}
	return best
}

func spansMultipleCategories(group []*recipe.Recipe) bool {
	seen := make(map[string]bool)
	for _, r := range group {
		cats := categoriesOf(r)
		for _, c := range cats {
			seen[c] = true
		}
	}
	return len(seen) > 1
}

func categoriesOf(r *recipe.Recipe) []string {
	if len(r.Categories) > 0 {
		return r.Categories
	}
	if r.Category != "" {
		return []string{r.Category}
	}
	return nil
}

func unionCategories(group []*recipe.Recipe) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range group {
		for _, c := range categoriesOf(r) {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out
}

// buildLayer4Record assembles the canonical Layer-4 record for one
// fingerprint group: union categories, enriched ingredient concentrations,
// synonyms for every non-canonical member, and a single merge curation
// event.
func buildLayer4Record(canonical *recipe.Recipe, group []*recipe.Recipe, fingerprint, curatorID string) *recipe.Recipe {
	merged := *canonical
	merged.Categories = unionCategories(group)
	merged.Ingredients = enrichIngredientConcentrations(canonical, group)
	merged.MergeFingerprint = fingerprint

	mergedFrom := make([]string, 0, len(group))
	var synonyms []recipe.Synonym
	for _, r := range group {
		mergedFrom = append(mergedFrom, r.ID)
		if r == canonical {
			continue
		}
		originalCategory := ""
		if cats := categoriesOf(r); len(cats) > 0 {
			originalCategory = cats[0]
		}
		synonyms = append(synonyms, recipe.Synonym{
			Name:             r.Name,
			Source:           r.Provenance.SourceDB,
			SourceID:         r.Provenance.SourceID,
			OriginalCategory: originalCategory,
		})
	}
	sort.SliceStable(mergedFrom, func(i, j int) bool { return mergedFrom[i] < mergedFrom[j] })
	merged.MergedFrom = mergedFrom
	merged.Synonyms = synonyms

	merged.CurationHistory = append([]recipe.CurationEvent{}, canonical.CurationHistory...)
	merged.AppendCurationEvent(curatorID, "Merged duplicate recipes",
		fmt.Sprintf("Merged %d duplicate recipes into canonical record", len(group)))

	return &merged
}

// enrichIngredientConcentrations copies the canonical recipe's ingredient
// list, annotating any ingredient whose concentration disagrees with a
// matching ingredient from another group member by more than 10%.
func enrichIngredientConcentrations(canonical *recipe.Recipe, group []*recipe.Recipe) []recipe.Ingredient {
	out := make([]recipe.Ingredient, len(canonical.Ingredients))
	copy(out, canonical.Ingredients)

	for i, ing := range out {
		if ing.Concentration == nil {
			continue
		}
		key := ingredientKey(ing)
		for _, other := range group {
			if other == canonical {
				continue
			}
			for _, oing := range other.AllIngredients() {
				if ingredientKey(oing) != key || oing.Concentration == nil {
					continue
				}
				if concentrationsDisagree(ing.Concentration.Value, oing.Concentration.Value) {
					out[i].Notes = appendNote(out[i].Notes, "concentration may vary across sources")
				}
			}
		}
	}
	return out
}

func ingredientKey(ing recipe.Ingredient) string {
	if id := ing.Identifier(); id != "" {
		return id
	}
	return strings.ToLower(strings.TrimSpace(ing.PreferredTerm))
}

func concentrationsDisagree(a, b float64) bool {
	if a == 0 && b == 0 {
		return false
	}
	denom := a
	if denom == 0 {
		denom = b
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff/denom > concentrationDisagreementThreshold
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	if strings.Contains(existing, note) {
		return existing
	}
	return existing + "; " + note
}
