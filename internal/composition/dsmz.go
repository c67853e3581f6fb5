package composition

import (
	"regexp"
	"strconv"

	"github.com/culturemech/culturemech/internal/domain/recipe"
)

// dsmzNumberPatterns recognizes the known free-text shapes a DSMZ medium
// cross-reference shows up in: a filename copied into notes, or a bare
// "DSM <number>" mention.
var dsmzNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`DSMZ_Medium(\d+)\.pdf`),
	regexp.MustCompile(`(?i)DSM\s*(\d+)`),
}

// ExtractDSMZMediumNumber pulls a DSMZ medium number from a recipe's
// structured cross-references first, falling back to pattern matching its
// free-text notes.
func ExtractDSMZMediumNumber(r *recipe.Recipe) (string, bool) {
	if v, ok := r.CrossReferences["dsmz_medium_number"]; ok && v != "" {
		return v, true
	}
	for _, re := range dsmzNumberPatterns {
		if m := re.FindStringSubmatch(r.Notes); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// DSMZIndex is an in-memory index of Layer-3 DSMZ recipes keyed by medium
// number, built once per resolver run.
type DSMZIndex struct {
	byMediumNumber map[string]*recipe.Recipe
}

// BuildDSMZIndex indexes every DSMZ-sourced recipe in recipes by its medium
// number: the structured cross-reference when present, else its
// provenance source_id (DSMZ's own id scheme is the medium number).
func BuildDSMZIndex(recipes []*recipe.Recipe) *DSMZIndex {
	idx := &DSMZIndex{byMediumNumber: make(map[string]*recipe.Recipe)}
	for _, r := range recipes {
		if r.Provenance.SourceDB != "DSMZ" {
			continue
		}
		number := r.Provenance.SourceID
		if v, ok := r.CrossReferences["dsmz_medium_number"]; ok && v != "" {
			number = v
		}
		number = normalizeMediumNumber(number)
		if number == "" {
			continue
		}
		idx.byMediumNumber[number] = r
	}
	return idx
}

// Lookup finds the DSMZ recipe for the given medium number.
func (idx *DSMZIndex) Lookup(number string) (*recipe.Recipe, bool) {
	r, ok := idx.byMediumNumber[normalizeMediumNumber(number)]
	return r, ok
}

// normalizeMediumNumber strips leading zeros so "001" and "1" index to the
// same recipe, without disturbing a non-numeric id.
func normalizeMediumNumber(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return strconv.Itoa(n)
}

// NewKOMODODSMZResolver builds the concrete KOMODO→DSMZ resolver over an
// index of the supplied DSMZ recipes.
func NewKOMODODSMZResolver(dsmzRecipes []*recipe.Recipe) *Resolver {
	idx := BuildDSMZIndex(dsmzRecipes)
	return &Resolver{
		TargetSource: "DSMZ",
		SourceSource: "KOMODO",
		Extract:      ExtractDSMZMediumNumber,
		Lookup:       idx.Lookup,
	}
}
