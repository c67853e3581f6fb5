package importer

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/culturemech/culturemech/internal/domain/recipe"
	"github.com/culturemech/culturemech/internal/layerstore"
)

// SyntheticSource is the source identifier used by the reference importer
// below, reserved for this repository's own integration tests. No real
// upstream database uses it.
const SyntheticSource = "synthetic"

// syntheticRecord is the Layer-2 field shape the synthetic importer
// expects; a stand-in for whatever a real per-source importer would decode
// from its own Layer-2 YAML.
type syntheticRecord struct {
	RecipeID    string   `yaml:"recipe_id"`
	Name        string   `yaml:"name"`
	Category    string   `yaml:"category"`
	Ingredients []string `yaml:"ingredients"`
}

// ImportSynthetic converts every Layer-2 record under SyntheticSource into
// a Layer-3 recipe.Recipe, applying duplicate detection and category
// routing. It exists as a minimal, complete reference implementation of
// the importer contract (spec.md §6) for this repository's own tests;
// real sources are external collaborators built the same way.
func ImportSynthetic(store *layerstore.Store) ([]layerstore.Record, error) {
	var out []layerstore.Record
	err := store.Scan(layerstore.LayerRawYAML, SyntheticSource, func(rec layerstore.Record) error {
		var sr syntheticRecord
		if err := yaml.Unmarshal(rec.Content, &sr); err != nil {
			return err
		}

		dup, existingKey, err := Exists(store, SyntheticSource, SyntheticSource, sr.RecipeID)
		if err != nil {
			return err
		}
		if dup {
			return DuplicateError(SyntheticSource, SyntheticSource, sr.RecipeID, existingKey)
		}

		r, err := recipe.NewRecipe(
			fmt.Sprintf("%s:%s", SyntheticSource, sr.RecipeID),
			sr.Name, sr.Name,
			recipe.Provenance{SourceDB: SyntheticSource, SourceID: sr.RecipeID, FetchDate: time.Now().UTC()},
			SyntheticSource+"-importer",
		)
		if err != nil {
			return err
		}
		r.Categories = []string{RouteCategory(sr.Category)}

		if len(sr.Ingredients) == 0 {
			r.Ingredients = []recipe.Ingredient{{PreferredTerm: "composition not available"}}
		} else {
			for _, name := range sr.Ingredients {
				r.Ingredients = append(r.Ingredients, recipe.Ingredient{PreferredTerm: name})
			}
		}

		content, err := yaml.Marshal(r)
		if err != nil {
			return err
		}
		out = append(out, layerstore.Record{
			Source:  SyntheticSource,
			Key:     Filename(SyntheticSource, sr.RecipeID, sr.Name),
			Content: content,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
