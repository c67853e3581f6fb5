package layerstore

import (
	"gopkg.in/yaml.v3"

	"github.com/culturemech/culturemech/internal/domain/recipe"
	"github.com/culturemech/culturemech/pkg/errors"
)

// mergeFingerprintsDiffer reports whether two Layer-4 YAML blobs carry
// different merge_fingerprint values. An unparsable blob never blocks a
// write — a corrupt existing file is a defect to surface elsewhere, not a
// reason to wedge every future write to its key.
func mergeFingerprintsDiffer(existing, incoming []byte) (bool, error) {
	var existingRecipe, incomingRecipe recipe.Recipe
	if err := yaml.Unmarshal(existing, &existingRecipe); err != nil {
		return false, err
	}
	if err := yaml.Unmarshal(incoming, &incomingRecipe); err != nil {
		return false, err
	}
	if existingRecipe.MergeFingerprint == "" || incomingRecipe.MergeFingerprint == "" {
		return false, nil
	}
	return existingRecipe.MergeFingerprint != incomingRecipe.MergeFingerprint, nil
}

// PutRecipe marshals r as YAML and writes it at (layer, source, key).
// Intended for Layer 3 and Layer 4, where every record is a recipe.Recipe.
func (s *Store) PutRecipe(layer Layer, source, key string, r *recipe.Recipe) error {
	content, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "layerstore: marshal recipe for "+source+"/"+key)
	}
	return s.Put(layer, source, key, content)
}

// GetRecipe reads and unmarshals the recipe.Recipe stored at
// (layer, source, key).
func (s *Store) GetRecipe(layer Layer, source, key string) (*recipe.Recipe, error) {
	content, err := s.Get(layer, source, key)
	if err != nil {
		return nil, err
	}
	var r recipe.Recipe
	if err := yaml.Unmarshal(content, &r); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "layerstore: unmarshal recipe at "+source+"/"+key)
	}
	return &r, nil
}

// ScanRecipes walks layer like Scan, unmarshaling each record as a
// recipe.Recipe before invoking fn. A record that fails to unmarshal stops
// the walk and is returned as an error rather than silently skipped; fn is
// not called for it.
func (s *Store) ScanRecipes(layer Layer, source string, fn func(key string, r *recipe.Recipe) error) error {
	return s.Scan(layer, source, func(rec Record) error {
		var r recipe.Recipe
		if err := yaml.Unmarshal(rec.Content, &r); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "layerstore: unmarshal recipe at "+rec.Source+"/"+rec.Key)
		}
		return fn(rec.Key, &r)
	})
}
