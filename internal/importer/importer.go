// Package importer holds the logic shared by every per-source Layer-3
// importer: filename sanitization (delegated to the recipe package),
// duplicate detection against an existing source/source_id pair, and
// category routing from a source's native taxon vocabulary onto the six
// canonical categories. A source-specific importer (external collaborator)
// is expected to parse its own Layer-2 YAML and call into this package for
// everything that would otherwise be duplicated across every source.
package importer

import (
	"fmt"
	"strings"

	"github.com/culturemech/culturemech/internal/domain/recipe"
	"github.com/culturemech/culturemech/internal/layerstore"
	"github.com/culturemech/culturemech/pkg/errors"
)

// Filename builds the Layer-3 filename for (source, sourceID, name),
// delegating to recipe.LayerFilename so every importer and the layer store
// agree on exactly one sanitization rule.
func Filename(source, sourceID, name string) string {
	return recipe.LayerFilename(source, sourceID, name)
}

// Exists reports whether a Layer-3 record for (sourceDB, sourceID) is
// already present under source, per spec.md §4.1's "Filename collisions
// within a layer are ... rejected (Layer 3 importer, after verifying true
// duplication on SOURCE+SOURCE_ID)". The second return value is the
// colliding record's filename, for use in the rejection message.
func Exists(store *layerstore.Store, source, sourceDB, sourceID string) (bool, string, error) {
	var match string
	err := store.ScanRecipes(layerstore.LayerNormalized, source, func(key string, r *recipe.Recipe) error {
		if match != "" {
			return nil
		}
		if r.Provenance.SourceDB == sourceDB && r.Provenance.SourceID == sourceID {
			match = key
		}
		return nil
	})
	if err != nil {
		return false, "", err
	}
	return match != "", match, nil
}

// DuplicateError reports a rejected Layer-3 write because (sourceDB,
// sourceID) already has a record at existingKey.
func DuplicateError(source, sourceDB, sourceID, existingKey string) error {
	return errors.New(errors.CodeConflict,
		fmt.Sprintf("importer: %s/%s already imported from %s:%s as %s", source, sourceDB, sourceDB, sourceID, existingKey))
}

// categoryAliases maps a source's native taxon/organism-domain vocabulary
// onto spec.md §3's six canonical, lowercase categories. Unrecognized
// input routes to "specialized" rather than failing the import outright —
// an importer can always correct the category later through the repair
// pipeline or curation, but an unroutable category must never block
// ingestion of an otherwise-valid record.
var categoryAliases = map[string]string{
	"bacteria":       "bacterial",
	"bacterium":      "bacterial",
	"prokaryote":     "bacterial",
	"fungus":         "fungal",
	"fungi":          "fungal",
	"yeast":          "fungal",
	"mold":           "fungal",
	"archaeon":       "archaea",
	"archaebacteria": "archaea",
	"alga":           "algae",
	"algal":          "algae",
	"phytoplankton":  "algae",
	"imported":       "imported",
	"legacy":         "imported",
}

// RouteCategory maps a source's native category string onto one of spec.md
// §3's six canonical categories, falling back to "specialized" for
// anything it doesn't recognize.
func RouteCategory(native string) string {
	canonical, ok := categoryAliases[strings.ToLower(strings.TrimSpace(native))]
	if !ok {
		return "specialized"
	}
	return canonical
}
