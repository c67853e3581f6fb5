package graph

import (
	"context"

	"github.com/culturemech/culturemech/internal/domain/recipe"
)

// Projector writes merge and composition relations into Neo4j. It is
// idempotent: every write uses MERGE, so re-running a projection over the
// same merge_yaml tree converges rather than duplicating nodes.
type Projector struct {
	driver *Driver
}

// NewProjector builds a Projector over an already-connected Driver.
func NewProjector(driver *Driver) *Projector {
	return &Projector{driver: driver}
}

// ProjectRecipe upserts a Layer-4 Recipe node along with its target-organism
// and cross-reference relations. Ingredients are not projected as nodes;
// the graph exists for composition/organism/provenance queries, not as a
// full ingredient ontology mirror (that's internal/ontology's job).
func (p *Projector) ProjectRecipe(ctx context.Context, r *recipe.Recipe) error {
	_, err := p.driver.executeWrite(ctx, func(tx Transaction) (any, error) {
		_, err := tx.Run(ctx, `
			MERGE (r:Recipe {id: $id})
			SET r.name = $name, r.category = $category,
			    r.source_db = $source_db, r.source_id = $source_id
		`, map[string]any{
			"id":        r.ID,
			"name":      r.Name,
			"category":  r.Category,
			"source_db": r.Provenance.SourceDB,
			"source_id": r.Provenance.SourceID,
		})
		if err != nil {
			return nil, err
		}

		for _, org := range r.TargetOrganisms {
			if org.PreferredTerm == "" {
				continue
			}
			if _, err := tx.Run(ctx, `
				MERGE (o:Organism {preferred_term: $term})
				WITH o
				MATCH (r:Recipe {id: $id})
				MERGE (r)-[:TARGETS]->(o)
			`, map[string]any{"term": org.PreferredTerm, "id": r.ID}); err != nil {
				return nil, err
			}
		}

		for kind, target := range r.CrossReferences {
			if target == "" {
				continue
			}
			if _, err := tx.Run(ctx, `
				MATCH (r:Recipe {id: $id})
				MERGE (x:CrossReference {kind: $kind, value: $value})
				MERGE (r)-[:REFERENCES]->(x)
			`, map[string]any{"id": r.ID, "kind": kind, "value": target}); err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	return err
}

// ProjectMergeGroup records that a set of source-layer recipes were merged
// into a single Layer-4 canonical record, so the provenance of a merge
// decision stays queryable after the merge_yaml tree has moved on.
func (p *Projector) ProjectMergeGroup(ctx context.Context, canonicalID string, memberIDs []string) error {
	_, err := p.driver.executeWrite(ctx, func(tx Transaction) (any, error) {
		for _, memberID := range memberIDs {
			if memberID == canonicalID {
				continue
			}
			if _, err := tx.Run(ctx, `
				MERGE (m:Recipe {id: $member})
				WITH m
				MATCH (c:Recipe {id: $canonical})
				MERGE (m)-[:MERGED_INTO]->(c)
			`, map[string]any{"member": memberID, "canonical": canonicalID}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// ProjectComposition records a KOMODO-to-DSMZ composition resolution link,
// so a later query can trace which DSMZ medium number donated a recipe's
// ingredient list.
func (p *Projector) ProjectComposition(ctx context.Context, komodoID, dsmzID, dsmzMediumNumber string) error {
	_, err := p.driver.executeWrite(ctx, func(tx Transaction) (any, error) {
		_, err := tx.Run(ctx, `
			MERGE (k:Recipe {id: $komodo})
			WITH k
			MERGE (d:Recipe {id: $dsmz})
			MERGE (k)-[rel:COMPOSED_FROM]->(d)
			SET rel.dsmz_medium_number = $medium_number
		`, map[string]any{"komodo": komodoID, "dsmz": dsmzID, "medium_number": dsmzMediumNumber})
		return nil, err
	})
	return err
}
