package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/culturemech/culturemech/internal/domain/recipe"
	"github.com/culturemech/culturemech/pkg/errors"
)

// ValidateReferences checks every EvidenceItem on r that carries both a
// reference and a snippet: the snippet must appear verbatim as a substring
// of the cited work's text, resolved via cache. Per spec, failures here are
// fatal when cfg.StrictReferences is true — no silent fallback.
func ValidateReferences(ctx context.Context, r *recipe.Recipe, cache ReferenceCache, cfg Config) []Issue {
	var issues []Issue

	for i, ev := range r.Evidence {
		if ev.Reference == "" || ev.Snippet == "" {
			continue
		}
		field := fmt.Sprintf("evidence[%d]", i)

		text, found, err := cache.Lookup(ctx, ev.Reference)
		if err != nil {
			issues = append(issues, Issue{Pass: PassReferences, Code: errors.CodeReferenceMismatch, Field: field,
				Message: fmt.Sprintf("reference cache lookup for %s failed: %v", ev.Reference, err)})
			continue
		}
		if !found {
			issues = append(issues, Issue{Pass: PassReferences, Code: errors.CodeReferenceMismatch, Field: field,
				Message: fmt.Sprintf("reference %s not found in cache", ev.Reference)})
			continue
		}
		if !strings.Contains(text, ev.Snippet) {
			issues = append(issues, Issue{Pass: PassReferences, Code: errors.CodeReferenceMismatch, Field: field,
				Message: fmt.Sprintf("snippet not found in cited text for %s", ev.Reference)})
		}
	}

	return issues
}
