package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/culturemech/culturemech/internal/domain/recipe"
	"github.com/culturemech/culturemech/internal/ontology"
	"github.com/culturemech/culturemech/pkg/errors"
)

func termIssue(code errors.ErrorCode, field, message string) Issue {
	return Issue{Pass: PassTerms, Code: code, Field: field, Message: message}
}

// ValidateTerms verifies every term.id reachable from r against svc,
// confirming term.label still matches the authoritative label up to case.
// A term that no longer resolves produces an id_not_found issue; a
// resolving term whose label has drifted produces a label_mismatch issue.
func ValidateTerms(ctx context.Context, r *recipe.Recipe, svc ontology.Service) []Issue {
	var issues []Issue

	checkTerm := func(field string, term *recipe.Term) {
		if term == nil || term.ID == "" {
			return
		}
		result, err := svc.Verify(ctx, term.ID)
		if err != nil {
			switch {
			case ontology.IsFailure(err, ontology.FailureNotFound),
				ontology.IsFailure(err, ontology.FailureInvalidID),
				ontology.IsFailure(err, ontology.FailureDeprecated):
				issues = append(issues, termIssue(errors.CodeTermNotFound, field+".id",
					fmt.Sprintf("%s does not resolve: %v", term.ID, err)))
			default:
				issues = append(issues, termIssue(errors.CodeOntologyNetwork, field+".id",
					fmt.Sprintf("could not verify %s: %v", term.ID, err)))
			}
			return
		}
		if !result.Valid {
			issues = append(issues, termIssue(errors.CodeTermNotFound, field+".id", fmt.Sprintf("%s does not resolve", term.ID)))
			return
		}
		if !strings.EqualFold(result.Label, term.Label) {
			issues = append(issues, termIssue(errors.CodeLabelMismatch, field+".label",
				fmt.Sprintf("label %q does not match authoritative label %q for %s", term.Label, result.Label, term.ID)))
		}
	}

	for i, ing := range r.AllIngredients() {
		checkTerm(fmt.Sprintf("ingredients[%d].term", i), ing.Term)
	}
	for i, org := range r.TargetOrganisms {
		checkTerm(fmt.Sprintf("target_organisms[%d].term", i), org.Term)
	}

	return issues
}
