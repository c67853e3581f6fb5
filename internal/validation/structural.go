package validation

import (
	"fmt"

	"github.com/culturemech/culturemech/internal/domain/recipe"
	"github.com/culturemech/culturemech/pkg/errors"
)

var validConcentrationUnits = map[recipe.ConcentrationUnit]bool{
	recipe.UnitGPerL:    true,
	recipe.UnitMgPerL:   true,
	recipe.UnitMM:       true,
	recipe.UnitM:        true,
	recipe.UnitPercent:  true,
	recipe.UnitVariable: true,
}

var validMediumTypes = map[recipe.MediumType]bool{
	recipe.MediumComplex: true,
	recipe.MediumDefined: true,
	recipe.MediumUnknown: true,
}

var validPhysicalStates = map[recipe.PhysicalState]bool{
	recipe.StateLiquid:    true,
	recipe.StateSolid:     true,
	recipe.StateSemiSolid: true,
	recipe.StateUnknown:   true,
}

func structuralIssue(field, message string) Issue {
	return Issue{Pass: PassStructural, Code: errors.CodeStructuralInvalid, Field: field, Message: message}
}

// ValidateStructural checks that r carries every field §3 declares
// required and that every enum value it carries is one the schema
// recognizes. It performs no I/O.
func ValidateStructural(r *recipe.Recipe) []Issue {
	var issues []Issue

	if r.ID == "" {
		issues = append(issues, structuralIssue("id", "id must not be empty"))
	}
	if r.Name == "" {
		issues = append(issues, structuralIssue("name", "name must not be empty"))
	}
	if r.OriginalName == "" {
		issues = append(issues, structuralIssue("original_name", "original_name must not be empty"))
	}
	if r.Ingredients == nil {
		issues = append(issues, structuralIssue("ingredients", "ingredients must be present (may be empty)"))
	}
	if r.Provenance.SourceDB == "" {
		issues = append(issues, structuralIssue("provenance.source_db", "provenance.source_db must not be empty"))
	}
	if r.Provenance.SourceID == "" {
		issues = append(issues, structuralIssue("provenance.source_id", "provenance.source_id must not be empty"))
	}

	if r.MediumType != "" && !validMediumTypes[r.MediumType] {
		issues = append(issues, structuralIssue("medium_type", fmt.Sprintf("unrecognized medium_type %q", r.MediumType)))
	}
	if r.PhysicalState != "" && !validPhysicalStates[r.PhysicalState] {
		issues = append(issues, structuralIssue("physical_state", fmt.Sprintf("unrecognized physical_state %q", r.PhysicalState)))
	}

	for i, ing := range r.AllIngredients() {
		if ing.PreferredTerm == "" {
			issues = append(issues, structuralIssue(fmt.Sprintf("ingredients[%d].preferred_term", i), "preferred_term must not be empty"))
		}
		if ing.Concentration != nil && !validConcentrationUnits[ing.Concentration.Unit] {
			issues = append(issues, structuralIssue(fmt.Sprintf("ingredients[%d].concentration.unit", i),
				fmt.Sprintf("unrecognized concentration unit %q", ing.Concentration.Unit)))
		}
	}

	for i, s := range r.Solutions {
		if s.Name == "" {
			issues = append(issues, structuralIssue(fmt.Sprintf("solutions[%d].name", i), "solution name must not be empty"))
		}
	}

	return issues
}
