package validation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturemech/culturemech/internal/domain/recipe"
	"github.com/culturemech/culturemech/internal/ontology"
	"github.com/culturemech/culturemech/internal/validation"
)

type fakeOntologyService struct {
	verify map[string]*ontology.VerifyResult
	errs   map[string]error
}

func (f *fakeOntologyService) Exact(ctx context.Context, name, ont string) (*ontology.Term, error) {
	return nil, ontology.NewLookupError(ontology.FailureNotFound, "unused in tests")
}
func (f *fakeOntologyService) Synonym(ctx context.Context, name, ont string) (*ontology.Term, error) {
	return nil, ontology.NewLookupError(ontology.FailureNotFound, "unused in tests")
}
func (f *fakeOntologyService) Fuzzy(ctx context.Context, name, ont string, limit int) ([]ontology.FuzzyCandidate, error) {
	return nil, nil
}
func (f *fakeOntologyService) Verify(ctx context.Context, curie string) (*ontology.VerifyResult, error) {
	if err, ok := f.errs[curie]; ok {
		return nil, err
	}
	if r, ok := f.verify[curie]; ok {
		return r, nil
	}
	return nil, ontology.NewLookupError(ontology.FailureNotFound, curie)
}

func recipeWithTerm(t *testing.T, id, label string) *recipe.Recipe {
	t.Helper()
	r := validRecipe(t)
	r.Ingredients[0].Term = &recipe.Term{ID: id, Label: label}
	return r
}

func TestValidateTerms_ResolvingTermWithMatchingLabel_NoIssues(t *testing.T) {
	r := recipeWithTerm(t, "CHEBI:17234", "glucose")
	svc := &fakeOntologyService{verify: map[string]*ontology.VerifyResult{
		"CHEBI:17234": {Valid: true, Label: "glucose"},
	}}
	assert.Empty(t, validation.ValidateTerms(context.Background(), r, svc))
}

func TestValidateTerms_LabelMismatchIgnoresCase_NoIssues(t *testing.T) {
	r := recipeWithTerm(t, "CHEBI:17234", "Glucose")
	svc := &fakeOntologyService{verify: map[string]*ontology.VerifyResult{
		"CHEBI:17234": {Valid: true, Label: "glucose"},
	}}
	assert.Empty(t, validation.ValidateTerms(context.Background(), r, svc))
}

func TestValidateTerms_LabelDrifted_ReportsLabelMismatch(t *testing.T) {
	r := recipeWithTerm(t, "CHEBI:17234", "glucose monohydrate")
	svc := &fakeOntologyService{verify: map[string]*ontology.VerifyResult{
		"CHEBI:17234": {Valid: true, Label: "glucose"},
	}}
	issues := validation.ValidateTerms(context.Background(), r, svc)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Field, ".label")
}

func TestValidateTerms_UnresolvableTerm_ReportsIDNotFound(t *testing.T) {
	r := recipeWithTerm(t, "CHEBI:99999999", "fake term")
	svc := &fakeOntologyService{errs: map[string]error{
		"CHEBI:99999999": ontology.NewLookupError(ontology.FailureNotFound, "no such term"),
	}}
	issues := validation.ValidateTerms(context.Background(), r, svc)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Field, ".id")
}

func TestValidateTerms_NoTermPresent_NoIssues(t *testing.T) {
	r := validRecipe(t)
	svc := &fakeOntologyService{}
	assert.Empty(t, validation.ValidateTerms(context.Background(), r, svc))
}
