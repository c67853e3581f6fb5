package validation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturemech/culturemech/internal/domain/recipe"
	"github.com/culturemech/culturemech/internal/validation"
)

func TestValidate_AggregatesStatsAcrossFiles(t *testing.T) {
	good := validRecipe(t)
	bad := &recipe.Recipe{}

	files := map[string]*recipe.Recipe{
		"good.yaml": good,
		"bad.yaml":  bad,
	}

	reports, stats, err := validation.Validate(context.Background(), files, nil, nil, validation.Config{})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.True(t, reports["good.yaml"].Passed)
	assert.False(t, reports["bad.yaml"].Passed)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 1, stats.Passed)
	assert.Equal(t, 1, stats.StructuralFailures)
}

func TestValidate_SkipsTermsAndReferencesPassesWhenUnconfigured(t *testing.T) {
	r := validRecipe(t)
	r.Ingredients[0].Term = &recipe.Term{ID: "CHEBI:does-not-matter", Label: "whatever"}
	r.Evidence = []recipe.EvidenceItem{{Reference: "PMID:1", Snippet: "anything"}}

	reports, stats, err := validation.Validate(context.Background(), map[string]*recipe.Recipe{"r.yaml": r}, nil, nil, validation.Config{})
	require.NoError(t, err)
	assert.True(t, reports["r.yaml"].Passed)
	assert.Equal(t, 1, stats.Passed)
}

func TestValidate_EmptyCorpus_ReturnsZeroStats(t *testing.T) {
	reports, stats, err := validation.Validate(context.Background(), map[string]*recipe.Recipe{}, nil, nil, validation.Config{})
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.Equal(t, 0, stats.TotalFiles)
}
