package mapping_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturemech/culturemech/internal/domain/mapping"
)

func TestSubjectIDFor(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Yeast extract", "culturemech:Yeast_extract"},
		{"punctuation", "MgSO4·7H2O", "culturemech:MgSO4_7H2O"},
		{"already_clean", "NaCl", "culturemech:NaCl"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mapping.SubjectIDFor(tc.in))
		})
	}
}

func TestNewMapping_ValidResolvedMapping(t *testing.T) {
	m, err := mapping.NewMapping(
		"culturemech:Yeast_extract", "Yeast extract",
		mapping.PredicateExactMatch,
		"FOODON:03315426", "yeast extract",
		mapping.JustificationLexicalMatch,
		0.98,
		"BioProductDict",
		mapping.MethodCuratedDictionary,
		time.Now().UTC(),
		"",
	)
	require.NoError(t, err)
	assert.Equal(t, mapping.PredicateExactMatch, m.PredicateID)
	assert.Equal(t, 0.98, m.Confidence)
}

func TestNewMapping_RejectsZeroConfidenceWithMappedPredicate(t *testing.T) {
	_, err := mapping.NewMapping(
		"culturemech:X", "X",
		mapping.PredicateExactMatch,
		"CHEBI:1", "x",
		mapping.JustificationLexicalMatch,
		0.0,
		"tool",
		mapping.MethodOntologyExact,
		time.Now().UTC(),
		"",
	)
	require.Error(t, err)
}

func TestNewMapping_RejectsNonZeroConfidenceWithUnmappedPredicate(t *testing.T) {
	_, err := mapping.NewMapping(
		"culturemech:X", "X",
		mapping.PredicateUnmapped,
		"", "",
		mapping.JustificationUnreviewed,
		0.5,
		"tool",
		mapping.MethodOntologyFuzzy,
		time.Now().UTC(),
		"",
	)
	require.Error(t, err)
}

func TestNewUnmappedMapping_SatisfiesInvariant(t *testing.T) {
	m := mapping.NewUnmappedMapping("culturemech:X", "X", "OLS|fuzzy", time.Now().UTC(), "no candidate above threshold")
	require.NoError(t, m.Validate())
	assert.Equal(t, 0.0, m.Confidence)
	assert.Equal(t, mapping.PredicateUnmapped, m.PredicateID)
}

func TestValidate_TableDriven(t *testing.T) {
	cases := []struct {
		name       string
		predicate  mapping.Predicate
		confidence float64
		wantErr    bool
	}{
		{"unmapped_zero_ok", mapping.PredicateUnmapped, 0.0, false},
		{"unmapped_nonzero_bad", mapping.PredicateUnmapped, 0.1, true},
		{"exact_nonzero_ok", mapping.PredicateExactMatch, 0.95, false},
		{"exact_zero_bad", mapping.PredicateExactMatch, 0.0, true},
		{"close_nonzero_ok", mapping.PredicateCloseMatch, 0.8, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := mapping.SSSOMMapping{PredicateID: tc.predicate, Confidence: tc.confidence}
			err := m.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMappingStats_RecordAccumulates(t *testing.T) {
	stats := mapping.NewMappingStats()

	m1, _ := mapping.NewMapping("culturemech:A", "A", mapping.PredicateExactMatch, "CHEBI:1", "a",
		mapping.JustificationLexicalMatch, 0.95, "EBI_OLS|exact", mapping.MethodOntologyExact, time.Now().UTC(), "")
	m2 := mapping.NewUnmappedMapping("culturemech:B", "B", "OLS|fuzzy", time.Now().UTC(), "")

	stats.Record(m1)
	stats.Record(m2)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.UnmappedCount)
	assert.Equal(t, 1, stats.ByMethod[mapping.MethodOntologyExact])
	assert.Equal(t, 1, stats.ByPredicate[mapping.PredicateUnmapped])
	assert.InDelta(t, 0.475, stats.MeanConfidence(), 0.001)
	assert.InDelta(t, 0.5, stats.MappedFraction(), 0.001)
}

func TestMappingStats_EmptyIsZeroValued(t *testing.T) {
	stats := mapping.NewMappingStats()
	assert.Equal(t, 0.0, stats.MeanConfidence())
	assert.Equal(t, 0.0, stats.MappedFraction())
}
