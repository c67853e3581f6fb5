package sssom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainmapping "github.com/culturemech/culturemech/internal/domain/mapping"
	"github.com/culturemech/culturemech/internal/sssom"
)

func buildMixedSet(t *testing.T) *sssom.MappingSet {
	ms := &sssom.MappingSet{}
	ms.Add(mustMapping(t, "culturemech:yeast-extract", "yeast extract", domainmapping.PredicateExactMatch,
		"FOODON:03315426", "yeast extract", 0.98, domainmapping.MethodCuratedDictionary))
	ms.Add(mustMapping(t, "culturemech:glucose", "glucose", domainmapping.PredicateExactMatch,
		"CHEBI:17234", "glucose", 0.95, domainmapping.MethodOntologyExact))
	ms.Add(mustMapping(t, "culturemech:novel", "some novel compound", domainmapping.PredicateUnmapped, "", "", 0, ""))
	return ms
}

func TestAnalyze_BreaksDownByMethodAndOntologyPrefix(t *testing.T) {
	ms := buildMixedSet(t)
	a := sssom.Analyze(ms)

	assert.Equal(t, 3, a.TotalRows)
	assert.Equal(t, 1, a.ByMethod[domainmapping.MethodCuratedDictionary])
	assert.Equal(t, 1, a.ByMethod[domainmapping.MethodOntologyExact])
	assert.Equal(t, 1, a.UnmappedCount)
	assert.Equal(t, 1, a.ByOntologyPrefix["CHEBI"])
	assert.Equal(t, 1, a.ByOntologyPrefix["FOODON"])
	assert.Equal(t, 2, a.ConfidenceHistogram["0.9-1.0"])
}

func TestExtractUnmapped_OnlyReturnsUnmappedRowsAnnotatedWithFrequency(t *testing.T) {
	ms := buildMixedSet(t)
	frequencies := map[string]int{"some novel compound": 12}

	unmapped := sssom.ExtractUnmapped(ms, frequencies)
	assert := assert.New(t)
	assert.Len(unmapped.Rows, 1)
	assert.Equal("some novel compound", unmapped.Rows[0].Mapping.SubjectLabel)
	assert.Contains(unmapped.Rows[0].Mapping.Comment, "12")
}

func TestConfidenceBucket_ClampsAtUpperBound(t *testing.T) {
	ms := &sssom.MappingSet{}
	ms.Add(mustMapping(t, "culturemech:perfect", "perfect", domainmapping.PredicateExactMatch,
		"CHEBI:1", "perfect", 1.0, domainmapping.MethodManualCuration))
	a := sssom.Analyze(ms)
	assert.Equal(t, 1, a.ConfidenceHistogram["0.9-1.0"])
}
