package sssom_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainmapping "github.com/culturemech/culturemech/internal/domain/mapping"
	"github.com/culturemech/culturemech/internal/sssom"
)

func mustMapping(t *testing.T, subjectID, subjectLabel string, predicate domainmapping.Predicate,
	objectID, objectLabel string, confidence float64, method domainmapping.Method) domainmapping.SSSOMMapping {
	t.Helper()
	if predicate == domainmapping.PredicateUnmapped {
		return domainmapping.NewUnmappedMapping(subjectID, subjectLabel, "culturemech|cascade",
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "no candidate above threshold")
	}
	m, err := domainmapping.NewMapping(subjectID, subjectLabel, predicate, objectID, objectLabel,
		domainmapping.JustificationLexicalMatch, confidence, "culturemech|cascade", method,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	return m
}

func TestMappingSet_SaveThenLoad_RoundTrips(t *testing.T) {
	ms := sssom.New("culturemech:core", "CultureMech core mapping set", "CC0-1.0", "culturemech", time.Now())
	ms.Add(mustMapping(t, "culturemech:yeast-extract", "yeast extract", domainmapping.PredicateExactMatch,
		"FOODON:03315426", "yeast extract", 0.98, domainmapping.MethodCuratedDictionary))
	ms.Add(mustMapping(t, "culturemech:glucose", "glucose", domainmapping.PredicateExactMatch,
		"CHEBI:17234", "glucose", 0.95, domainmapping.MethodOntologyExact))

	path := filepath.Join(t.TempDir(), "mappings.sssom.tsv")
	require.NoError(t, ms.Save(path))

	loaded, err := sssom.Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Rows, 2)
	assert.Equal(t, "culturemech:core", loaded.Header.MappingSetID)
	assert.Equal(t, "http://purl.obolibrary.org/obo/CHEBI_", loaded.Header.CurieMap["CHEBI"])
}

func TestMappingSet_Save_SortsByMappedThenConfidenceThenSubject(t *testing.T) {
	ms := &sssom.MappingSet{}
	ms.Add(mustMapping(t, "culturemech:c", "c", domainmapping.PredicateUnmapped, "", "", 0, ""))
	ms.Add(mustMapping(t, "culturemech:a", "a", domainmapping.PredicateExactMatch,
		"CHEBI:1", "a", 0.80, domainmapping.MethodOntologyFuzzy))
	ms.Add(mustMapping(t, "culturemech:b", "b", domainmapping.PredicateExactMatch,
		"CHEBI:2", "b", 0.95, domainmapping.MethodOntologyExact))

	path := filepath.Join(t.TempDir(), "mappings.sssom.tsv")
	require.NoError(t, ms.Save(path))

	loaded, err := sssom.Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Rows, 3)
	assert.Equal(t, "culturemech:b", loaded.Rows[0].Mapping.SubjectID)
	assert.Equal(t, "culturemech:a", loaded.Rows[1].Mapping.SubjectID)
	assert.Equal(t, "culturemech:c", loaded.Rows[2].Mapping.SubjectID)
}

func TestMappingSet_Load_TolerantOfMissingMappingMethodColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.sssom.tsv")
	legacy := "# mapping_set_id: legacy\n" +
		"subject_id\tsubject_label\tpredicate_id\tobject_id\tobject_label\tmapping_justification\tconfidence\tmapping_tool\tmapping_date\tcomment\n" +
		"culturemech:x\tx\tskos:exactMatch\tCHEBI:99\tx\tsemapv:LexicalMatching\t0.9\tlegacy-tool\t2020-01-01T00:00:00Z\t\n"
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	loaded, err := sssom.Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Rows, 1)
	assert.Equal(t, domainmapping.Method(""), loaded.Rows[0].Mapping.MappingMethod)
	assert.Equal(t, "culturemech:x", loaded.Rows[0].Mapping.SubjectID)
}

func TestMappingSet_Load_PreservesUnknownExtraColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "with-extra.sssom.tsv")
	content := "subject_id\tsubject_label\tpredicate_id\tobject_id\tobject_label\tmapping_justification\tconfidence\tmapping_tool\tmapping_method\tmapping_date\tcomment\tsee_also\n" +
		"culturemech:x\tx\tskos:exactMatch\tCHEBI:99\tx\tsemapv:LexicalMatching\t0.9\ttool\tcurated_dictionary\t2020-01-01T00:00:00Z\t\thttp://example.org/x\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := sssom.Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Rows, 1)
	assert.Equal(t, "http://example.org/x", loaded.Rows[0].Extra["see_also"])

	outPath := filepath.Join(dir, "roundtrip.sssom.tsv")
	require.NoError(t, loaded.Save(outPath))
	reloaded, err := sssom.Load(outPath)
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/x", reloaded.Rows[0].Extra["see_also"])
}
