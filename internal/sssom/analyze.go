package sssom

import (
	"fmt"
	"sort"

	mapping "github.com/culturemech/culturemech/internal/domain/mapping"
)

// ExtractUnmapped returns a new mapping set containing only rows whose
// predicate is semapv:Unmapped, each annotated with how often the
// ingredient it names actually occurs across the recipe corpus. frequencies
// is keyed by subject label (the free-text ingredient name as it was
// normalized before mapping was attempted).
func ExtractUnmapped(ms *MappingSet, frequencies map[string]int) *MappingSet {
	out := &MappingSet{
		Header:       ms.Header,
		ExtraColumns: ms.ExtraColumns,
	}
	for _, row := range ms.Rows {
		if row.Mapping.PredicateID != mapping.PredicateUnmapped {
			continue
		}
		m := row.Mapping
		count := frequencies[m.SubjectLabel]
		m.Comment = fmt.Sprintf("Unmapped ingredient (occurs %d time(s))", count)
		out.Rows = append(out.Rows, Row{Mapping: m, Extra: row.Extra})
	}
	sort.SliceStable(out.Rows, func(i, j int) bool {
		return frequencies[out.Rows[i].Mapping.SubjectLabel] > frequencies[out.Rows[j].Mapping.SubjectLabel]
	})
	return out
}

// ConfidenceBucket labels are fixed 0.1-wide bands from 0.0 up to 1.0.
var confidenceBucketLabels = []string{
	"0.0-0.1", "0.1-0.2", "0.2-0.3", "0.3-0.4", "0.4-0.5",
	"0.5-0.6", "0.6-0.7", "0.7-0.8", "0.8-0.9", "0.9-1.0",
}

func confidenceBucket(confidence float64) string {
	idx := int(confidence * 10)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(confidenceBucketLabels) {
		idx = len(confidenceBucketLabels) - 1
	}
	return confidenceBucketLabels[idx]
}

// Analysis summarizes a mapping set's composition for reporting.
type Analysis struct {
	TotalRows           int
	ByMethod            map[mapping.Method]int
	ByPredicate         map[mapping.Predicate]int
	ConfidenceHistogram map[string]int
	ByOntologyPrefix    map[string]int
	UnmappedCount       int
	MeanConfidence      float64
}

// Analyze computes a breakdown of the mapping set by method, confidence
// band, and the ontology prefix of each object_id.
func Analyze(ms *MappingSet) Analysis {
	a := Analysis{
		ByMethod:            make(map[mapping.Method]int),
		ByPredicate:         make(map[mapping.Predicate]int),
		ConfidenceHistogram: make(map[string]int),
		ByOntologyPrefix:    make(map[string]int),
	}
	var confidenceSum float64
	for _, row := range ms.Rows {
		m := row.Mapping
		a.TotalRows++
		a.ByMethod[m.MappingMethod]++
		a.ByPredicate[m.PredicateID]++
		a.ConfidenceHistogram[confidenceBucket(m.Confidence)]++
		confidenceSum += m.Confidence
		if m.PredicateID == mapping.PredicateUnmapped {
			a.UnmappedCount++
			continue
		}
		if prefix := ontologyPrefix(m.ObjectID); prefix != "" {
			a.ByOntologyPrefix[prefix]++
		}
	}
	if a.TotalRows > 0 {
		a.MeanConfidence = confidenceSum / float64(a.TotalRows)
	}
	return a
}
