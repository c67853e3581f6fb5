// Package mapping defines the SSSOM mapping-set row type shared by the
// ontology client, the mapping cascade, and the SSSOM store.
package mapping

import (
	"regexp"
	"strings"
	"time"

	"github.com/culturemech/culturemech/pkg/errors"
)

// Predicate is the SSSOM predicate_id column value.
type Predicate string

const (
	PredicateExactMatch Predicate = "skos:exactMatch"
	PredicateCloseMatch Predicate = "skos:closeMatch"
	PredicateUnmapped   Predicate = "semapv:Unmapped"
)

// Justification is the SSSOM mapping_justification column value.
type Justification string

const (
	JustificationManualCuration Justification = "semapv:ManualMappingCuration"
	JustificationLexicalMatch   Justification = "semapv:LexicalMatching"
	JustificationUnreviewed     Justification = "semapv:Unreviewed"
)

// Method is the SSSOM mapping_method column value, the categorical label
// consumed by per-run statistics.
type Method string

const (
	MethodCuratedDictionary Method = "curated_dictionary"
	MethodOntologyExact     Method = "ontology_exact"
	MethodOntologyFuzzy     Method = "ontology_fuzzy"
	MethodManualCuration    Method = "manual_curation"
)

// SSSOMMapping is one row of an ingredient-to-ontology mapping set, in the
// fixed column order the SSSOM store serializes.
type SSSOMMapping struct {
	SubjectID             string        `json:"subject_id"`
	SubjectLabel          string        `json:"subject_label"`
	PredicateID           Predicate     `json:"predicate_id"`
	ObjectID              string        `json:"object_id"`
	ObjectLabel           string        `json:"object_label"`
	MappingJustification  Justification `json:"mapping_justification"`
	Confidence            float64       `json:"confidence"`
	MappingTool           string        `json:"mapping_tool"`
	MappingMethod         Method        `json:"mapping_method"`
	MappingDate           time.Time     `json:"mapping_date"`
	Comment               string        `json:"comment,omitempty"`
}

var curieLocalSanitizer = regexp.MustCompile(`[^A-Za-z0-9]+`)

// SubjectIDFor builds the culturemech:<Sanitized_Ingredient_Name> subject_id
// CURIE for an ingredient's free-text name.
func SubjectIDFor(ingredientName string) string {
	sanitized := curieLocalSanitizer.ReplaceAllString(ingredientName, "_")
	sanitized = strings.Trim(sanitized, "_")
	return "culturemech:" + sanitized
}

// Validate enforces the one cross-field invariant every SSSOMMapping must
// satisfy: confidence == 0.0 if and only if predicate_id == semapv:Unmapped.
func (m SSSOMMapping) Validate() error {
	isUnmapped := m.PredicateID == PredicateUnmapped
	isZero := m.Confidence == 0.0
	if isUnmapped != isZero {
		return errors.New(errors.CodeInvalidParam,
			"sssom mapping violates confidence/predicate invariant: "+
				"confidence must be 0.0 iff predicate_id is semapv:Unmapped")
	}
	return nil
}

// NewUnmappedMapping constructs the canonical "no match found" row for an
// ingredient that the cascade could not resolve at any stage.
func NewUnmappedMapping(subjectID, subjectLabel, tool string, now time.Time, comment string) SSSOMMapping {
	return SSSOMMapping{
		SubjectID:            subjectID,
		SubjectLabel:         subjectLabel,
		PredicateID:          PredicateUnmapped,
		MappingJustification: JustificationUnreviewed,
		Confidence:           0.0,
		MappingTool:          tool,
		MappingMethod:        MethodOntologyFuzzy,
		MappingDate:          now,
		Comment:              comment,
	}
}

// NewMapping constructs a resolved mapping row and validates the
// confidence/predicate invariant before returning it.
func NewMapping(
	subjectID, subjectLabel string,
	predicate Predicate,
	objectID, objectLabel string,
	justification Justification,
	confidence float64,
	tool string,
	method Method,
	now time.Time,
	comment string,
) (SSSOMMapping, error) {
	m := SSSOMMapping{
		SubjectID:            subjectID,
		SubjectLabel:         subjectLabel,
		PredicateID:          predicate,
		ObjectID:             objectID,
		ObjectLabel:          objectLabel,
		MappingJustification: justification,
		Confidence:           confidence,
		MappingTool:          tool,
		MappingMethod:        method,
		MappingDate:          now,
		Comment:              comment,
	}
	if err := m.Validate(); err != nil {
		return SSSOMMapping{}, err
	}
	return m, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// MappingStats accumulator
// ─────────────────────────────────────────────────────────────────────────────

// MappingStats accumulates per-run mapping-cascade statistics: counts by
// method and predicate, plus a running confidence sum for the mean.
type MappingStats struct {
	Total            int
	ByMethod         map[Method]int
	ByPredicate      map[Predicate]int
	confidenceSum    float64
	UnmappedCount    int
}

// NewMappingStats returns a zero-valued, ready-to-use MappingStats.
func NewMappingStats() *MappingStats {
	return &MappingStats{
		ByMethod:    make(map[Method]int),
		ByPredicate: make(map[Predicate]int),
	}
}

// Record folds one mapping row into the accumulator.
func (s *MappingStats) Record(m SSSOMMapping) {
	s.Total++
	s.ByMethod[m.MappingMethod]++
	s.ByPredicate[m.PredicateID]++
	s.confidenceSum += m.Confidence
	if m.PredicateID == PredicateUnmapped {
		s.UnmappedCount++
	}
}

// MeanConfidence returns the arithmetic mean confidence across every
// recorded mapping, or 0 if none have been recorded.
func (s *MappingStats) MeanConfidence() float64 {
	if s.Total == 0 {
		return 0
	}
	return s.confidenceSum / float64(s.Total)
}

// MappedFraction returns the fraction of recorded mappings that resolved
// to something other than semapv:Unmapped.
func (s *MappingStats) MappedFraction() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Total-s.UnmappedCount) / float64(s.Total)
}
