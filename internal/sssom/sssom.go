// Package sssom (de)serializes SSSOM mapping sets: a TSV body in fixed
// column order, preceded by a YAML-formatted comment header carrying the
// mapping set's metadata. Saves are atomic; loads tolerate the one known
// legacy shape (a missing mapping_method column).
package sssom

import (
	"strings"
	"time"

	mapping "github.com/culturemech/culturemech/internal/domain/mapping"
)

// fixedColumns is the SSSOM column order every save writes and every load
// expects, in this exact sequence.
var fixedColumns = []string{
	"subject_id", "subject_label", "predicate_id", "object_id", "object_label",
	"mapping_justification", "confidence", "mapping_tool", "mapping_method",
	"mapping_date", "comment",
}

// Header carries the mapping set's YAML-formatted metadata comment block.
type Header struct {
	CurieMap        map[string]string `yaml:"curie_map"`
	MappingSetID    string            `yaml:"mapping_set_id"`
	MappingSetTitle string            `yaml:"mapping_set_title"`
	License         string            `yaml:"license"`
	MappingProvider string            `yaml:"mapping_provider"`
	MappingDate     string            `yaml:"mapping_date"`
}

// Row is one mapping plus any columns this store doesn't know about,
// preserved verbatim so a load-then-save round trip never silently drops
// data a newer producer wrote.
type Row struct {
	Mapping mapping.SSSOMMapping
	Extra   map[string]string
}

// MappingSet is a full SSSOM document: header metadata plus rows.
type MappingSet struct {
	Header Header
	// ExtraColumns lists unknown column names in the order they appeared in
	// the source file, appended after the fixed columns on save.
	ExtraColumns []string
	Rows         []Row
}

// New returns an empty MappingSet with sensible header defaults.
func New(mappingSetID, mappingSetTitle, license, provider string, now time.Time) *MappingSet {
	return &MappingSet{
		Header: Header{
			CurieMap: map[string]string{
				"CHEBI":       "http://purl.obolibrary.org/obo/CHEBI_",
				"FOODON":      "http://purl.obolibrary.org/obo/FOODON_",
				"NCBITaxon":   "http://purl.obolibrary.org/obo/NCBITaxon_",
				"culturemech": "https://culturemech.org/ingredient/",
				"skos":        "http://www.w3.org/2004/02/skos/core#",
				"semapv":      "https://w3id.org/semapv/vocab/",
			},
			MappingSetID:    mappingSetID,
			MappingSetTitle: mappingSetTitle,
			License:         license,
			MappingProvider: provider,
			MappingDate:     now.Format(time.RFC3339),
		},
	}
}

func rowValue(m mapping.SSSOMMapping, column string) string {
	switch column {
	case "subject_id":
		return m.SubjectID
	case "subject_label":
		return m.SubjectLabel
	case "predicate_id":
		return string(m.PredicateID)
	case "object_id":
		return m.ObjectID
	case "object_label":
		return m.ObjectLabel
	case "mapping_justification":
		return string(m.MappingJustification)
	case "mapping_tool":
		return m.MappingTool
	case "mapping_method":
		return string(m.MappingMethod)
	case "mapping_date":
		return m.MappingDate.Format(time.RFC3339)
	case "comment":
		return m.Comment
	default:
		return ""
	}
}

// Add appends a mapping row with no extra columns.
func (ms *MappingSet) Add(m mapping.SSSOMMapping) {
	ms.Rows = append(ms.Rows, Row{Mapping: m})
}

func ontologyPrefix(objectID string) string {
	prefix, _, ok := strings.Cut(objectID, ":")
	if !ok {
		return ""
	}
	return prefix
}
