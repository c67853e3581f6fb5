// Package repair implements the progressive YAML healing pass applied to a
// single Layer-3 file: a handful of textual repair stages attempted in
// order until the document parses, followed by schema defaulting and
// placeholder insertion once it does. Every successful repair records one
// curation event; a file that still fails to parse after the textual
// stages is reported unfixable rather than silently dropped.
package repair

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/culturemech/culturemech/internal/domain/recipe"
	"github.com/culturemech/culturemech/pkg/errors"
)

// Stage names, recorded in Result.StagesApplied and folded into the single
// curation event a successful repair produces.
const (
	StageEscapeSequenceFix = "escape_sequence_fix"
	StageQuoteBalancing    = "quote_balancing"
	StageStructuralRepair  = "structural_repair"
	StageSchemaDefaulting  = "schema_defaulting"
	StagePlaceholderInsert = "placeholder_insertion"
)

const placeholderTerm = "See source for composition"

// Result is the outcome of one Repair call.
type Result struct {
	Recipe        *recipe.Recipe
	Bytes         []byte
	StagesApplied []string
	Unfixable     bool
	Reason        string
}

// Repair attempts to heal raw into a parseable, schema-conformant Layer-3
// recipe. curatorID is attributed to the single curation event a
// successful repair appends; it is ignored when nothing needed repairing.
func Repair(raw []byte, curatorID string) (*Result, error) {
	content := raw
	var stages []string

	m, err := parseMap(content)
	if err != nil {
		content = fixEscapeSequences(content)
		stages = append(stages, StageEscapeSequenceFix)
		m, err = parseMap(content)
	}
	if err != nil {
		content = balanceQuotes(content)
		stages = append(stages, StageQuoteBalancing)
		m, err = parseMap(content)
	}
	if err != nil {
		content = repairIndentation(content)
		stages = append(stages, StageStructuralRepair)
		m, err = parseMap(content)
	}
	if err != nil {
		return &Result{Unfixable: true, Reason: "unfixable_yaml", StagesApplied: stages}, nil
	}

	if applySchemaDefaults(m) {
		stages = append(stages, StageSchemaDefaulting)
	}
	if insertPlaceholderIfNeeded(m) {
		stages = append(stages, StagePlaceholderInsert)
	}

	repaired, err := yaml.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "marshal repaired recipe map")
	}

	var rec recipe.Recipe
	if err := yaml.Unmarshal(repaired, &rec); err != nil {
		return &Result{Unfixable: true, Reason: "unfixable_yaml", StagesApplied: stages}, nil
	}

	if len(stages) > 0 {
		rec.AppendCurationEvent(curatorID, "Auto-repaired YAML",
			fmt.Sprintf("stages applied: %s", strings.Join(stages, ", ")))
	}

	final, err := yaml.Marshal(&rec)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "marshal repaired recipe")
	}

	return &Result{Recipe: &rec, Bytes: final, StagesApplied: stages}, nil
}

func parseMap(b []byte) (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = make(map[string]interface{})
	}
	return m, nil
}

func ensureDefault(m map[string]interface{}, key string, def interface{}) bool {
	if v, ok := m[key]; ok && v != nil {
		return false
	}
	m[key] = def
	return true
}

func coerceNumericField(m map[string]interface{}, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return false
	}
	m[key] = f
	return true
}

// mediumTypeAliases maps common lowercase/mixed-case spellings onto the
// closed medium_type enum. Anything not recognized falls back to UNKNOWN
// rather than being passed through, since the enum is closed.
var mediumTypeAliases = map[string]string{
	"complex":   string(recipe.MediumComplex),
	"defined":   string(recipe.MediumDefined),
	"synthetic": string(recipe.MediumDefined),
	"minimal":   string(recipe.MediumDefined),
	"selective": string(recipe.MediumComplex),
	"enriched":  string(recipe.MediumComplex),
	"unknown":   string(recipe.MediumUnknown),
}

func normalizeMediumTypeField(m map[string]interface{}) bool {
	if !ensureDefault(m, "medium_type", string(recipe.MediumUnknown)) {
		v, ok := m["medium_type"].(string)
		if !ok {
			return false
		}
		canonical, known := mediumTypeAliases[strings.ToLower(strings.TrimSpace(v))]
		if !known {
			canonical = string(recipe.MediumUnknown)
		}
		if canonical == v {
			return false
		}
		m["medium_type"] = canonical
		return true
	}
	return true
}

// applySchemaDefaults fills missing required fields with domain-appropriate
// defaults, coerces string-typed numeric fields, and normalizes the
// medium_type enum. Returns whether anything changed.
func applySchemaDefaults(m map[string]interface{}) bool {
	changed := false
	if ensureDefault(m, "name", "") {
		changed = true
	}
	if ensureDefault(m, "original_name", "") {
		changed = true
	}
	if ensureDefault(m, "ingredients", []interface{}{}) {
		changed = true
	}
	if ensureDefault(m, "curation_history", []interface{}{}) {
		changed = true
	}
	if coerceNumericField(m, "ph") {
		changed = true
	}
	if coerceNumericField(m, "temperature") {
		changed = true
	}
	if normalizeMediumTypeField(m) {
		changed = true
	}
	return changed
}

// insertPlaceholderIfNeeded adds a single placeholder ingredient when a
// recipe's composition is entirely absent, so downstream stages always
// have at least one ingredient to reason about.
func insertPlaceholderIfNeeded(m map[string]interface{}) bool {
	ingredients, _ := m["ingredients"].([]interface{})
	solutions, hasSolutions := m["solutions"].([]interface{})
	if len(ingredients) > 0 || (hasSolutions && len(solutions) > 0) {
		return false
	}
	m["ingredients"] = []interface{}{
		map[string]interface{}{
			"preferred_term": placeholderTerm,
			"concentration": map[string]interface{}{
				"value": 0.0,
				"unit":  string(recipe.UnitVariable),
			},
		},
	}
	return true
}
