// Package recipe implements the Recipe aggregate — the core unit of the
// CultureMech pipeline's Layer-3 (normalized_yaml) and Layer-4 (merge_yaml)
// data, covering ingredients, solutions, organisms, and the append-only
// curation history attached to every curated record.
package recipe

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/culturemech/culturemech/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Enumerated string types
// ─────────────────────────────────────────────────────────────────────────────

// ConcentrationUnit is a standard unit for ingredient concentrations.
type ConcentrationUnit string

const (
	UnitGPerL    ConcentrationUnit = "G_PER_L"
	UnitMgPerL   ConcentrationUnit = "MG_PER_L"
	UnitMM       ConcentrationUnit = "MM"
	UnitM        ConcentrationUnit = "M"
	UnitPercent  ConcentrationUnit = "PERCENT"
	UnitVariable ConcentrationUnit = "VARIABLE"
)

// IngredientRole classifies the functional role an ingredient plays in a
// recipe. A single ingredient may carry more than one role.
type IngredientRole string

const (
	RoleCarbonSource   IngredientRole = "CARBON_SOURCE"
	RoleNitrogenSource IngredientRole = "NITROGEN_SOURCE"
	RoleBuffer         IngredientRole = "BUFFER"
	RoleMineral        IngredientRole = "MINERAL"
)

// QualityFlag is one of the idempotent tags the quality tagger attaches to a
// recipe.
type QualityFlag string

const (
	FlagIncompleteComposition QualityFlag = "incomplete_composition"
	FlagPendingCuration       QualityFlag = "pending_curation"
	FlagLowConfidence         QualityFlag = "low_confidence"
)

// MediumType classifies whether a recipe's full composition is known. This
// is distinct from Category/Categories, which classify the target taxon
// (bacterial, fungal, ...); a recipe's medium type and its taxon category
// vary independently.
type MediumType string

const (
	MediumComplex MediumType = "COMPLEX"
	MediumDefined MediumType = "DEFINED"
	MediumUnknown MediumType = "UNKNOWN"
)

// PhysicalState classifies the prepared medium's physical form.
type PhysicalState string

const (
	StateLiquid    PhysicalState = "LIQUID"
	StateSolid     PhysicalState = "SOLID"
	StateSemiSolid PhysicalState = "SEMI_SOLID"
	StateUnknown   PhysicalState = "UNKNOWN"
)

// placeholderPhrases is the curated list of free-text phrases that mark an
// ingredient's name as "composition unknown" rather than a real term. The
// match is case-insensitive substring containment.
var placeholderPhrases = []string{
	"see source",
	"refer to",
	"composition not available",
	"medium no.",
	"unknown",
	"proprietary",
	"not specified",
	"available at",
	"contact source",
}

// IsPlaceholderName reports whether name matches one of the curated
// "composition unknown" phrases.
func IsPlaceholderName(name string) bool {
	lower := strings.ToLower(name)
	for _, phrase := range placeholderPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Term / Concentration value objects
// ─────────────────────────────────────────────────────────────────────────────

// Term is an ontology reference: a CURIE plus its authoritative label.
type Term struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// Concentration is a numeric amount with a standard unit.
type Concentration struct {
	Value float64           `yaml:"value" json:"value"`
	Unit  ConcentrationUnit `yaml:"unit" json:"unit"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Ingredient
// ─────────────────────────────────────────────────────────────────────────────

// Ingredient is one chemical or biological component of a recipe or solution.
type Ingredient struct {
	PreferredTerm string           `yaml:"preferred_term" json:"preferred_term"`
	Term          *Term            `yaml:"term,omitempty" json:"term,omitempty"`
	Concentration *Concentration   `yaml:"concentration,omitempty" json:"concentration,omitempty"`
	Role          []IngredientRole `yaml:"role,omitempty" json:"role,omitempty"`
	Notes         string           `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// Identifier returns the value the fingerprinter and mapping cascade should
// use to refer to this ingredient: the ontology CURIE when present, else the
// empty string (callers fall back to the normalized preferred term).
func (i Ingredient) Identifier() string {
	if i.Term != nil {
		return i.Term.ID
	}
	return ""
}

// IsPlaceholder reports whether this ingredient's name is one of the curated
// "composition unknown" phrases.
func (i Ingredient) IsPlaceholder() bool {
	return IsPlaceholderName(i.PreferredTerm)
}

// ─────────────────────────────────────────────────────────────────────────────
// Solution
// ─────────────────────────────────────────────────────────────────────────────

// Solution is a named sub-recipe used as a component of a parent Recipe; it
// carries the same ingredient-list shape plus a volume and a name.
type Solution struct {
	Name        string       `yaml:"name" json:"name"`
	Volume      string       `yaml:"volume,omitempty" json:"volume,omitempty"`
	Ingredients []Ingredient `yaml:"ingredients" json:"ingredients"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Organism
// ─────────────────────────────────────────────────────────────────────────────

// Organism is a target taxon or community member the recipe is formulated
// to cultivate.
type Organism struct {
	PreferredTerm string  `yaml:"preferred_term" json:"preferred_term"`
	Term          *Term   `yaml:"term,omitempty" json:"term,omitempty"`
	Strain        *string `yaml:"strain,omitempty" json:"strain,omitempty"`
	CommunityRole *string `yaml:"community_role,omitempty" json:"community_role,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// CurationEvent
// ─────────────────────────────────────────────────────────────────────────────

// CurationEvent is one append-only audit record describing a single mutation
// of a Layer-3 recipe. Curation events are never removed or reordered.
type CurationEvent struct {
	EventID      string    `yaml:"event_id" json:"event_id"`
	TimestampUTC time.Time `yaml:"timestamp_utc" json:"timestamp_utc"`
	CuratorID    string    `yaml:"curator_id" json:"curator_id"`
	Action       string    `yaml:"action" json:"action"`
	Notes        string    `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Provenance
// ─────────────────────────────────────────────────────────────────────────────

// Provenance records where a Layer-3 recipe originated.
type Provenance struct {
	SourceDB   string    `yaml:"source_db" json:"source_db"`
	SourceID   string    `yaml:"source_id" json:"source_id"`
	SourceURL  string    `yaml:"source_url,omitempty" json:"source_url,omitempty"`
	FetchDate  time.Time `yaml:"fetch_date" json:"fetch_date"`
	ImportDate time.Time `yaml:"import_date" json:"import_date"`
}

// EvidenceItem is a literature citation attached to a recipe: a reference
// (PMID or DOI) and a text snippet the reference validation pass must find
// verbatim in the cited work's abstract or full text.
type EvidenceItem struct {
	Reference string `yaml:"reference" json:"reference"`
	Snippet   string `yaml:"snippet" json:"snippet"`
}

// Synonym records a non-canonical name absorbed into a Layer-4 canonical
// record by the merger.
type Synonym struct {
	Name             string `yaml:"name" json:"name"`
	Source           string `yaml:"source" json:"source"`
	SourceID         string `yaml:"source_id" json:"source_id"`
	OriginalCategory string `yaml:"original_category,omitempty" json:"original_category,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Recipe aggregate root
// ─────────────────────────────────────────────────────────────────────────────

// Recipe is the aggregate root for a growth-medium formulation. It is the
// unit of storage at every pipeline layer; fields populated depend on the
// layer (e.g. MergeFingerprint and MergedFrom are Layer-4-only).
//
// Consumers must not append to CurationHistory directly; use
// AppendCurationEvent so the append-only invariant is enforced in one place.
type Recipe struct {
	ID              string        `yaml:"id" json:"id"`
	Name            string        `yaml:"name" json:"name"`
	OriginalName    string        `yaml:"original_name" json:"original_name"`
	Category        string        `yaml:"category,omitempty" json:"category,omitempty"`
	Categories      []string      `yaml:"categories,omitempty" json:"categories,omitempty"`
	MediumType      MediumType    `yaml:"medium_type,omitempty" json:"medium_type,omitempty"`
	PhysicalState   PhysicalState `yaml:"physical_state,omitempty" json:"physical_state,omitempty"`
	Ingredients     []Ingredient  `yaml:"ingredients" json:"ingredients"`
	Solutions       []Solution    `yaml:"solutions,omitempty" json:"solutions,omitempty"`
	TargetOrganisms []Organism    `yaml:"target_organisms,omitempty" json:"target_organisms,omitempty"`
	PreparationSteps []string     `yaml:"preparation_steps,omitempty" json:"preparation_steps,omitempty"`
	Evidence        []EvidenceItem `yaml:"evidence,omitempty" json:"evidence,omitempty"`

	PH          *float64 `yaml:"ph,omitempty" json:"ph,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`

	// Notes is free text carried over from the source record; the
	// composition resolver mines it for cross-reference numbers when a
	// structured CrossReferences entry isn't present.
	Notes string `yaml:"notes,omitempty" json:"notes,omitempty"`

	// CrossReferences holds structured pointers to a recipe in another
	// source, keyed by a lowercase identifier such as "dsmz_medium_number".
	CrossReferences map[string]string `yaml:"cross_references,omitempty" json:"cross_references,omitempty"`

	Provenance Provenance `yaml:"provenance" json:"provenance"`

	QualityFlags []QualityFlag `yaml:"quality_flags,omitempty" json:"quality_flags,omitempty"`

	// ── Layer-4-only fields ───────────────────────────────────────────────
	MergeFingerprint string   `yaml:"merge_fingerprint,omitempty" json:"merge_fingerprint,omitempty"`
	MergedFrom       []string `yaml:"merged_from,omitempty" json:"merged_from,omitempty"`
	Synonyms         []Synonym `yaml:"synonyms,omitempty" json:"synonyms,omitempty"`

	CurationHistory []CurationEvent `yaml:"curation_history" json:"curation_history"`
}

// NewRecipe constructs a Recipe with the required identity fields populated
// and a single initial curation event recorded, as the importer contract
// requires. id, name, originalName, and curator must be non-empty.
func NewRecipe(id, name, originalName string, provenance Provenance, curator string) (*Recipe, error) {
	if id == "" {
		return nil, errors.New(errors.CodeInvalidParam, "recipe id must not be empty")
	}
	if name == "" {
		return nil, errors.New(errors.CodeInvalidParam, "recipe name must not be empty")
	}
	if originalName == "" {
		return nil, errors.New(errors.CodeInvalidParam, "recipe original_name must not be empty")
	}
	if curator == "" {
		return nil, errors.New(errors.CodeInvalidParam, "initial curator id must not be empty")
	}

	if provenance.ImportDate.IsZero() {
		provenance.ImportDate = time.Now().UTC()
	}
	r := &Recipe{
		ID:           id,
		Name:         name,
		OriginalName: originalName,
		Ingredients:  make([]Ingredient, 0),
		Provenance:   provenance,
	}
	r.CurationHistory = []CurationEvent{
		{
			EventID:      uuid.New().String(),
			TimestampUTC: time.Now().UTC(),
			CuratorID:    curator,
			Action:       "Imported from source",
			Notes:        "initial import",
		},
	}
	return r, nil
}

// AppendCurationEvent appends exactly one CurationEvent to the recipe's
// history. This is the only method that may mutate CurationHistory; outside
// tests it is called by the curation updater (internal/curation) and by the
// composition resolver, the YAML repairer and the merger.
func (r *Recipe) AppendCurationEvent(curatorID, action, notes string) {
	r.CurationHistory = append(r.CurationHistory, CurationEvent{
		EventID:      uuid.New().String(),
		TimestampUTC: time.Now().UTC(),
		CuratorID:    curatorID,
		Action:       action,
		Notes:        notes,
	})
}

// HasQualityFlag reports whether the recipe already carries the given flag.
func (r *Recipe) HasQualityFlag(flag QualityFlag) bool {
	for _, f := range r.QualityFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// AddQualityFlag idempotently adds flag to QualityFlags, returning true if
// the set changed.
func (r *Recipe) AddQualityFlag(flag QualityFlag) bool {
	if r.HasQualityFlag(flag) {
		return false
	}
	r.QualityFlags = append(r.QualityFlags, flag)
	return true
}

// RemoveQualityFlag idempotently removes flag from QualityFlags, returning
// true if the set changed.
func (r *Recipe) RemoveQualityFlag(flag QualityFlag) bool {
	for i, f := range r.QualityFlags {
		if f == flag {
			r.QualityFlags = append(r.QualityFlags[:i], r.QualityFlags[i+1:]...)
			return true
		}
	}
	return false
}

// AllIngredients returns every ingredient reachable from this recipe:
// direct ingredients plus every solution's ingredients, in declaration
// order. Used by the fingerprinter and the quality tagger.
func (r *Recipe) AllIngredients() []Ingredient {
	all := make([]Ingredient, 0, len(r.Ingredients))
	all = append(all, r.Ingredients...)
	for _, s := range r.Solutions {
		all = append(all, s.Ingredients...)
	}
	return all
}

// HasOntologyTerm reports whether any reachable ingredient carries a
// resolved ontology Term.
func (r *Recipe) HasOntologyTerm() bool {
	for _, ing := range r.AllIngredients() {
		if ing.Term != nil {
			return true
		}
	}
	return false
}

var hydrationSuffixRe = regexp.MustCompile(`(?i)[·x]\s*\d*\s*h2o$`)

// fingerprintIdentifier yields the fingerprinting identifier for a single
// ingredient per §4.10: the ontology CURIE when present, else the
// normalized preferred term with hydration notation stripped. A placeholder
// ingredient yields "", signalling the caller to treat the recipe as
// unmergeable.
func fingerprintIdentifier(ing Ingredient, normalize func(string) string) string {
	if ing.IsPlaceholder() {
		return ""
	}
	if id := ing.Identifier(); id != "" {
		return hydrationSuffixRe.ReplaceAllString(id, "")
	}
	name := ing.PreferredTerm
	if normalize != nil {
		name = normalize(name)
	}
	return hydrationSuffixRe.ReplaceAllString(name, "")
}

// Fingerprint computes the recipe's SHA-256 ingredient-set fingerprint per
// §4.10. normalize is the canonical-form function from the normalizer
// package (passed in to avoid an import cycle); it may be nil, in which
// case ingredient names are used as-is. ok is false when any ingredient is
// a placeholder, making the recipe unmergeable.
func (r *Recipe) Fingerprint(normalize func(string) string) (fingerprint string, ok bool) {
	ingredients := r.AllIngredients()
	if len(ingredients) == 0 {
		return "", false
	}

	ids := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		id := fingerprintIdentifier(ing, normalize)
		if id == "" {
			return "", false
		}
		ids = append(ids, id)
	}

	sort.Strings(ids)
	sum := sha256.Sum256([]byte(strings.Join(ids, "\n")))
	return hex.EncodeToString(sum[:]), true
}

// IsUnmergeable reports whether the recipe cannot be fingerprinted: either
// it has no ingredients at all, or any ingredient resolves to a placeholder.
func (r *Recipe) IsUnmergeable(normalize func(string) string) bool {
	_, ok := r.Fingerprint(normalize)
	return !ok
}

// ─────────────────────────────────────────────────────────────────────────────
// Filename sanitizer (§4.1)
// ─────────────────────────────────────────────────────────────────────────────

var (
	disallowedFilenameChars = regexp.MustCompile(`[^A-Za-z0-9.-]`)
	underscoreRuns          = regexp.MustCompile(`_+`)
)

// SanitizeFilenameComponent replaces every character outside [A-Za-z0-9.-]
// with "_", collapses runs of "_", and strips leading/trailing "_". Two
// names differing only in forbidden characters at the same positions
// sanitize to equal strings.
func SanitizeFilenameComponent(name string) string {
	s := disallowedFilenameChars.ReplaceAllString(name, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// LayerFilename builds the Layer-3/4 filename per §4.1:
// {SOURCE}_{SOURCE_ID}_{SANITIZED_NAME}.yaml.
func LayerFilename(source, sourceID, name string) string {
	return SanitizeFilenameComponent(source) + "_" +
		SanitizeFilenameComponent(sourceID) + "_" +
		SanitizeFilenameComponent(name) + ".yaml"
}
