// Package mapping runs the ordered stage cascade that turns a free-text
// ingredient name into one SSSOMMapping: curated dictionary, then OLS exact,
// then OAK synonym, then multi-ontology search, then OLS fuzzy, then
// unmapped. First success wins.
package mapping

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	domainmapping "github.com/culturemech/culturemech/internal/domain/mapping"
	"github.com/culturemech/culturemech/internal/dictionaries"
	"github.com/culturemech/culturemech/internal/normalizer"
	"github.com/culturemech/culturemech/internal/ontology"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
	"github.com/culturemech/culturemech/pkg/errors"
)

const (
	batchConcurrency = 10

	confidenceCurated   = 0.98
	confidenceOntExact  = 0.95
	confidenceOAKSyn    = 0.92
	confidenceMultiLow  = 0.80
	confidenceMultiHigh = 0.85
	confidenceFuzzyBase = 0.50
	confidenceFuzzyCap  = 0.89
)

// ResultCache is the pre-ontology short-circuit cache the cascade checks
// before ever reaching a Service — mirrors the resolver's ResolverCache
// convention from the chemical-entity resolution code this package
// generalizes.
type ResultCache interface {
	Get(key string) (domainmapping.SSSOMMapping, bool)
	Set(key string, m domainmapping.SSSOMMapping)
}

// InMemoryResultCache is a process-local ResultCache, directly usable in
// tests and as the default when no shared cache is configured.
type InMemoryResultCache struct {
	mu   sync.RWMutex
	data map[string]domainmapping.SSSOMMapping
}

// NewInMemoryResultCache returns an empty InMemoryResultCache.
func NewInMemoryResultCache() *InMemoryResultCache {
	return &InMemoryResultCache{data: make(map[string]domainmapping.SSSOMMapping)}
}

func (c *InMemoryResultCache) Get(key string) (domainmapping.SSSOMMapping, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.data[key]
	return m, ok
}

func (c *InMemoryResultCache) Set(key string, m domainmapping.SSSOMMapping) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = m
}

// Cascade runs the ordered mapping stages over ingredient names.
type Cascade struct {
	clients        *ontology.Clients
	cache          ResultCache
	fuzzyThreshold float64
	preferredOnts  []string
	log            logging.Logger
	clock          func() time.Time
}

// Option configures a Cascade at construction time.
type Option func(*Cascade)

// WithCache overrides the default in-memory ResultCache.
func WithCache(cache ResultCache) Option {
	return func(c *Cascade) { c.cache = cache }
}

// WithPreferredOntologies sets the multi-ontology stage's search order.
// Defaults to {CHEBI, FOODON} per the cascade's stage-3 contract.
func WithPreferredOntologies(ontologies []string) Option {
	return func(c *Cascade) {
		if len(ontologies) > 0 {
			c.preferredOnts = ontologies
		}
	}
}

// WithClock overrides time.Now, for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Cascade) { c.clock = clock }
}

// NewCascade constructs a Cascade. fuzzyThreshold is the minimum confidence
// a stage-4 OLS fuzzy hit must clear to be retained (default 0.5 from
// config.OntologyConfig.FuzzyThreshold).
func NewCascade(clients *ontology.Clients, fuzzyThreshold float64, log logging.Logger, opts ...Option) *Cascade {
	if fuzzyThreshold <= 0 {
		fuzzyThreshold = 0.5
	}
	c := &Cascade{
		clients:        clients,
		cache:          NewInMemoryResultCache(),
		fuzzyThreshold: fuzzyThreshold,
		preferredOnts:  []string{"CHEBI", "FOODON"},
		log:            log,
		clock:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Map runs the cascade for a single ingredient name and returns one
// SSSOMMapping. originalName is used for the curated-dictionary lookup
// (stage 0, which is sensitive to unnormalized source text); all later
// stages search over normalizer.GenerateVariants(originalName).
func (c *Cascade) Map(ctx context.Context, originalName string) domainmapping.SSSOMMapping {
	subjectID := domainmapping.SubjectIDFor(originalName)

	if cached, ok := c.cache.Get(subjectID); ok {
		return cached
	}

	m := c.run(ctx, subjectID, originalName)
	c.cache.Set(subjectID, m)
	return m
}

func (c *Cascade) run(ctx context.Context, subjectID, originalName string) domainmapping.SSSOMMapping {
	now := c.clock().UTC()

	if m, ok := c.stageCuratedDictionary(subjectID, originalName, now); ok {
		return m
	}

	variants := normalizer.GenerateVariants(originalName)

	if m, ok := c.stageOLSExact(ctx, subjectID, originalName, variants, now); ok {
		return m
	}
	if m, ok := c.stageOAKSynonym(ctx, subjectID, originalName, variants, now); ok {
		return m
	}
	if m, ok := c.stageMultiOntology(ctx, subjectID, originalName, variants, now); ok {
		return m
	}
	if m, ok := c.stageOLSFuzzy(ctx, subjectID, originalName, now); ok {
		return m
	}

	return domainmapping.NewUnmappedMapping(subjectID, originalName, "culturemech|cascade", now,
		"no candidate above threshold in any stage")
}

func (c *Cascade) stageCuratedDictionary(subjectID, originalName string, now time.Time) (domainmapping.SSSOMMapping, bool) {
	id, ok := dictionaries.LookupBiologicalProduct(originalName)
	if !ok {
		return domainmapping.SSSOMMapping{}, false
	}
	m, err := domainmapping.NewMapping(subjectID, originalName,
		domainmapping.PredicateExactMatch, id, originalName,
		domainmapping.JustificationLexicalMatch, confidenceCurated,
		"BiologicalProductDict", domainmapping.MethodCuratedDictionary, now, "")
	if err != nil {
		c.log.Warn("curated dictionary stage produced invalid mapping",
			logging.Stage("curated_dictionary"), logging.Code(errors.GetCode(err)), logging.Err(err))
		return domainmapping.SSSOMMapping{}, false
	}
	return m, true
}

func (c *Cascade) stageOLSExact(ctx context.Context, subjectID, originalName string, variants []string, now time.Time) (domainmapping.SSSOMMapping, bool) {
	if c.clients == nil || c.clients.OLS == nil {
		return domainmapping.SSSOMMapping{}, false
	}
	for _, v := range variants {
		term, err := c.clients.OLS.Exact(ctx, v, "")
		if err != nil {
			continue
		}
		m, buildErr := domainmapping.NewMapping(subjectID, originalName,
			domainmapping.PredicateExactMatch, term.ID, term.Label,
			domainmapping.JustificationLexicalMatch, confidenceOntExact,
			"EBI_OLS|exact", domainmapping.MethodOntologyExact, now, "")
		if buildErr != nil {
			continue
		}
		return m, true
	}
	return domainmapping.SSSOMMapping{}, false
}

func (c *Cascade) stageOAKSynonym(ctx context.Context, subjectID, originalName string, variants []string, now time.Time) (domainmapping.SSSOMMapping, bool) {
	if c.clients == nil || c.clients.OAK == nil {
		return domainmapping.SSSOMMapping{}, false
	}
	for _, v := range variants {
		term, err := c.clients.OAK.Synonym(ctx, v, "")
		if err != nil {
			continue
		}
		m, buildErr := domainmapping.NewMapping(subjectID, originalName,
			domainmapping.PredicateExactMatch, term.ID, term.Label,
			domainmapping.JustificationLexicalMatch, confidenceOAKSyn,
			"OAK|synonym", domainmapping.MethodOntologyExact, now, "")
		if buildErr != nil {
			continue
		}
		return m, true
	}
	return domainmapping.SSSOMMapping{}, false
}

// stageMultiOntology searches CHEBI and FOODON (or whichever set
// WithPreferredOntologies configured) in order; FOODON is searched with a
// lowercased variant, matching its case-sensitive indexing convention.
func (c *Cascade) stageMultiOntology(ctx context.Context, subjectID, originalName string, variants []string, now time.Time) (domainmapping.SSSOMMapping, bool) {
	if c.clients == nil || c.clients.OLS == nil || len(variants) == 0 {
		return domainmapping.SSSOMMapping{}, false
	}
	canonical := variants[0]
	for i, ont := range c.preferredOnts {
		name := canonical
		if strings.EqualFold(ont, "FOODON") {
			name = strings.ToLower(canonical)
		}
		term, err := c.clients.OLS.Exact(ctx, name, ont)
		if err != nil {
			continue
		}
		confidence := confidenceMultiLow
		if i == 0 {
			confidence = confidenceMultiHigh
		}
		m, buildErr := domainmapping.NewMapping(subjectID, originalName,
			domainmapping.PredicateCloseMatch, term.ID, term.Label,
			domainmapping.JustificationLexicalMatch, confidence,
			"EBI_OLS|"+ont, domainmapping.MethodOntologyFuzzy, now, "")
		if buildErr != nil {
			continue
		}
		return m, true
	}
	return domainmapping.SSSOMMapping{}, false
}

func (c *Cascade) stageOLSFuzzy(ctx context.Context, subjectID, originalName string, now time.Time) (domainmapping.SSSOMMapping, bool) {
	if c.clients == nil || c.clients.OLS == nil {
		return domainmapping.SSSOMMapping{}, false
	}
	candidates, err := c.clients.OLS.Fuzzy(ctx, originalName, "", 1)
	if err != nil || len(candidates) == 0 {
		return domainmapping.SSSOMMapping{}, false
	}
	top := candidates[0]
	confidence := confidenceFuzzyBase + 0.4*(top.Score/100.0)
	if confidence > confidenceFuzzyCap {
		confidence = confidenceFuzzyCap
	}
	if confidence < c.fuzzyThreshold {
		return domainmapping.SSSOMMapping{}, false
	}
	m, buildErr := domainmapping.NewMapping(subjectID, originalName,
		domainmapping.PredicateCloseMatch, top.Term.ID, top.Term.Label,
		domainmapping.JustificationLexicalMatch, confidence,
		"EBI_OLS|fuzzy", domainmapping.MethodOntologyFuzzy, now, "")
	if buildErr != nil {
		return domainmapping.SSSOMMapping{}, false
	}
	return m, true
}

// ReverifyManual re-checks a pre-existing manual_curation mapping against
// the ontology client: a live term boosts confidence to 1.0, a not-found
// result drops it to 0.1 with a comment, and an invalid id drops it to 0.1
// with a comment naming the validation failure.
func (c *Cascade) ReverifyManual(ctx context.Context, m domainmapping.SSSOMMapping) domainmapping.SSSOMMapping {
	if m.MappingMethod != domainmapping.MethodManualCuration || c.clients == nil || c.clients.OLS == nil {
		return m
	}
	result, err := c.clients.OLS.Verify(ctx, m.ObjectID)
	switch {
	case err == nil && result.Valid:
		m.Confidence = 1.0
		m.ObjectLabel = result.Label
	case ontology.IsFailure(err, ontology.FailureInvalidID):
		m.Confidence = 0.1
		m.Comment = "invalid object_id on re-verification: " + m.ObjectID
	case ontology.IsFailure(err, ontology.FailureNotFound):
		m.Confidence = 0.1
		m.Comment = "object_id not found on re-verification"
	case err == nil && result.Deprecated:
		m.Confidence = 0.1
		m.Comment = "object_id deprecated on re-verification"
	}
	return m
}

// IngredientOccurrence pairs an ingredient's original name with how many
// times it occurs across the corpus, the cascade's batch input shape.
type IngredientOccurrence struct {
	Name  string
	Count int
}

// ResolveBatch maps every occurrence concurrently (bounded to
// batchConcurrency, mirroring the platform's errgroup.SetLimit(10) batch
// convention), then deduplicates by (subject_id, object_id) keeping the
// max-confidence row, and accumulates MappingStats over the deduplicated
// result.
func (c *Cascade) ResolveBatch(ctx context.Context, ingredients []IngredientOccurrence) ([]domainmapping.SSSOMMapping, *domainmapping.MappingStats) {
	results := make([]domainmapping.SSSOMMapping, len(ingredients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, ing := range ingredients {
		i, ing := i, ing
		g.Go(func() error {
			results[i] = c.Map(gctx, ing.Name)
			return nil
		})
	}
	_ = g.Wait() // Map never returns an error; stages fail closed to Unmapped.

	deduped := dedupeMaxConfidence(results)

	stats := domainmapping.NewMappingStats()
	for _, m := range deduped {
		stats.Record(m)
	}
	return deduped, stats
}

func dedupeMaxConfidence(mappings []domainmapping.SSSOMMapping) []domainmapping.SSSOMMapping {
	type key struct{ subject, object string }
	best := make(map[key]domainmapping.SSSOMMapping, len(mappings))
	order := make([]key, 0, len(mappings))

	for _, m := range mappings {
		k := key{m.SubjectID, m.ObjectID}
		existing, ok := best[k]
		if !ok {
			order = append(order, k)
			best[k] = m
			continue
		}
		if m.Confidence > existing.Confidence {
			best[k] = m
		}
	}

	out := make([]domainmapping.SSSOMMapping, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubjectID < out[j].SubjectID
	})
	return out
}
