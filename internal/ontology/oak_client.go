package ontology

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	"github.com/culturemech/culturemech/internal/telemetry/logging"
)

// oakHit is the subset of an OpenSearch document this client reads out of
// an OAK term snapshot index.
type oakHit struct {
	Source struct {
		ID       string   `json:"id"`
		Label    string   `json:"label"`
		Synonyms []string `json:"synonyms"`
		Ontology string   `json:"ontology"`
		Obsolete bool     `json:"obsolete"`
	} `json:"_source"`
	Score float64 `json:"_score"`
}

type oakSearchResponse struct {
	Hits struct {
		Hits []oakHit `json:"hits"`
	} `json:"hits"`
}

// OAKClient queries a local OpenSearch index populated from an OAK term
// snapshot. It implements Service, mirroring the DSL-builder /
// request-response shape the platform's own OpenSearch searcher uses for
// every other index.
type OAKClient struct {
	client *opensearchapi.Client
	index  string
	log    logging.Logger
}

// NewOAKClient wraps an OpenSearch client already pointed at the cluster
// hosting the OAK snapshot index.
func NewOAKClient(client *opensearchapi.Client, index string, log logging.Logger) *OAKClient {
	return &OAKClient{client: client, index: index, log: log}
}

func (c *OAKClient) search(ctx context.Context, dsl map[string]interface{}) (*oakSearchResponse, error) {
	body, err := json.Marshal(dsl)
	if err != nil {
		return nil, NewLookupError(FailureParseError, err.Error())
	}

	resp, err := c.client.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{c.index},
		Body:    bytes.NewReader(body),
	})
	if err != nil {
		return nil, NewLookupError(FailureNetworkError, err.Error())
	}

	var out oakSearchResponse
	if err := json.NewDecoder(resp.Inspect().Response.Body).Decode(&out); err != nil {
		return nil, NewLookupError(FailureParseError, err.Error())
	}
	return &out, nil
}

func termOntologyFilter(ontology string) []map[string]interface{} {
	if ontology == "" {
		return nil
	}
	return []map[string]interface{}{
		{"term": map[string]interface{}{"ontology": strings.ToLower(ontology)}},
	}
}

// Exact implements Service against the label field.
func (c *OAKClient) Exact(ctx context.Context, name, ontology string) (*Term, error) {
	dsl := map[string]interface{}{
		"size": 1,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   []map[string]interface{}{{"term": map[string]interface{}{"label.keyword": name}}},
				"filter": termOntologyFilter(ontology),
			},
		},
	}
	return c.firstHit(ctx, dsl, name)
}

// Synonym implements Service against the synonyms field — this is the
// cascade's stage-2 backend, tried after OLS's exact-label stage fails.
func (c *OAKClient) Synonym(ctx context.Context, name, ontology string) (*Term, error) {
	dsl := map[string]interface{}{
		"size": 1,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   []map[string]interface{}{{"term": map[string]interface{}{"synonyms.keyword": name}}},
				"filter": termOntologyFilter(ontology),
			},
		},
	}
	return c.firstHit(ctx, dsl, name)
}

// Fuzzy implements Service via OpenSearch's own fuzzy match query, scored
// 0-100 like OLS so downstream confidence math is backend-agnostic.
func (c *OAKClient) Fuzzy(ctx context.Context, name, ontology string, limit int) ([]FuzzyCandidate, error) {
	dsl := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   []map[string]interface{}{{"fuzzy": map[string]interface{}{"label": map[string]interface{}{"value": name, "fuzziness": "AUTO"}}}},
				"filter": termOntologyFilter(ontology),
			},
		},
	}
	resp, err := c.search(ctx, dsl)
	if err != nil {
		return nil, err
	}
	candidates := make([]FuzzyCandidate, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		if h.Source.Obsolete {
			continue
		}
		candidates = append(candidates, FuzzyCandidate{
			Term:  Term{ID: h.Source.ID, Label: h.Source.Label, Synonyms: h.Source.Synonyms, Ontology: h.Source.Ontology},
			Score: h.Score,
		})
	}
	if len(candidates) == 0 {
		return nil, NewLookupError(FailureNotFound, name)
	}
	return candidates, nil
}

// Verify implements Service by a direct id lookup against the snapshot
// index, after the same CURIE validation OLS applies.
func (c *OAKClient) Verify(ctx context.Context, curie string) (*VerifyResult, error) {
	if err := ValidateCURIE(curie); err != nil {
		return nil, err
	}
	dsl := map[string]interface{}{
		"size":  1,
		"query": map[string]interface{}{"term": map[string]interface{}{"id.keyword": curie}},
	}
	resp, err := c.search(ctx, dsl)
	if err != nil {
		return nil, err
	}
	if len(resp.Hits.Hits) == 0 {
		return nil, NewLookupError(FailureNotFound, curie)
	}
	h := resp.Hits.Hits[0].Source
	return &VerifyResult{Valid: !h.Obsolete, Label: h.Label, Synonyms: h.Synonyms, Deprecated: h.Obsolete}, nil
}

func (c *OAKClient) firstHit(ctx context.Context, dsl map[string]interface{}, name string) (*Term, error) {
	resp, err := c.search(ctx, dsl)
	if err != nil {
		return nil, err
	}
	if len(resp.Hits.Hits) == 0 {
		return nil, NewLookupError(FailureNotFound, name)
	}
	h := resp.Hits.Hits[0].Source
	if h.Obsolete {
		return nil, NewLookupError(FailureDeprecated, h.ID)
	}
	return &Term{ID: h.ID, Label: h.Label, Synonyms: h.Synonyms, Ontology: h.Ontology}, nil
}
