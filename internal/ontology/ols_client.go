package ontology

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/culturemech/culturemech/internal/telemetry/logging"
)

// olsSearchResponse mirrors the subset of OLS's Solr-backed /api/search
// response this client reads. Both the v3 and v4 deployments share this
// envelope; only the term-retrieval path differs between versions.
type olsSearchResponse struct {
	Response struct {
		NumFound int `json:"numFound"`
		Docs     []struct {
			OBOID      string   `json:"obo_id"`
			IRI        string   `json:"iri"`
			Label      string   `json:"label"`
			Synonym    []string `json:"synonym"`
			Ontology   string   `json:"ontology_name"`
			IsObsolete bool     `json:"is_obsolete"`
			Score      float64  `json:"score"`
		} `json:"docs"`
	} `json:"response"`
}

type olsTermResponse struct {
	Embedded struct {
		Terms []struct {
			OBOID      string   `json:"obo_id"`
			Label      string   `json:"label"`
			Synonyms   []string `json:"synonyms"`
			IsObsolete bool     `json:"is_obsolete"`
			Formula    string   `json:"formula,omitempty"`
		} `json:"terms"`
	} `json:"_embedded"`
}

// OLSConfig configures the remote OLS client.
type OLSConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	CacheDir       string
	MaxRetries     int
}

// OLSClient queries EBI's Ontology Lookup Service over HTTP. It implements
// Service.
type OLSClient struct {
	cfg        OLSConfig
	httpClient *http.Client
	limiter    *TokenBucket
	fileCache  *FileCache
	front      *FrontCache
	group      singleflight.Group
	log        logging.Logger

	versionOnce sync.Once
	apiVersion  string // "v4" or "v3", populated by probeVersion
}

// NewOLSClient constructs an OLSClient. front may be nil when no distributed
// cache is configured.
func NewOLSClient(cfg OLSConfig, front *FrontCache, log logging.Logger) (*OLSClient, error) {
	fileCache, err := NewFileCache(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &OLSClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    NewTokenBucket(cfg.RateLimitRPS, cfg.RateLimitBurst),
		fileCache:  fileCache,
		front:      front,
		log:        log,
	}, nil
}

// Close releases the rate limiter's background goroutine.
func (c *OLSClient) Close() { c.limiter.Close() }

// probeVersion determines whether the configured BaseURL serves the OLS v4
// or v3 API shape, at first use only; the result is cached for the client's
// lifetime. v4 deployments answer /api/ontologies with a HAL "_embedded"
// envelope under the "ols4" path segment; anything else is treated as v3.
func (c *OLSClient) probeVersion(ctx context.Context) {
	c.versionOnce.Do(func() {
		c.apiVersion = "v4"
		if !strings.Contains(c.cfg.BaseURL, "ols4") {
			c.apiVersion = "v3"
			return
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/ontologies?size=1", nil)
		if err != nil {
			return
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.log.Warn("OLS version probe failed, assuming v4", logging.Err(err))
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			c.apiVersion = "v3"
		}
	})
}

// termURL builds the term-retrieval URL for curie under the active API
// version, which is where v3 and v4 genuinely diverge: v4 expects the IRI
// double-URL-encoded, v3 does not.
func (c *OLSClient) termURL(ontology, iri string) string {
	if c.apiVersion == "v3" {
		return fmt.Sprintf("%s/ontologies/%s/terms/%s", c.cfg.BaseURL, strings.ToLower(ontology), url.QueryEscape(iri))
	}
	doubleEncoded := url.QueryEscape(url.QueryEscape(iri))
	return fmt.Sprintf("%s/ontologies/%s/terms/%s", c.cfg.BaseURL, strings.ToLower(ontology), doubleEncoded)
}

// get performs a rate-limited, cached, singleflight-collapsed GET against
// requestURL, retrying on 429/5xx with exponential backoff up to
// cfg.MaxRetries retries after the first attempt, and decodes the JSON body into dest. A cache hit
// never touches the limiter or the network.
func (c *OLSClient) get(ctx context.Context, requestURL string, dest interface{}) error {
	if hit, err := c.fileCache.Get(requestURL, dest); err == nil && hit {
		return nil
	}
	if c.front.Get(ctx, requestURL, dest) {
		return nil
	}

	v, err, _ := c.group.Do(requestURL, func() (interface{}, error) {
		var raw json.RawMessage
		if err := c.fetchWithRetry(ctx, requestURL, &raw); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return err
	}
	raw := v.(json.RawMessage)
	if err := json.Unmarshal(raw, dest); err != nil {
		return NewLookupError(FailureParseError, err.Error())
	}
	_ = c.fileCache.Put(requestURL, dest)
	c.front.Put(ctx, requestURL, dest)
	return nil
}

func (c *OLSClient) fetchWithRetry(ctx context.Context, requestURL string, dest *json.RawMessage) error {
	var lastErr error
	backoff := 250 * time.Millisecond
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return NewLookupError(FailureNetworkError, ctx.Err().Error())
			}
			backoff *= 2
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return NewLookupError(FailureNetworkError, err.Error())
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return NewLookupError(FailureParseError, err.Error())
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = NewLookupError(FailureNetworkError, err.Error())
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = NewLookupError(FailureNetworkError, readErr.Error())
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = NewLookupError(FailureNetworkError, "status "+strconv.Itoa(resp.StatusCode))
			continue
		case resp.StatusCode == http.StatusNotFound:
			return NewLookupError(FailureNotFound, requestURL)
		case resp.StatusCode >= 400:
			return NewLookupError(FailureNetworkError, "status "+strconv.Itoa(resp.StatusCode))
		}
		*dest = body
		return nil
	}
	return lastErr
}

func (c *OLSClient) search(ctx context.Context, name, ontology string, exact bool, queryType string) (*olsSearchResponse, error) {
	c.probeVersion(ctx)
	params := url.Values{}
	params.Set("q", name)
	if ontology != "" {
		params.Set("ontology", strings.ToLower(ontology))
	}
	if exact {
		params.Set("exact", "true")
	}
	if queryType != "" {
		params.Set("queryFields", queryType)
	}
	requestURL := c.cfg.BaseURL + "/search?" + params.Encode()

	var out olsSearchResponse
	if err := c.get(ctx, requestURL, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Exact implements Service.
func (c *OLSClient) Exact(ctx context.Context, name, ontology string) (*Term, error) {
	resp, err := c.search(ctx, name, ontology, true, "label")
	if err != nil {
		return nil, err
	}
	if len(resp.Response.Docs) == 0 {
		return nil, NewLookupError(FailureNotFound, name)
	}
	d := resp.Response.Docs[0]
	if d.IsObsolete {
		return nil, NewLookupError(FailureDeprecated, d.OBOID)
	}
	return &Term{ID: d.OBOID, Label: d.Label, Synonyms: d.Synonym, Ontology: d.Ontology, Deprecated: d.IsObsolete}, nil
}

// Synonym implements Service.
func (c *OLSClient) Synonym(ctx context.Context, name, ontology string) (*Term, error) {
	resp, err := c.search(ctx, name, ontology, true, "synonym")
	if err != nil {
		return nil, err
	}
	if len(resp.Response.Docs) == 0 {
		return nil, NewLookupError(FailureNotFound, name)
	}
	d := resp.Response.Docs[0]
	if d.IsObsolete {
		return nil, NewLookupError(FailureDeprecated, d.OBOID)
	}
	return &Term{ID: d.OBOID, Label: d.Label, Synonyms: d.Synonym, Ontology: d.Ontology, Deprecated: d.IsObsolete}, nil
}

// Fuzzy implements Service, returning up to limit candidates ordered by the
// source relevance score.
func (c *OLSClient) Fuzzy(ctx context.Context, name, ontology string, limit int) ([]FuzzyCandidate, error) {
	resp, err := c.search(ctx, name, ontology, false, "")
	if err != nil {
		return nil, err
	}
	candidates := make([]FuzzyCandidate, 0, len(resp.Response.Docs))
	for _, d := range resp.Response.Docs {
		if d.IsObsolete {
			continue
		}
		candidates = append(candidates, FuzzyCandidate{
			Term:  Term{ID: d.OBOID, Label: d.Label, Synonyms: d.Synonym, Ontology: d.Ontology},
			Score: d.Score,
		})
		if len(candidates) >= limit {
			break
		}
	}
	if len(candidates) == 0 {
		return nil, NewLookupError(FailureNotFound, name)
	}
	return candidates, nil
}

// Verify implements Service. It validates curie's syntax before issuing any
// request — a malformed or out-of-range CHEBI id is reported as
// FailureInvalidID and never reaches the network.
func (c *OLSClient) Verify(ctx context.Context, curie string) (*VerifyResult, error) {
	if err := ValidateCURIE(curie); err != nil {
		return nil, err
	}
	prefix, local, _ := strings.Cut(curie, ":")
	iri := obiIRI(prefix, local)

	var out olsTermResponse
	if err := c.get(ctx, c.termURL(prefix, iri), &out); err != nil {
		return nil, err
	}
	if len(out.Embedded.Terms) == 0 {
		return nil, NewLookupError(FailureNotFound, curie)
	}
	t := out.Embedded.Terms[0]
	return &VerifyResult{
		Valid:      !t.IsObsolete,
		Label:      t.Label,
		Synonyms:   t.Synonyms,
		Formula:    t.Formula,
		Deprecated: t.IsObsolete,
	}, nil
}

// obiIRI reconstructs the canonical purl.obolibrary.org IRI OLS indexes
// terms under, from a CURIE's prefix and local part.
func obiIRI(prefix, local string) string {
	return "http://purl.obolibrary.org/obo/" + strings.ToUpper(prefix) + "_" + local
}
