package ontology

import (
	"crypto/tls"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v3"
	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"
	"github.com/redis/go-redis/v9"

	"github.com/culturemech/culturemech/internal/config"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
)

// Clients bundles the two Service implementations the mapping cascade
// dispatches to by stage: OLS for exact-label, multi-ontology and fuzzy
// search and for CURIE re-verification, OAK for synonym lookups.
type Clients struct {
	OLS *OLSClient
	OAK *OAKClient
}

// NewClients wires an OLSClient and, when the OpenSearch section of cfg has
// at least one address configured, an OAKClient backed by it. redisClient
// may be nil to run without a distributed front cache.
func NewClients(cfg config.OntologyConfig, osCfg config.OpenSearchConfig, redisClient *redis.Client, log logging.Logger) (*Clients, error) {
	front := NewFrontCache(redisClient, cfg.CacheTTL, log)

	ols, err := NewOLSClient(OLSConfig{
		BaseURL:        cfg.OLSBaseURL,
		RequestTimeout: cfg.RequestTimeout,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		CacheDir:       cfg.CacheDir,
		MaxRetries:     cfg.MaxRetries,
	}, front, log)
	if err != nil {
		return nil, err
	}

	clients := &Clients{OLS: ols}
	if len(osCfg.Addresses) == 0 {
		return clients, nil
	}

	osClient, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses: osCfg.Addresses,
			Username:  osCfg.User,
			Password:  osCfg.Password,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: osCfg.InsecureSkipVerify}, //nolint:gosec
			},
		},
	})
	if err != nil {
		return nil, err
	}
	clients.OAK = NewOAKClient(osClient, osCfg.IndexPrefix+"oak_terms", log)
	return clients, nil
}

// Close releases background resources (the OLS rate limiter's goroutine).
func (c *Clients) Close() {
	if c.OLS != nil {
		c.OLS.Close()
	}
}
