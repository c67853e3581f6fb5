package ontology

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/culturemech/culturemech/internal/telemetry/logging"
)

// cacheKey returns the content-addressed cache key for a request URL: the
// hex SHA-256 digest. Cache hits on this key bypass rate limiting entirely —
// a hit never touches the network.
func cacheKey(requestURL string) string {
	sum := sha256.Sum256([]byte(requestURL))
	return hex.EncodeToString(sum[:])
}

// FileCache persists one JSON blob per request URL under dir, named by the
// URL's content-address, mirroring the platform's atomic-write (temp+rename)
// convention used throughout the layer store.
type FileCache struct {
	dir string
}

// NewFileCache returns a FileCache rooted at dir, creating it if necessary.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get unmarshals the cached blob for requestURL into dest. The second return
// value is false on a miss.
func (c *FileCache) Get(requestURL string, dest interface{}) (bool, error) {
	raw, err := os.ReadFile(c.path(cacheKey(requestURL)))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Put persists value as the cached blob for requestURL, writing to a
// temporary file and renaming into place so a crash mid-write never leaves a
// corrupt cache entry.
func (c *FileCache) Put(requestURL string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	final := c.path(cacheKey(requestURL))
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}

// FrontCache is an optional distributed cache consulted before FileCache,
// letting a fleet of pipeline workers share ontology lookups. Grounded on
// the platform's redis cache-key/TTL-jitter convention; unlike that cache
// this one deliberately has no null-result caching tier, since a miss here
// falls through to disk, not to the network.
type FrontCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    logging.Logger
}

// NewFrontCache wraps an existing redis client. A nil client makes every
// method a no-op miss, so the ontology client can be constructed without
// Redis in environments that don't run it.
func NewFrontCache(client *redis.Client, ttl time.Duration, log logging.Logger) *FrontCache {
	return &FrontCache{client: client, prefix: "culturemech:ontology:", ttl: ttl, log: log}
}

func (c *FrontCache) Get(ctx context.Context, requestURL string, dest interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, c.prefix+cacheKey(requestURL)).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("ontology front cache holds undecodable entry", logging.Err(err))
		return false
	}
	return true
}

func (c *FrontCache) Put(ctx context.Context, requestURL string, value interface{}) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.prefix+cacheKey(requestURL), raw, c.ttl).Err(); err != nil {
		c.log.Warn("ontology front cache write failed", logging.Err(err))
	}
}
