// Package layerstore implements the four-tier filesystem contract backing
// the CultureMech pipeline: raw/ → raw_yaml/ → normalized_yaml/ →
// merge_yaml/, one source subdirectory per layer. Every stage that reads or
// writes pipeline data goes through a Store rather than touching the
// filesystem directly, so the immutability, collision, and regenerability
// invariants live in one place.
package layerstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/culturemech/culturemech/internal/config"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
	"github.com/culturemech/culturemech/pkg/errors"
)

// Layer identifies one of the four pipeline tiers.
type Layer int

const (
	LayerRaw Layer = iota + 1
	LayerRawYAML
	LayerNormalized
	LayerMerge
)

// String renders the layer's conventional directory name.
func (l Layer) String() string {
	switch l {
	case LayerRaw:
		return "raw"
	case LayerRawYAML:
		return "raw_yaml"
	case LayerNormalized:
		return "normalized_yaml"
	case LayerMerge:
		return "merge_yaml"
	default:
		return fmt.Sprintf("layer(%d)", int(l))
	}
}

// ParseLayer resolves a layer's conventional directory name (as accepted
// in API query parameters and CLI --layer flags) back to a Layer value.
func ParseLayer(name string) (Layer, error) {
	switch name {
	case "raw":
		return LayerRaw, nil
	case "raw_yaml":
		return LayerRawYAML, nil
	case "normalized_yaml", "normalized":
		return LayerNormalized, nil
	case "merge_yaml", "merge":
		return LayerMerge, nil
	default:
		return 0, errors.New(errors.CodeInvalidParam, fmt.Sprintf("layerstore: unknown layer name %q", name))
	}
}

// Record is one file under a layer/source directory.
type Record struct {
	Source  string
	Key     string
	Content []byte
}

// ArchiveBackend optionally mirrors Layer-1 writes to durable object
// storage. A nil backend makes archival a no-op.
type ArchiveBackend interface {
	Archive(ctx context.Context, source, key string, content []byte) error
}

// Store is the filesystem-backed implementation of the layer contract.
// It is safe for concurrent use: Regenerate takes the store's single lock
// exclusively while Put/Get/Scan take it shared, so a regeneration never
// races a concurrent reader onto a half-rebuilt directory.
type Store struct {
	dirs          map[Layer]string
	quarantineDir string
	archive       ArchiveBackend
	log           logging.Logger

	mu sync.RWMutex
}

// NewStore builds a Store rooted at cfg's configured layer directories,
// creating every directory (including the quarantine sibling) if absent.
func NewStore(cfg config.PipelineConfig, log logging.Logger) (*Store, error) {
	dirs := map[Layer]string{
		LayerRaw:        filepath.Join(cfg.RootDir, cfg.RawDir),
		LayerRawYAML:    filepath.Join(cfg.RootDir, cfg.RawYAMLDir),
		LayerNormalized: filepath.Join(cfg.RootDir, cfg.NormalizedYAMLDir),
		LayerMerge:      filepath.Join(cfg.RootDir, cfg.MergeYAMLDir),
	}
	quarantine := cfg.QuarantineDir
	if quarantine != "" {
		quarantine = filepath.Join(cfg.RootDir, quarantine)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "layerstore: create layer directory "+dir)
		}
	}
	if quarantine != "" {
		if err := os.MkdirAll(quarantine, 0o755); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "layerstore: create quarantine directory "+quarantine)
		}
	}
	return &Store{dirs: dirs, quarantineDir: quarantine, log: log}, nil
}

// WithArchive attaches an ArchiveBackend used to mirror every Layer-1 write.
// Returns the receiver for chaining at construction time.
func (s *Store) WithArchive(a ArchiveBackend) *Store {
	s.archive = a
	return s
}

func (s *Store) path(layer Layer, source, key string) (string, error) {
	dir, ok := s.dirs[layer]
	if !ok {
		return "", errors.New(errors.CodeInvalidParam, fmt.Sprintf("layerstore: unknown layer %v", layer))
	}
	if source == "" {
		return "", errors.New(errors.CodeInvalidParam, "layerstore: source must not be empty")
	}
	return filepath.Join(dir, source, key), nil
}

// Path exposes the on-disk location of (layer, source, key), for callers
// (the curation updater, in particular) that must operate on a real
// filesystem path rather than the byte-level Store API.
func (s *Store) Path(layer Layer, source, key string) (string, error) {
	return s.path(layer, source, key)
}

// Put writes content at (layer, source, key). Layer 1 is immutable through
// this call — raw content only enters the store via PutRaw. A Layer-4 write
// that collides with an existing, differently-fingerprinted record at the
// same key is rejected with CodeLayerCollision; the merge stage is
// expected to have already deduplicated by fingerprint before calling Put.
func (s *Store) Put(layer Layer, source, key string, content []byte) error {
	if layer == LayerRaw {
		return errors.New(errors.CodeImmutableLayer, "layerstore: layer 1 (raw) is immutable; use PutRaw")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writeLocked(layer, source, key, content)
}

// writeLocked performs the actual write; callers must hold at least a read
// lock (Put) or the write lock (Regenerate).
func (s *Store) writeLocked(layer Layer, source, key string, content []byte) error {
	target, err := s.path(layer, source, key)
	if err != nil {
		return err
	}
	if layer == LayerMerge {
		if existing, readErr := os.ReadFile(target); readErr == nil {
			if collides, checkErr := mergeFingerprintsDiffer(existing, content); checkErr == nil && collides {
				return errors.New(errors.CodeLayerCollision,
					fmt.Sprintf("layerstore: layer 4 key %s/%s collides with a differently-fingerprinted record", source, key))
			}
		}
	}
	return atomicWrite(target, content)
}

// PutRaw is the sole write path for Layer 1. The first write for a given
// (source, key) establishes the immutable record; a subsequent PutRaw for
// the same key is a deliberate re-fetch and overwrites it, mirroring to the
// archive backend if one is attached.
func (s *Store) PutRaw(ctx context.Context, source, key string, content []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	target, err := s.path(LayerRaw, source, key)
	if err != nil {
		return err
	}
	if err := atomicWrite(target, content); err != nil {
		return err
	}
	if s.archive != nil {
		if err := s.archive.Archive(ctx, source, key, content); err != nil {
			s.log.Warn("layerstore: archive mirror failed", logging.String("source", source), logging.String("key", key),
				logging.Code(errors.GetCode(err)), logging.Err(err))
		}
	}
	return nil
}

// Get reads the content stored at (layer, source, key).
func (s *Store) Get(layer Layer, source, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	target, err := s.path(layer, source, key)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(target)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("layerstore: %s/%s not found in %s", source, key, layer))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "layerstore: read "+target)
	}
	return content, nil
}

// Quarantine moves a Layer-3 record out of normalized_yaml/ into the
// quarantine sibling directory, used when repeated schema repair fails.
// A nil return means the move itself succeeded; callers report the
// CodeQuarantined disposition to the run's statistics themselves, since
// "quarantined" is an outcome of the repair pipeline, not a failure of
// this method.
func (s *Store) Quarantine(source, key string, content []byte) error {
	if s.quarantineDir == "" {
		return errors.New(errors.CodeInternal, "layerstore: no quarantine directory configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	target := filepath.Join(s.quarantineDir, source, key)
	if err := atomicWrite(target, content); err != nil {
		return err
	}
	normalized, err := s.path(LayerNormalized, source, key)
	if err == nil {
		_ = os.Remove(normalized)
	}
	return nil
}

// Scan walks every record under layer, optionally restricted to one
// source (pass "" to scan all sources), invoking fn for each in
// source-then-key sorted order. Scan stops and returns fn's error as soon
// as fn returns a non-nil one.
func (s *Store) Scan(layer Layer, source string, fn func(Record) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir, ok := s.dirs[layer]
	if !ok {
		return errors.New(errors.CodeInvalidParam, fmt.Sprintf("layerstore: unknown layer %v", layer))
	}

	sources, err := s.sourcesLocked(dir, source)
	if err != nil {
		return err
	}

	for _, src := range sources {
		keys, err := listYAMLSortedOrAll(filepath.Join(dir, src))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrap(err, errors.CodeInternal, "layerstore: list "+filepath.Join(dir, src))
		}
		for _, key := range keys {
			content, err := os.ReadFile(filepath.Join(dir, src, key))
			if err != nil {
				return errors.Wrap(err, errors.CodeInternal, "layerstore: read "+filepath.Join(dir, src, key))
			}
			if err := fn(Record{Source: src, Key: key, Content: content}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) sourcesLocked(dir, source string) ([]string, error) {
	if source != "" {
		return []string{source}, nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "layerstore: list "+dir)
	}
	var sources []string
	for _, e := range entries {
		if e.IsDir() {
			sources = append(sources, e.Name())
		}
	}
	sort.Strings(sources)
	return sources, nil
}

func listYAMLSortedOrAll(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".tmp") {
			continue
		}
		keys = append(keys, e.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

// Regenerate clears layer (2 or 4 only) and rebuilds it from build's
// output. build is expected to re-derive every record from the layer's
// upstream source (Layer 1 for Layer 2, Layer 3 for Layer 4); Regenerate
// itself only owns the clear-then-rewrite mechanics and the Layer-4
// collision check, which still applies during a rebuild.
func (s *Store) Regenerate(layer Layer, build func() ([]Record, error)) error {
	if layer != LayerRawYAML && layer != LayerMerge {
		return errors.New(errors.CodeInvalidParam, fmt.Sprintf("layerstore: layer %v is not regenerable", layer))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.dirs[layer]
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "layerstore: clear "+dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "layerstore: recreate "+dir)
	}

	records, err := build()
	if err != nil {
		return err
	}

	written := make(map[string][]byte, len(records))
	for _, r := range records {
		relKey := r.Source + "/" + r.Key
		if layer == LayerMerge {
			if existing, ok := written[relKey]; ok {
				if collides, checkErr := mergeFingerprintsDiffer(existing, r.Content); checkErr == nil && collides {
					return errors.New(errors.CodeLayerCollision,
						fmt.Sprintf("layerstore: regenerate layer 4 produced colliding records for %s", relKey))
				}
			}
		}
		if err := s.writeLocked(layer, r.Source, r.Key, r.Content); err != nil {
			return err
		}
		written[relKey] = r.Content
	}
	return nil
}
