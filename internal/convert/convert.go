// Package convert implements the Layer-1 → Layer-2 translation: a 1:1
// rewrite of each fetched source record into YAML, preserving every
// non-derived field under its original name and stamping a provenance
// block. Source-specific parsing beyond plain JSON is supplied by the
// external fetcher/importer collaborator via a registered Parser; this
// package only owns the translation and regeneration mechanics.
package convert

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/culturemech/culturemech/internal/layerstore"
	"github.com/culturemech/culturemech/pkg/errors"
)

// Parser decodes one Layer-1 record's raw bytes into a field map keyed by
// the source's own field names. The default Parser (used when no
// source-specific one is registered) treats raw as JSON.
type Parser func(raw []byte) (map[string]interface{}, error)

// DefaultParser decodes raw as JSON. Sources whose fetcher emits something
// other than JSON (an HTML table dump, a SQL export) register their own
// Parser with a Converter instead.
func DefaultParser(raw []byte) (map[string]interface{}, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "convert: decode raw record as JSON")
	}
	return fields, nil
}

// Converter holds one Parser per source, falling back to DefaultParser for
// any source without a registered override.
type Converter struct {
	parsers map[string]Parser
}

// New returns an empty Converter; register per-source parsers with
// RegisterParser before calling Convert/ConvertSource.
func New() *Converter {
	return &Converter{parsers: make(map[string]Parser)}
}

// RegisterParser installs a source-specific Parser, returning the receiver
// for chaining.
func (c *Converter) RegisterParser(source string, p Parser) *Converter {
	c.parsers[source] = p
	return c
}

func (c *Converter) parserFor(source string) Parser {
	if p, ok := c.parsers[source]; ok {
		return p
	}
	return DefaultParser
}

// layer2Key derives the Layer-2 filename from a Layer-1 key, swapping
// whatever extension the fetcher used for ".yaml".
func layer2Key(rawKey string) string {
	return strings.TrimSuffix(rawKey, filepath.Ext(rawKey)) + ".yaml"
}

// Convert translates a single Layer-1 record into a Layer-2 record. fields
// decoded from raw are preserved verbatim under their original keys;
// "provenance" is added (or overwritten, if the raw record itself used
// that key) with source_db and fetch_date, the only fields this stage
// derives.
func (c *Converter) Convert(source, rawKey string, raw []byte, fetchDate time.Time) (layerstore.Record, error) {
	fields, err := c.parserFor(source)(raw)
	if err != nil {
		return layerstore.Record{}, err
	}
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["provenance"] = map[string]interface{}{
		"source_db":  source,
		"fetch_date": fetchDate.UTC().Format(time.RFC3339),
	}

	content, err := yaml.Marshal(fields)
	if err != nil {
		return layerstore.Record{}, errors.Wrap(err, errors.CodeInternal, "convert: marshal layer 2 record "+source+"/"+rawKey)
	}
	return layerstore.Record{Source: source, Key: layer2Key(rawKey), Content: content}, nil
}

// ConvertSource reads every Layer-1 record for source from store and
// converts each to a Layer-2 record. The resulting slice is suitable as
// the build result passed to store.Regenerate(layerstore.LayerRawYAML, ...).
func (c *Converter) ConvertSource(store *layerstore.Store, source string, fetchDate time.Time) ([]layerstore.Record, error) {
	var out []layerstore.Record
	err := store.Scan(layerstore.LayerRaw, source, func(rec layerstore.Record) error {
		converted, err := c.Convert(rec.Source, rec.Key, rec.Content, fetchDate)
		if err != nil {
			return err
		}
		out = append(out, converted)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConvertAll reads every Layer-1 record across every source and converts
// each, for use directly as a store.Regenerate build callback.
func (c *Converter) ConvertAll(store *layerstore.Store, fetchDate time.Time) ([]layerstore.Record, error) {
	var out []layerstore.Record
	err := store.Scan(layerstore.LayerRaw, "", func(rec layerstore.Record) error {
		converted, err := c.Convert(rec.Source, rec.Key, rec.Content, fetchDate)
		if err != nil {
			return err
		}
		out = append(out, converted)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
