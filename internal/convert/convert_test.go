package convert_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/culturemech/culturemech/internal/config"
	"github.com/culturemech/culturemech/internal/convert"
	"github.com/culturemech/culturemech/internal/layerstore"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
)

func newTestStore(t *testing.T) *layerstore.Store {
	t.Helper()
	cfg := config.PipelineConfig{
		RootDir:           t.TempDir(),
		RawDir:            "raw",
		RawYAMLDir:        "raw_yaml",
		NormalizedYAMLDir: "normalized_yaml",
		MergeYAMLDir:      "merge_yaml",
		QuarantineDir:     "quarantine",
	}
	s, err := layerstore.NewStore(cfg, logging.NewNopLogger())
	require.NoError(t, err)
	return s
}

func TestConvert_DefaultParser_PreservesOriginalFieldNames(t *testing.T) {
	c := convert.New()
	fetchDate := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	raw := []byte(`{"medium_name": "LB Medium", "recipe_id": "1", "ingredients": ["NaCl", "Tryptone"]}`)

	rec, err := c.Convert("dsmz", "1.json", raw, fetchDate)
	require.NoError(t, err)
	assert.Equal(t, "1.yaml", rec.Key)
	assert.Equal(t, "dsmz", rec.Source)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(rec.Content, &decoded))
	assert.Equal(t, "LB Medium", decoded["medium_name"])
	assert.Equal(t, "1", decoded["recipe_id"])

	prov, ok := decoded["provenance"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "dsmz", prov["source_db"])
	assert.Equal(t, "2026-01-15T00:00:00Z", prov["fetch_date"])
}

func TestConvert_RegisteredParser_OverridesDefault(t *testing.T) {
	c := convert.New()
	c.RegisterParser("komodo", func(raw []byte) (map[string]interface{}, error) {
		return map[string]interface{}{"native_field": string(raw)}, nil
	})

	rec, err := c.Convert("komodo", "1.txt", []byte("<row>raw html</row>"), time.Now())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(rec.Content, &decoded))
	assert.Equal(t, "<row>raw html</row>", decoded["native_field"])
}

func TestConvert_InvalidJSON_ReturnsError(t *testing.T) {
	c := convert.New()
	_, err := c.Convert("dsmz", "1.json", []byte("not json"), time.Now())
	assert.Error(t, err)
}

func TestConverter_ConvertSource_ReadsEveryLayer1Record(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutRaw(ctx, "dsmz", "1.json", []byte(`{"medium_name":"LB"}`)))
	require.NoError(t, store.PutRaw(ctx, "dsmz", "2.json", []byte(`{"medium_name":"M9"}`)))
	require.NoError(t, store.PutRaw(ctx, "komodo", "1.json", []byte(`{"medium_name":"YPD"}`)))

	c := convert.New()
	records, err := c.ConvertSource(store, "dsmz", time.Now())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "dsmz", r.Source)
	}
}

func TestConverter_ConvertAll_ReadsEverySource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutRaw(ctx, "dsmz", "1.json", []byte(`{"medium_name":"LB"}`)))
	require.NoError(t, store.PutRaw(ctx, "komodo", "1.json", []byte(`{"medium_name":"YPD"}`)))

	c := convert.New()
	records, err := c.ConvertAll(store, time.Now())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestConverter_ConvertAll_FeedsRegenerate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutRaw(ctx, "dsmz", "1.json", []byte(`{"medium_name":"LB"}`)))

	c := convert.New()
	fetchDate := time.Now()
	err := store.Regenerate(layerstore.LayerRawYAML, func() ([]layerstore.Record, error) {
		return c.ConvertAll(store, fetchDate)
	})
	require.NoError(t, err)

	content, err := store.Get(layerstore.LayerRawYAML, "dsmz", "1.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(content), "medium_name: LB")
}
