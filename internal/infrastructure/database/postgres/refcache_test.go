//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturemech/culturemech/internal/infrastructure/database/postgres"
)

func TestReferenceCache_UpsertThenLookup_ReturnsStoredText(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS reference_cache (
		reference TEXT PRIMARY KEY, full_text TEXT NOT NULL, cached_at TIMESTAMPTZ NOT NULL DEFAULT now())`)
	require.NoError(t, err)
	defer pool.Exec(ctx, "DROP TABLE reference_cache")

	cache := postgres.NewReferenceCache(pool)
	require.NoError(t, cache.Upsert(ctx, "PMID:12345", "Glucose promotes growth of E. coli under aerobic conditions."))

	text, found, err := cache.Lookup(ctx, "PMID:12345")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, text, "Glucose promotes growth")
}

func TestReferenceCache_Lookup_MissingReferenceReturnsFalse(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS reference_cache (
		reference TEXT PRIMARY KEY, full_text TEXT NOT NULL, cached_at TIMESTAMPTZ NOT NULL DEFAULT now())`)
	require.NoError(t, err)
	defer pool.Exec(ctx, "DROP TABLE reference_cache")

	cache := postgres.NewReferenceCache(pool)
	_, found, err := cache.Lookup(ctx, "doi:10.1000/nonexistent")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReferenceCache_Upsert_ReplacesExistingText(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS reference_cache (
		reference TEXT PRIMARY KEY, full_text TEXT NOT NULL, cached_at TIMESTAMPTZ NOT NULL DEFAULT now())`)
	require.NoError(t, err)
	defer pool.Exec(ctx, "DROP TABLE reference_cache")

	cache := postgres.NewReferenceCache(pool)
	require.NoError(t, cache.Upsert(ctx, "doi:10.1/x", "first version"))
	require.NoError(t, cache.Upsert(ctx, "doi:10.1/x", "second version"))

	text, found, err := cache.Lookup(ctx, "doi:10.1/x")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "second version", text)
}
