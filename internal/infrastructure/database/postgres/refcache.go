package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	culturemecherrors "github.com/culturemech/culturemech/pkg/errors"
)

// ReferenceCache resolves a bibliographic reference (a "PMID:…" or "doi:…"
// string) to the cited work's abstract/full text, backing the validation
// driver's pass-3 reference check. The cache is populated out of band by an
// external fetcher job; this repository only reads and upserts rows.
type ReferenceCache struct {
	pool *pgxpool.Pool
}

// NewReferenceCache wraps an already-configured connection pool.
func NewReferenceCache(pool *pgxpool.Pool) *ReferenceCache {
	return &ReferenceCache{pool: pool}
}

// Lookup returns the cited text for reference, and false if no row exists
// for it yet. A database error is distinct from a cache miss.
func (c *ReferenceCache) Lookup(ctx context.Context, reference string) (string, bool, error) {
	var text string
	err := c.pool.QueryRow(ctx,
		`SELECT full_text FROM reference_cache WHERE reference = $1`, reference,
	).Scan(&text)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, culturemecherrors.Wrap(err, culturemecherrors.CodeDBQueryError, "reference cache lookup")
	}
	return text, true, nil
}

// Upsert inserts or replaces the cached text for reference.
func (c *ReferenceCache) Upsert(ctx context.Context, reference, fullText string) error {
	_, err := c.pool.Exec(ctx,
		`INSERT INTO reference_cache (reference, full_text, cached_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (reference) DO UPDATE SET full_text = EXCLUDED.full_text, cached_at = EXCLUDED.cached_at`,
		reference, fullText,
	)
	if err != nil {
		return culturemecherrors.Wrap(err, culturemecherrors.CodeDBQueryError, "reference cache upsert")
	}
	return nil
}
