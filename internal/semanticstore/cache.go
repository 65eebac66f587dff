package semanticstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/cliair-memcore/memcore/memtypes"
)

// cacheKey hashes text with sha256, per spec.md §3
// "EmbeddingCacheEntry — keyed by (sha256(text), provider, model)".
func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// cacheGet looks up a cached embedding. A miss returns (nil, false, nil).
// Safe under concurrent reads/writes per spec.md §5 ("cache misses may race
// and recompute — the last write wins").
func (s *Store) cacheGet(ctx context.Context, text, provider, model string) ([]float32, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT vector FROM embedding_cache WHERE text_hash = ? AND provider = ? AND model = ?
	`, cacheKey(text), provider, model)

	var blob []byte
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, memtypes.Wrap(memtypes.KindDatabase, "semanticstore.cacheGet", err)
	}
	return decodeEmbedding(blob), true, nil
}

// cacheSet stores (or overwrites) a cached embedding. Per spec.md §3 the
// cache is "reused across sessions; never cleared on store clear" — it has
// no TTL and is not touched by Store.Delete/DeleteBySession.
func (s *Store) cacheSet(ctx context.Context, text, provider, model string, vec []float32) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embedding_cache (text_hash, provider, model, vector, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(text_hash, provider, model) DO UPDATE SET
			vector = excluded.vector,
			created_at = excluded.created_at
	`, cacheKey(text), provider, model, encodeEmbedding(vec), memtypes.NowMillis())
	if err != nil {
		return memtypes.Wrap(memtypes.KindDatabase, "semanticstore.cacheSet", err)
	}
	return nil
}

// resolveEmbedding returns the embedding to store for text: the explicit
// embedding, if given; else a cache hit; else the result of calling embed
// (retried) and caching it. Per spec.md §4.4, an embedding error is warned
// and swallowed — the chunk persists without a vector. No error is
// returned: a failed cache read falls through to embed, and a failed cache
// write is logged.
func (s *Store) resolveEmbedding(ctx context.Context, text string, explicit []float32) []float32 {
	if len(explicit) > 0 {
		return explicit
	}
	if s.embed == nil {
		return nil
	}
	if cached, ok, err := s.cacheGet(ctx, text, s.cfg.Provider, s.cfg.Model); err == nil && ok {
		return cached
	}

	vec, err := s.embedWithRetry(ctx, text)
	if err != nil {
		s.logger.Warn("embedding function failed; chunk will persist without a vector",
			"error", err)
		return nil
	}
	if err := s.cacheSet(ctx, text, s.cfg.Provider, s.cfg.Model, vec); err != nil {
		s.logger.Warn("failed to cache embedding", "error", err)
	}
	return vec
}

// embedWithRetry wraps the caller-supplied EmbeddingFunc with exponential
// backoff, since spec.md §5 calls these calls "may be network-bound".
// Grounded on steveyegge-beads/internal/storage/dolt/store.go's
// backoff.Retry(fn, backoff.WithContext(bo, ctx)) idiom.
func (s *Store) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	op := func() error {
		v, err := s.embed(ctx, text)
		if err != nil {
			return err
		}
		vec = v
		return nil
	}
	if err := retryWithBackoff(ctx, op); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return vec, nil
}
