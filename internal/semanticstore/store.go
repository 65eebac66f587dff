// Package semanticstore implements spec.md §4.4: a SemanticChunk store
// backed by SQLite, with a full-text index (fts5), a brute-force vector
// fallback, hybrid fusion of the two, and an on-disk embedding cache.
// Grounded on the teacher's internal/memory/learning.go (knowledge table +
// embedding handling) generalized per spec.md and enriched with the fts5
// schema shape from other_examples' MycelicMemory database schema.
package semanticstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cliair-memcore/memcore/internal/sqlstore"
	"github.com/cliair-memcore/memcore/memtypes"
)

// Store implements the semantic chunk store described in spec.md §4.4.
type Store struct {
	db     *sql.DB
	cfg    Config
	embed  EmbeddingFunc
	logger *slog.Logger
}

// Open creates/opens the semantic store at path.
func Open(ctx context.Context, path string, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, cfg: cfg, logger: logger}, nil
}

// SetEmbedFunc registers (or clears, with nil) the embedding function used
// by Add when no explicit embedding is supplied (spec.md §6
// set_embed_function).
func (s *Store) SetEmbedFunc(fn EmbeddingFunc) {
	s.embed = fn
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add inserts a chunk, computing/caching an embedding when possible, per
// spec.md §4.4.
func (s *Store) Add(ctx context.Context, input memtypes.ChunkInput) (memtypes.SemanticChunk, error) {
	if input.Text == "" {
		return memtypes.SemanticChunk{}, memtypes.Newf(memtypes.KindInvalid, "semanticstore.Add", "text must not be empty")
	}

	chunk := memtypes.SemanticChunk{
		ID:            memtypes.NewID(),
		Timestamp:     memtypes.NowMillis(),
		Text:          input.Text,
		Tags:          memtypes.NewStringSet(input.Tags...),
		SourceEventID: input.SourceEventID,
		SourceType:    input.SourceType,
		SessionID:     input.SessionID,
		Metadata:      input.Metadata,
	}
	chunk.Embedding = s.resolveEmbedding(ctx, chunk.Text, input.Embedding)

	tagsJSON, err := json.Marshal(chunk.Tags.Slice())
	if err != nil {
		return memtypes.SemanticChunk{}, memtypes.Wrap(memtypes.KindInvalid, "semanticstore.Add", err)
	}
	metaJSON, err := marshalMeta(chunk.Metadata)
	if err != nil {
		return memtypes.SemanticChunk{}, memtypes.Wrap(memtypes.KindInvalid, "semanticstore.Add", err)
	}

	var embeddingBlob any
	if len(chunk.Embedding) > 0 {
		embeddingBlob = encodeEmbedding(chunk.Embedding)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chunks (id, text, tags, timestamp, session_id, source_event_id, source_type, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, chunk.ID, chunk.Text, string(tagsJSON), chunk.Timestamp, nullable(chunk.SessionID),
		nullable(chunk.SourceEventID), nullable(chunk.SourceType), metaJSON, embeddingBlob)
	if err != nil {
		return memtypes.SemanticChunk{}, memtypes.Wrap(memtypes.KindDatabase, "semanticstore.Add", err)
	}

	return chunk, nil
}

// Get retrieves a chunk by id, loading its embedding lazily (it is always
// stored inline in this implementation, so "lazily" here means "only
// decoded if present", matching spec.md §4.4 get semantics without a
// separate round trip).
func (s *Store) Get(ctx context.Context, id string) (memtypes.SemanticChunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, text, tags, timestamp, session_id, source_event_id, source_type, metadata, embedding
		FROM chunks WHERE id = ?
	`, id)
	chunk, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return memtypes.SemanticChunk{}, memtypes.Newf(memtypes.KindNotFound, "semanticstore.Get", "chunk %s not found", id)
	}
	if err != nil {
		return memtypes.SemanticChunk{}, memtypes.Wrap(memtypes.KindDatabase, "semanticstore.Get", err)
	}
	return chunk, nil
}

// Delete removes a chunk by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE id = ?`, id); err != nil {
		return memtypes.Wrap(memtypes.KindDatabase, "semanticstore.Delete", err)
	}
	return nil
}

// DeleteBySession removes every chunk tagged with sessionID.
func (s *Store) DeleteBySession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE session_id = ?`, sessionID); err != nil {
		return memtypes.Wrap(memtypes.KindDatabase, "semanticstore.DeleteBySession", err)
	}
	return nil
}

// Count returns the number of chunks, optionally scoped to a session.
func (s *Store) Count(ctx context.Context, sessionID string) (int, error) {
	var (
		n   int
		err error
	)
	if sessionID == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE session_id = ?`, sessionID).Scan(&n)
	}
	if err != nil {
		return 0, memtypes.Wrap(memtypes.KindDatabase, "semanticstore.Count", err)
	}
	return n, nil
}

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	return sqlstore.Open(ctx, path, schema)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func marshalMeta(m map[string]any) (string, error) {
	if m == nil {
		return "", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(b), nil
}
