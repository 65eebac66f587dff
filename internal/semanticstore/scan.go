package semanticstore

import (
	"database/sql"
	"encoding/json"

	"github.com/cliair-memcore/memcore/memtypes"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanChunkWithRank scans a chunk row that carries one trailing extra
// column (e.g. bm25 rank) into rankDest.
func scanChunkWithRank(r rowScanner, rankDest *float64) (memtypes.SemanticChunk, error) {
	var (
		chunk                                                    memtypes.SemanticChunk
		tagsJSON, sessionID, sourceEventID, sourceType, metaJSON sql.NullString
		embeddingBlob                                            []byte
	)
	if err := r.Scan(&chunk.ID, &chunk.Text, &tagsJSON, &chunk.Timestamp,
		&sessionID, &sourceEventID, &sourceType, &metaJSON, &embeddingBlob, rankDest); err != nil {
		return memtypes.SemanticChunk{}, err
	}
	chunk.SessionID = sessionID.String
	chunk.SourceEventID = sourceEventID.String
	chunk.SourceType = sourceType.String
	if tagsJSON.Valid && tagsJSON.String != "" {
		var tags []string
		_ = json.Unmarshal([]byte(tagsJSON.String), &tags)
		chunk.Tags = memtypes.NewStringSet(tags...)
	}
	if metaJSON.Valid && metaJSON.String != "" {
		_ = json.Unmarshal([]byte(metaJSON.String), &chunk.Metadata)
	}
	if len(embeddingBlob) > 0 {
		chunk.Embedding = decodeEmbedding(embeddingBlob)
	}
	return chunk, nil
}

func scanChunk(r rowScanner) (memtypes.SemanticChunk, error) {
	var (
		chunk                                      memtypes.SemanticChunk
		tagsJSON, sessionID, sourceEventID, sourceType, metaJSON sql.NullString
		embeddingBlob                               []byte
	)
	if err := r.Scan(&chunk.ID, &chunk.Text, &tagsJSON, &chunk.Timestamp,
		&sessionID, &sourceEventID, &sourceType, &metaJSON, &embeddingBlob); err != nil {
		return memtypes.SemanticChunk{}, err
	}

	chunk.SessionID = sessionID.String
	chunk.SourceEventID = sourceEventID.String
	chunk.SourceType = sourceType.String

	if tagsJSON.Valid && tagsJSON.String != "" {
		var tags []string
		_ = json.Unmarshal([]byte(tagsJSON.String), &tags)
		chunk.Tags = memtypes.NewStringSet(tags...)
	}
	if metaJSON.Valid && metaJSON.String != "" {
		_ = json.Unmarshal([]byte(metaJSON.String), &chunk.Metadata)
	}
	if len(embeddingBlob) > 0 {
		chunk.Embedding = decodeEmbedding(embeddingBlob)
	}

	return chunk, nil
}
