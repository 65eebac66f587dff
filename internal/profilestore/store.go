// Package profilestore implements spec.md §4.3's user profile key/value
// store: upsert-on-key semantics, confidence/explicit/expiry bookkeeping.
// Whitelist enforcement is a policy-layer concern (spec.md §4.3: "whitelist
// check is a caller/policy concern, not the store's"), not implemented
// here. Grounded on the teacher's internal/memory profile/preferences
// table handling.
package profilestore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/cliair-memcore/memcore/internal/sqlstore"
	"github.com/cliair-memcore/memcore/memtypes"
)

// Store is the SQLite-backed profile store.
type Store struct {
	db *sql.DB
}

// Open creates/opens the profile store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlstore.Open(ctx, path, schema)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set upserts a profile item by key, stamping updated_at, per spec.md §4.3.
func (s *Store) Set(ctx context.Context, input memtypes.ProfileInput) (memtypes.ProfileItem, error) {
	if input.Key == "" {
		return memtypes.ProfileItem{}, memtypes.Newf(memtypes.KindInvalid, "profilestore.Set", "key must not be empty")
	}

	item := memtypes.ProfileItem{
		Key:           input.Key,
		Value:         input.Value,
		UpdatedAt:     memtypes.NowMillis(),
		Confidence:    input.Confidence,
		SourceEventID: input.SourceEventID,
		Explicit:      input.Explicit,
		ExpiresAt:     input.ExpiresAt,
	}

	valueJSON, err := json.Marshal(item.Value)
	if err != nil {
		return memtypes.ProfileItem{}, memtypes.Wrap(memtypes.KindInvalid, "profilestore.Set", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profile_items (key, value, updated_at, confidence, source_event_id, explicit, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at,
			confidence = excluded.confidence,
			source_event_id = excluded.source_event_id,
			explicit = excluded.explicit,
			expires_at = excluded.expires_at
	`, item.Key, string(valueJSON), item.UpdatedAt, item.Confidence,
		sqlstore.NullIfEmpty(item.SourceEventID), sqlstore.BoolToInt(item.Explicit), sqlstore.NullIfZero(item.ExpiresAt))
	if err != nil {
		return memtypes.ProfileItem{}, memtypes.Wrap(memtypes.KindDatabase, "profilestore.Set", err)
	}
	return item, nil
}

// Get retrieves a profile item by key.
func (s *Store) Get(ctx context.Context, key string) (memtypes.ProfileItem, error) {
	row := s.db.QueryRowContext(ctx, selectCols+` FROM profile_items WHERE key = ?`, key)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return memtypes.ProfileItem{}, memtypes.Newf(memtypes.KindNotFound, "profilestore.Get", "key %q not found", key)
	}
	if err != nil {
		return memtypes.ProfileItem{}, memtypes.Wrap(memtypes.KindDatabase, "profilestore.Get", err)
	}
	return item, nil
}

// GetAll returns every profile item.
func (s *Store) GetAll(ctx context.Context) ([]memtypes.ProfileItem, error) {
	rows, err := s.db.QueryContext(ctx, selectCols+` FROM profile_items ORDER BY key ASC`)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "profilestore.GetAll", err)
	}
	defer rows.Close()

	var out []memtypes.ProfileItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, memtypes.Wrap(memtypes.KindDatabase, "profilestore.GetAll", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Delete removes a profile item by key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profile_items WHERE key = ?`, key); err != nil {
		return memtypes.Wrap(memtypes.KindDatabase, "profilestore.Delete", err)
	}
	return nil
}

// Has reports whether key exists in the profile.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profile_items WHERE key = ?`, key).Scan(&n); err != nil {
		return false, memtypes.Wrap(memtypes.KindDatabase, "profilestore.Has", err)
	}
	return n > 0, nil
}

// GetBySourceEvent returns every profile item derived from eventID.
func (s *Store) GetBySourceEvent(ctx context.Context, eventID string) ([]memtypes.ProfileItem, error) {
	rows, err := s.db.QueryContext(ctx, selectCols+` FROM profile_items WHERE source_event_id = ?`, eventID)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "profilestore.GetBySourceEvent", err)
	}
	defer rows.Close()

	var out []memtypes.ProfileItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, memtypes.Wrap(memtypes.KindDatabase, "profilestore.GetBySourceEvent", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

const selectCols = `SELECT key, value, updated_at, confidence, source_event_id, explicit, expires_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(r rowScanner) (memtypes.ProfileItem, error) {
	var (
		item            memtypes.ProfileItem
		valueJSON       string
		sourceEventID   sql.NullString
		explicit        int
		expiresAt       sql.NullInt64
	)
	if err := r.Scan(&item.Key, &valueJSON, &item.UpdatedAt, &item.Confidence, &sourceEventID, &explicit, &expiresAt); err != nil {
		return memtypes.ProfileItem{}, err
	}
	_ = json.Unmarshal([]byte(valueJSON), &item.Value)
	item.SourceEventID = sourceEventID.String
	item.Explicit = sqlstore.IntToBool(explicit)
	item.ExpiresAt = expiresAt.Int64
	return item, nil
}
