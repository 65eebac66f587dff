// Package summarystore implements spec.md §4.3's immutable rolling-summary
// store. Grounded on the teacher's internal/memory summary-table handling,
// generalized to the richer Summary shape (decisions/todos/covered event
// ids) spec.md §3 describes.
package summarystore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/cliair-memcore/memcore/internal/sqlstore"
	"github.com/cliair-memcore/memcore/memtypes"
)

// Store is the SQLite-backed summary store.
type Store struct {
	db *sql.DB
}

// Open creates/opens the summary store at path.
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

// Add persists a new summary. Summaries are immutable once written, per
// spec.md §3.
func (s *Store) Add(ctx context.Context, input memtypes.SummaryInput) (memtypes.Summary, error) {
	if input.SessionID == "" {
		return memtypes.Summary{}, memtypes.Newf(memtypes.KindInvalid, "summarystore.Add", "session_id must not be empty")
	}
	if input.Short == "" {
		return memtypes.Summary{}, memtypes.Newf(memtypes.KindInvalid, "summarystore.Add", "short must not be empty")
	}

	sum := memtypes.Summary{
		ID:              memtypes.NewID(),
		Timestamp:       memtypes.NowMillis(),
		SessionID:       input.SessionID,
		Short:           input.Short,
		Bullets:         input.Bullets,
		Decisions:       input.Decisions,
		Todos:           input.Todos,
		CoveredEventIDs: memtypes.NewStringSet(input.CoveredEventIDs...),
		TokenCount:      input.TokenCount,
	}

	bulletsJSON, err := marshalOrNil(sum.Bullets, len(sum.Bullets) == 0)
	if err != nil {
		return memtypes.Summary{}, memtypes.Wrap(memtypes.KindInvalid, "summarystore.Add", err)
	}
	decisionsJSON, err := marshalOrNil(sum.Decisions, len(sum.Decisions) == 0)
	if err != nil {
		return memtypes.Summary{}, memtypes.Wrap(memtypes.KindInvalid, "summarystore.Add", err)
	}
	todosJSON, err := marshalOrNil(sum.Todos, len(sum.Todos) == 0)
	if err != nil {
		return memtypes.Summary{}, memtypes.Wrap(memtypes.KindInvalid, "summarystore.Add", err)
	}
	coveredJSON, err := json.Marshal(sum.CoveredEventIDs.Slice())
	if err != nil {
		return memtypes.Summary{}, memtypes.Wrap(memtypes.KindInvalid, "summarystore.Add", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO summaries (id, timestamp, session_id, short, bullets, decisions, todos, covered_event_ids, token_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sum.ID, sum.Timestamp, sum.SessionID, sum.Short, bulletsJSON, decisionsJSON, todosJSON, string(coveredJSON), sqlstore.NullIfZero(int64(sum.TokenCount)))
	if err != nil {
		return memtypes.Summary{}, memtypes.Wrap(memtypes.KindDatabase, "summarystore.Add", err)
	}
	return sum, nil
}

// Get retrieves a summary by id.
func (s *Store) Get(ctx context.Context, id string) (memtypes.Summary, error) {
	row := s.db.QueryRowContext(ctx, selectCols+` FROM summaries WHERE id = ?`, id)
	sum, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return memtypes.Summary{}, memtypes.Newf(memtypes.KindNotFound, "summarystore.Get", "summary %s not found", id)
	}
	if err != nil {
		return memtypes.Summary{}, memtypes.Wrap(memtypes.KindDatabase, "summarystore.Get", err)
	}
	return sum, nil
}

// GetLatest returns the most recent summary for a session.
func (s *Store) GetLatest(ctx context.Context, sessionID string) (memtypes.Summary, error) {
	row := s.db.QueryRowContext(ctx, selectCols+` FROM summaries WHERE session_id = ? ORDER BY timestamp DESC LIMIT 1`, sessionID)
	sum, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return memtypes.Summary{}, memtypes.Newf(memtypes.KindNotFound, "summarystore.GetLatest", "no summary for session %s", sessionID)
	}
	if err != nil {
		return memtypes.Summary{}, memtypes.Wrap(memtypes.KindDatabase, "summarystore.GetLatest", err)
	}
	return sum, nil
}

// List returns summaries matching the query, newest-first.
func (s *Store) List(ctx context.Context, q memtypes.SummaryQuery) ([]memtypes.Summary, error) {
	sqlQuery := selectCols + ` FROM summaries`
	var clauses []string
	var args []any
	if q.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, q.SessionID)
	}
	if q.Since > 0 {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, q.Since)
	}
	if len(clauses) > 0 {
		sqlQuery += " WHERE " + joinAnd(clauses)
	}
	sqlQuery += ` ORDER BY timestamp DESC`
	if q.Limit > 0 {
		sqlQuery += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "summarystore.List", err)
	}
	defer rows.Close()

	var out []memtypes.Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, memtypes.Wrap(memtypes.KindDatabase, "summarystore.List", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func joinAnd(clauses []string) string {
	out := clauses[0]
	for _, c := range clauses[1:] {
		out += " AND " + c
	}
	return out
}

func marshalOrNil(v any, empty bool) (any, error) {
	if empty {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
