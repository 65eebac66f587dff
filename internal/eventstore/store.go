// Package eventstore implements spec.md §4.1: an append-only, immutable
// log of Events, queryable by session/type/time/tag. Grounded on the
// teacher's internal/memory operational event-logging path, generalized to
// the richer Event shape spec.md §3 describes.
package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cliair-memcore/memcore/internal/sqlstore"
	"github.com/cliair-memcore/memcore/memtypes"
)

// Store is the SQLite-backed event log.
type Store struct {
	db *sql.DB
}

// Open creates/opens the event store at path.
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

// Add persists a single event, assigning id and timestamp server-side, per
// spec.md §3 ("immutable after creation") and §8 ("add; get(E.id) returns a
// value equal to E except for server-assigned id and timestamp").
func (s *Store) Add(ctx context.Context, input memtypes.EventInput) (memtypes.Event, error) {
	events, err := s.AddBatch(ctx, []memtypes.EventInput{input})
	if err != nil {
		return memtypes.Event{}, err
	}
	return events[0], nil
}

// AddBatch inserts every input in one transaction, per spec.md §4.1
// ("batch inserts are atomic; a mid-batch serialization failure rolls back
// the whole batch").
func (s *Store) AddBatch(ctx context.Context, inputs []memtypes.EventInput) ([]memtypes.Event, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "eventstore.AddBatch", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (id, timestamp, type, session_id, intent, summary, entities, links, payload, parent_id, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "eventstore.AddBatch", err)
	}
	defer stmt.Close()

	tagStmt, err := tx.PrepareContext(ctx, `INSERT INTO event_tags (event_id, tag) VALUES (?, ?)`)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "eventstore.AddBatch", err)
	}
	defer tagStmt.Close()

	existsStmt, err := tx.PrepareContext(ctx, `SELECT 1 FROM events WHERE id = ?`)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "eventstore.AddBatch", err)
	}
	defer existsStmt.Close()

	events := make([]memtypes.Event, 0, len(inputs))
	for _, input := range inputs {
		if input.Summary == "" {
			return nil, memtypes.Newf(memtypes.KindInvalid, "eventstore.AddBatch", "summary must not be empty")
		}
		if len(input.Summary) > memtypes.MaxSummaryLen {
			return nil, memtypes.Newf(memtypes.KindInvalid, "eventstore.AddBatch",
				"summary exceeds %d characters", memtypes.MaxSummaryLen)
		}
		// parent_id, if present, must refer to an already-existing event
		// (spec.md §3) — ids are server-assigned, so a caller can never
		// reference a sibling from later in the same batch, only an event
		// committed by a prior call.
		if input.ParentID != "" {
			var one int
			if err := existsStmt.QueryRowContext(ctx, input.ParentID).Scan(&one); err == sql.ErrNoRows {
				return nil, memtypes.Newf(memtypes.KindInvalid, "eventstore.AddBatch",
					"parent_id %q does not refer to an existing event", input.ParentID)
			} else if err != nil {
				return nil, memtypes.Wrap(memtypes.KindDatabase, "eventstore.AddBatch", err)
			}
		}

		ev := memtypes.Event{
			ID:        memtypes.NewID(),
			Timestamp: memtypes.NowMillis(),
			Type:      input.Type,
			SessionID: input.SessionID,
			Intent:    input.Intent,
			Summary:   input.Summary,
			Entities:  input.Entities,
			Links:     input.Links,
			Payload:   input.Payload,
			ParentID:  input.ParentID,
			Tags:      memtypes.NewStringSet(input.Tags...),
		}

		entitiesJSON, err := marshalOrNil(ev.Entities)
		if err != nil {
			return nil, memtypes.Wrap(memtypes.KindInvalid, "eventstore.AddBatch", err)
		}
		linksJSON, err := marshalOrNil(ev.Links)
		if err != nil {
			return nil, memtypes.Wrap(memtypes.KindInvalid, "eventstore.AddBatch", err)
		}
		payloadJSON, err := marshalOrNil(ev.Payload)
		if err != nil {
			return nil, memtypes.Wrap(memtypes.KindInvalid, "eventstore.AddBatch", err)
		}
		tagsJSON, err := json.Marshal(ev.Tags.Slice())
		if err != nil {
			return nil, memtypes.Wrap(memtypes.KindInvalid, "eventstore.AddBatch", err)
		}

		if _, err := stmt.ExecContext(ctx, ev.ID, ev.Timestamp, string(ev.Type),
			sqlstore.NullIfEmpty(ev.SessionID), sqlstore.NullIfEmpty(ev.Intent), ev.Summary,
			entitiesJSON, linksJSON, payloadJSON, sqlstore.NullIfEmpty(ev.ParentID), string(tagsJSON)); err != nil {
			return nil, memtypes.Wrap(memtypes.KindDatabase, "eventstore.AddBatch", err)
		}

		for _, tag := range ev.Tags.Slice() {
			if _, err := tagStmt.ExecContext(ctx, ev.ID, tag); err != nil {
				return nil, memtypes.Wrap(memtypes.KindDatabase, "eventstore.AddBatch", err)
			}
		}

		events = append(events, ev)
	}

	if err := tx.Commit(); err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "eventstore.AddBatch", err)
	}
	return events, nil
}

// Get retrieves a single event by id.
func (s *Store) Get(ctx context.Context, id string) (memtypes.Event, error) {
	row := s.db.QueryRowContext(ctx, selectCols+` FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return memtypes.Event{}, memtypes.Newf(memtypes.KindNotFound, "eventstore.Get", "event %s not found", id)
	}
	if err != nil {
		return memtypes.Event{}, memtypes.Wrap(memtypes.KindDatabase, "eventstore.Get", err)
	}
	return ev, nil
}

// Query returns events matching filters, ordered by timestamp ascending
// (spec.md §4.1: "query is timestamp-ascending", distinguishing it from
// GetRecent's newest-first order).
func (s *Store) Query(ctx context.Context, q memtypes.EventQuery) ([]memtypes.Event, error) {
	clause, args := buildQueryClause(q)
	sqlQuery := selectCols + ` FROM events` + clause + ` ORDER BY timestamp ASC`
	if q.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", q.Limit)
		if q.Offset > 0 {
			sqlQuery += fmt.Sprintf(" OFFSET %d", q.Offset)
		}
	}
	return s.queryEvents(ctx, sqlQuery, args)
}

// GetRecent returns the limit most recent events for a session (or
// globally, if sessionID is empty), newest-first (spec.md §4.1).
func (s *Store) GetRecent(ctx context.Context, limit int, sessionID string) ([]memtypes.Event, error) {
	if limit <= 0 {
		limit = 10
	}
	sqlQuery := selectCols + ` FROM events`
	var args []any
	if sessionID != "" {
		sqlQuery += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	sqlQuery += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)
	return s.queryEvents(ctx, sqlQuery, args)
}

// Count returns the number of events matching the query's session/type/time/
// tag filters (limit/offset are ignored for counting purposes).
func (s *Store) Count(ctx context.Context, q memtypes.EventQuery) (int, error) {
	clause, args := buildQueryClause(q)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`+clause, args...).Scan(&n); err != nil {
		return 0, memtypes.Wrap(memtypes.KindDatabase, "eventstore.Count", err)
	}
	return n, nil
}

// Delete removes a single event by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return memtypes.Wrap(memtypes.KindDatabase, "eventstore.Delete", err)
	}
	return nil
}

// DeleteBatch removes multiple events by id in one transaction.
func (s *Store) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return memtypes.Wrap(memtypes.KindDatabase, "eventstore.DeleteBatch", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM events WHERE id = ?`)
	if err != nil {
		return memtypes.Wrap(memtypes.KindDatabase, "eventstore.DeleteBatch", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return memtypes.Wrap(memtypes.KindDatabase, "eventstore.DeleteBatch", err)
		}
	}
	return memtypes.Wrap(memtypes.KindDatabase, "eventstore.DeleteBatch", tx.Commit())
}

// DeleteBySession removes every event belonging to sessionID.
func (s *Store) DeleteBySession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE session_id = ?`, sessionID); err != nil {
		return memtypes.Wrap(memtypes.KindDatabase, "eventstore.DeleteBySession", err)
	}
	return nil
}

// DeleteBefore removes every event with timestamp strictly before cutoff.
func (s *Store) DeleteBefore(ctx context.Context, cutoff int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE timestamp < ?`, cutoff); err != nil {
		return memtypes.Wrap(memtypes.KindDatabase, "eventstore.DeleteBefore", err)
	}
	return nil
}

func (s *Store) queryEvents(ctx context.Context, sqlQuery string, args []any) ([]memtypes.Event, error) {
	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "eventstore.query", err)
	}
	defer rows.Close()

	var out []memtypes.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, memtypes.Wrap(memtypes.KindDatabase, "eventstore.query", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "eventstore.query", err)
	}
	return out, nil
}

func buildQueryClause(q memtypes.EventQuery) (string, []any) {
	var clauses []string
	var args []any

	if q.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, q.SessionID)
	}
	if len(q.Types) > 0 {
		placeholders := make([]string, len(q.Types))
		for i, t := range q.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		clauses = append(clauses, "type IN ("+strings.Join(placeholders, ", ")+")")
	}
	if q.Since > 0 {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, q.Since)
	}
	if q.Until > 0 {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, q.Until)
	}
	if len(q.Tags) > 0 {
		placeholders := make([]string, len(q.Tags))
		for i, tag := range q.Tags {
			placeholders[i] = "?"
			args = append(args, tag)
		}
		clauses = append(clauses, "id IN (SELECT event_id FROM event_tags WHERE tag IN ("+strings.Join(placeholders, ", ")+"))")
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func marshalOrNil(v any) (any, error) {
	switch t := v.(type) {
	case []memtypes.Entity:
		if len(t) == 0 {
			return nil, nil
		}
	case []memtypes.Link:
		if len(t) == 0 {
			return nil, nil
		}
	case map[string]any:
		if len(t) == 0 {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return string(b), nil
}
