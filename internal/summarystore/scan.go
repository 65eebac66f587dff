package summarystore

import (
	"database/sql"
	"encoding/json"

	"github.com/cliair-memcore/memcore/memtypes"
)

const selectCols = `SELECT id, timestamp, session_id, short, bullets, decisions, todos, covered_event_ids, token_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(r rowScanner) (memtypes.Summary, error) {
	var (
		sum                                                       memtypes.Summary
		bulletsJSON, decisionsJSON, todosJSON, coveredJSON sql.NullString
		tokenCount                                                sql.NullInt64
	)
	if err := r.Scan(&sum.ID, &sum.Timestamp, &sum.SessionID, &sum.Short,
		&bulletsJSON, &decisionsJSON, &todosJSON, &coveredJSON, &tokenCount); err != nil {
		return memtypes.Summary{}, err
	}

	if bulletsJSON.Valid && bulletsJSON.String != "" {
		_ = json.Unmarshal([]byte(bulletsJSON.String), &sum.Bullets)
	}
	if decisionsJSON.Valid && decisionsJSON.String != "" {
		_ = json.Unmarshal([]byte(decisionsJSON.String), &sum.Decisions)
	}
	if todosJSON.Valid && todosJSON.String != "" {
		_ = json.Unmarshal([]byte(todosJSON.String), &sum.Todos)
	}
	if coveredJSON.Valid && coveredJSON.String != "" {
		var ids []string
		_ = json.Unmarshal([]byte(coveredJSON.String), &ids)
		sum.CoveredEventIDs = memtypes.NewStringSet(ids...)
	} else {
		sum.CoveredEventIDs = memtypes.NewStringSet()
	}
	sum.TokenCount = int(tokenCount.Int64)

	return sum, nil
}
