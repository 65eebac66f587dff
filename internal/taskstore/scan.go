package taskstore

import (
	"database/sql"
	"encoding/json"

	"github.com/cliair-memcore/memcore/memtypes"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (memtypes.TaskState, error) {
	var (
		t                                                        memtypes.TaskState
		status                                                   string
		constraintsJSON, planJSON, doneJSON, blockedJSON         sql.NullString
		nextAction, sessionID, metaJSON                          sql.NullString
	)
	if err := r.Scan(&t.ID, &t.Goal, &status, &constraintsJSON, &planJSON, &doneJSON, &blockedJSON,
		&nextAction, &t.UpdatedAt, &t.Version, &sessionID, &metaJSON); err != nil {
		return memtypes.TaskState{}, err
	}

	t.Status = memtypes.TaskStatus(status)
	t.NextAction = nextAction.String
	t.SessionID = sessionID.String

	if constraintsJSON.Valid && constraintsJSON.String != "" {
		_ = json.Unmarshal([]byte(constraintsJSON.String), &t.Constraints)
	}
	if planJSON.Valid && planJSON.String != "" {
		_ = json.Unmarshal([]byte(planJSON.String), &t.Plan)
	}
	if doneJSON.Valid && doneJSON.String != "" {
		var ids []string
		_ = json.Unmarshal([]byte(doneJSON.String), &ids)
		t.Done = memtypes.NewStringSet(ids...)
	} else {
		t.Done = memtypes.NewStringSet()
	}
	if blockedJSON.Valid && blockedJSON.String != "" {
		var ids []string
		_ = json.Unmarshal([]byte(blockedJSON.String), &ids)
		t.Blocked = memtypes.NewStringSet(ids...)
	} else {
		t.Blocked = memtypes.NewStringSet()
	}
	if metaJSON.Valid && metaJSON.String != "" {
		_ = json.Unmarshal([]byte(metaJSON.String), &t.Metadata)
	}

	return t, nil
}
