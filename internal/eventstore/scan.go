package eventstore

import (
	"database/sql"
	"encoding/json"

	"github.com/cliair-memcore/memcore/memtypes"
)

const selectCols = `SELECT id, timestamp, type, session_id, intent, summary, entities, links, payload, parent_id, tags`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(r rowScanner) (memtypes.Event, error) {
	var (
		ev                                            memtypes.Event
		typ                                            string
		sessionID, intent, parentID                    sql.NullString
		entitiesJSON, linksJSON, payloadJSON, tagsJSON sql.NullString
	)
	if err := r.Scan(&ev.ID, &ev.Timestamp, &typ, &sessionID, &intent, &ev.Summary,
		&entitiesJSON, &linksJSON, &payloadJSON, &parentID, &tagsJSON); err != nil {
		return memtypes.Event{}, err
	}

	ev.Type = memtypes.EventType(typ)
	ev.SessionID = sessionID.String
	ev.Intent = intent.String
	ev.ParentID = parentID.String

	if entitiesJSON.Valid && entitiesJSON.String != "" {
		_ = json.Unmarshal([]byte(entitiesJSON.String), &ev.Entities)
	}
	if linksJSON.Valid && linksJSON.String != "" {
		_ = json.Unmarshal([]byte(linksJSON.String), &ev.Links)
	}
	if payloadJSON.Valid && payloadJSON.String != "" {
		_ = json.Unmarshal([]byte(payloadJSON.String), &ev.Payload)
	}
	if tagsJSON.Valid && tagsJSON.String != "" {
		var tags []string
		_ = json.Unmarshal([]byte(tagsJSON.String), &tags)
		ev.Tags = memtypes.NewStringSet(tags...)
	}

	return ev, nil
}
