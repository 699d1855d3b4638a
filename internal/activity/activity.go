// Package activity keeps the passive activity log. Writes are best effort:
// entries are queued and dropped when the queue is full, and a failed write
// never reaches the request that caused it.
package activity

import (
	"encoding/json"
	"time"

	activityDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/activity"
	"github.com/frahmantamala/asset-inventory/internal/core/events"
)

type Entry struct {
	ID          int64           `json:"id"`
	EventID     string          `json:"event_id"`
	PrincipalID *int64          `json:"principal_id,omitempty"`
	Action      string          `json:"action"`
	Module      string          `json:"module"`
	EntityType  string          `json:"entity_type"`
	EntityID    *int64          `json:"entity_id,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Filter struct {
	Module      string
	EntityType  string
	EntityID    int64
	PrincipalID int64
	Limit       int
	Offset      int
}

func FromDataModel(row *activityDatamodel.ActivityLog) *Entry {
	e := &Entry{
		ID:          row.ID,
		EventID:     row.EventID,
		PrincipalID: row.PrincipalID,
		Action:      row.Action,
		Module:      row.Module,
		EntityType:  row.EntityType,
		EntityID:    row.EntityID,
		CreatedAt:   row.CreatedAt,
	}
	if row.Details != "" {
		e.Details = json.RawMessage(row.Details)
	}
	return e
}

// FromEvent builds the row for ev. Zero principal and entity ids are stored
// as NULL.
func FromEvent(ev *events.ActivityEvent) (*activityDatamodel.ActivityLog, error) {
	row := &activityDatamodel.ActivityLog{
		EventID:    ev.EventID(),
		Action:     ev.Action,
		Module:     ev.Module,
		EntityType: ev.EntityType,
		CreatedAt:  ev.OccurredAt().UTC(),
	}
	if ev.PrincipalID > 0 {
		id := ev.PrincipalID
		row.PrincipalID = &id
	}
	if ev.EntityID > 0 {
		id := ev.EntityID
		row.EntityID = &id
	}
	if len(ev.Details) > 0 {
		b, err := json.Marshal(ev.Details)
		if err != nil {
			return nil, err
		}
		row.Details = string(b)
	}
	return row, nil
}
