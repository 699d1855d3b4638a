package activity

import "time"

// ActivityLog is written through sqlx, so columns are mapped with db tags.
type ActivityLog struct {
	ID          int64     `db:"id"`
	EventID     string    `db:"event_id"`
	PrincipalID *int64    `db:"principal_id"`
	Action      string    `db:"action"`
	Module      string    `db:"module"`
	EntityType  string    `db:"entity_type"`
	EntityID    *int64    `db:"entity_id"`
	Details     string    `db:"details"`
	CreatedAt   time.Time `db:"created_at"`
}
