package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/frahmantamala/asset-inventory/internal/activity"
	activityDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/activity"
	"github.com/jmoiron/sqlx"
)

// ActivityRepository writes through sqlx on the pool shared with gorm.
type ActivityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

var _ activity.Repository = (*ActivityRepository)(nil)

const insertActivity = `INSERT INTO activity_logs
	(event_id, principal_id, action, module, entity_type, entity_id, details, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (event_id) DO NOTHING`

// Save is idempotent on event_id.
func (r *ActivityRepository) Save(ctx context.Context, row *activityDatamodel.ActivityLog) error {
	var details interface{}
	if row.Details != "" {
		details = row.Details
	}

	_, err := r.db.ExecContext(ctx, insertActivity,
		row.EventID,
		row.PrincipalID,
		row.Action,
		row.Module,
		row.EntityType,
		row.EntityID,
		details,
		row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) List(ctx context.Context, filter activity.Filter) ([]*activityDatamodel.ActivityLog, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.Module != "" {
		add("module = $%d", filter.Module)
	}
	if filter.EntityType != "" {
		add("entity_type = $%d", filter.EntityType)
	}
	if filter.EntityID > 0 {
		add("entity_id = $%d", filter.EntityID)
	}
	if filter.PrincipalID > 0 {
		add("principal_id = $%d", filter.PrincipalID)
	}

	query := `SELECT id, event_id, principal_id, action, module, entity_type, entity_id,
		COALESCE(details::text, '') AS details, created_at
		FROM activity_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var rows []*activityDatamodel.ActivityLog
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return rows, nil
}
