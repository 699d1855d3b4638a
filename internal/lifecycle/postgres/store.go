package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/core/database"
	inventoryDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/inventory"
	userDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/user"
	"github.com/frahmantamala/asset-inventory/internal/lifecycle"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

var _ lifecycle.Store = (*Store)(nil)

// InTx runs fn in one transaction with a single retry on serialization
// failures, deadlocks and unique violations.
func (s *Store) InTx(ctx context.Context, fn func(tx lifecycle.Tx) error) error {
	err := database.Transaction(ctx, s.db, func(gtx *gorm.DB) error {
		return fn(&tx{db: gtx})
	})
	if errors.Is(err, internal.ErrConcurrentUpdate) {
		s.logger.Warn("lifecycle transaction failed after retry", "error", err)
	}
	return err
}

func (s *Store) Load(ctx context.Context, ref lifecycle.ResourceRef) (lifecycle.Assignable, error) {
	return load(s.db.WithContext(ctx), ref, false)
}

func (s *Store) History(ctx context.Context, ref lifecycle.ResourceRef) ([]*lifecycle.HistoryEntry, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(modelFor(ref)).Where("id = ?", ref.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, lifecycle.NotFound(ref)
	}

	var rows []inventoryDatamodel.AssignmentHistory
	err := db.Where("resource_type = ? AND resource_id = ?", string(ref.Kind), ref.ID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*lifecycle.HistoryEntry, 0, len(rows))
	for i := range rows {
		out = append(out, historyFromDataModel(&rows[i]))
	}
	return out, nil
}

type tx struct {
	db *gorm.DB
}

func (t *tx) Lock(ref lifecycle.ResourceRef) (lifecycle.Assignable, error) {
	return load(t.db, ref, true)
}

func (t *tx) DescribeHolder(h lifecycle.Holder) (lifecycle.Holder, error) {
	switch h.Type {
	case lifecycle.HolderUser:
		var u userDatamodel.User
		err := t.db.Select("id", "name").
			Where("id = ? AND is_active = ? AND is_deleted = ?", h.ID, true, false).
			First(&u).Error
		if err != nil {
			return h, notFoundOr(err, lifecycle.ErrHolderNotFound)
		}
		h.DisplayName = u.Name

	case lifecycle.HolderAsset:
		var a inventoryDatamodel.Asset
		err := t.db.Select("id", "asset_tag", "name").
			Where("id = ? AND is_deleted = ?", h.ID, false).
			First(&a).Error
		if err != nil {
			return h, notFoundOr(err, lifecycle.ErrHolderNotFound)
		}
		h.DisplayName = assetDisplayName(&a)

	case lifecycle.HolderLocation:
		var l inventoryDatamodel.Location
		if err := t.db.Select("id", "name").Where("id = ?", h.ID).First(&l).Error; err != nil {
			return h, notFoundOr(err, lifecycle.ErrHolderNotFound)
		}
		h.DisplayName = l.Name

	default:
		return h, lifecycle.ErrInvalidTarget
	}
	return h, nil
}

func (t *tx) SaveHolders(a lifecycle.Assignable, change lifecycle.HolderChange) error {
	ref := a.Ref()
	switch ref.Kind {
	case lifecycle.KindAsset:
		updates := map[string]interface{}{
			"status":               string(a.Status()),
			"assigned_user_id":     nil,
			"assigned_asset_id":    nil,
			"assigned_location_id": nil,
		}
		for _, h := range a.Holders() {
			updates[holderColumn(h.Type)] = h.ID
		}
		return t.db.Model(&inventoryDatamodel.Asset{ID: ref.ID}).Updates(updates).Error

	case lifecycle.KindCredential:
		if change.Added != nil {
			row := &inventoryDatamodel.CredentialAssignment{
				CredentialID: ref.ID,
				HolderType:   string(change.Added.Type),
				HolderID:     change.Added.ID,
				AssignedBy:   change.ActorID,
			}
			if err := t.db.Create(row).Error; err != nil {
				return err
			}
		}
		if change.Removed != nil {
			err := t.db.Where("credential_id = ? AND holder_type = ? AND holder_id = ?",
				ref.ID, string(change.Removed.Type), change.Removed.ID).
				Delete(&inventoryDatamodel.CredentialAssignment{}).Error
			if err != nil {
				return err
			}
		}
		return t.db.Model(&inventoryDatamodel.Credential{ID: ref.ID}).
			Update("status", string(a.Status())).Error
	}
	return lifecycle.ErrUnknownResource
}

func (t *tx) SetDeleted(ref lifecycle.ResourceRef, deleted bool) error {
	return t.db.Model(modelFor(ref)).Where("id = ?", ref.ID).Update("is_deleted", deleted).Error
}

func (t *tx) ApplyReturn(ref lifecycle.ResourceRef, state lifecycle.ReturnState) error {
	if ref.Kind != lifecycle.KindAsset {
		return lifecycle.ErrReturnNotSupported
	}
	updates := map[string]interface{}{}
	if state.LocationID != nil {
		updates["location_id"] = *state.LocationID
	}
	if state.Condition != nil {
		updates["condition"] = *state.Condition
	}
	if len(updates) == 0 {
		return nil
	}
	return t.db.Model(&inventoryDatamodel.Asset{ID: ref.ID}).Updates(updates).Error
}

func (t *tx) AppendHistory(entry *lifecycle.HistoryEntry) error {
	row := historyToDataModel(entry)
	if err := t.db.Create(row).Error; err != nil {
		return err
	}
	entry.ID = row.ID
	entry.CreatedAt = row.CreatedAt
	return nil
}

func load(db *gorm.DB, ref lifecycle.ResourceRef, forUpdate bool) (lifecycle.Assignable, error) {
	q := db
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	switch ref.Kind {
	case lifecycle.KindAsset:
		var row inventoryDatamodel.Asset
		if err := q.Where("id = ?", ref.ID).First(&row).Error; err != nil {
			return nil, notFoundOr(err, lifecycle.ErrAssetNotFound)
		}
		holder, err := assetHolder(db, &row)
		if err != nil {
			return nil, err
		}
		return lifecycle.NewExclusiveSlot(row.ID, lifecycle.Status(row.Status), row.IsDeleted, holder), nil

	case lifecycle.KindCredential:
		var row inventoryDatamodel.Credential
		if err := q.Where("id = ?", ref.ID).First(&row).Error; err != nil {
			return nil, notFoundOr(err, lifecycle.ErrCredentialNotFound)
		}
		holders, err := credentialHolders(db, row.ID)
		if err != nil {
			return nil, err
		}
		return lifecycle.NewHolderSet(row.ID, lifecycle.Status(row.Status), row.IsDeleted, holders), nil
	}
	return nil, lifecycle.ErrUnknownResource
}

func assetHolder(db *gorm.DB, row *inventoryDatamodel.Asset) (*lifecycle.Holder, error) {
	var h *lifecycle.Holder
	switch {
	case row.AssignedUserID != nil:
		h = &lifecycle.Holder{Type: lifecycle.HolderUser, ID: *row.AssignedUserID}
	case row.AssignedAssetID != nil:
		h = &lifecycle.Holder{Type: lifecycle.HolderAsset, ID: *row.AssignedAssetID}
	case row.AssignedLocationID != nil:
		h = &lifecycle.Holder{Type: lifecycle.HolderLocation, ID: *row.AssignedLocationID}
	default:
		return nil, nil
	}

	names, err := displayNames(db, []lifecycle.Holder{*h})
	if err != nil {
		return nil, err
	}
	h.DisplayName = names[h.String()]
	return h, nil
}

func credentialHolders(db *gorm.DB, credentialID int64) ([]lifecycle.Holder, error) {
	var rows []inventoryDatamodel.CredentialAssignment
	err := db.Where("credential_id = ?", credentialID).
		Order("assigned_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	holders := make([]lifecycle.Holder, 0, len(rows))
	for _, r := range rows {
		holders = append(holders, lifecycle.Holder{Type: lifecycle.HolderType(r.HolderType), ID: r.HolderID})
	}

	names, err := displayNames(db, holders)
	if err != nil {
		return nil, err
	}
	for i := range holders {
		holders[i].DisplayName = names[holders[i].String()]
	}
	return holders, nil
}

// displayNames looks names up regardless of active or deleted flags, so a
// holder that was deactivated after checkout still shows up by name.
func displayNames(db *gorm.DB, holders []lifecycle.Holder) (map[string]string, error) {
	ids := map[lifecycle.HolderType][]int64{}
	for _, h := range holders {
		ids[h.Type] = append(ids[h.Type], h.ID)
	}
	names := make(map[string]string, len(holders))

	if userIDs := ids[lifecycle.HolderUser]; len(userIDs) > 0 {
		var users []userDatamodel.User
		if err := db.Select("id", "name").Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			names[lifecycle.Holder{Type: lifecycle.HolderUser, ID: u.ID}.String()] = u.Name
		}
	}
	if assetIDs := ids[lifecycle.HolderAsset]; len(assetIDs) > 0 {
		var assets []inventoryDatamodel.Asset
		if err := db.Select("id", "asset_tag", "name").Where("id IN ?", assetIDs).Find(&assets).Error; err != nil {
			return nil, err
		}
		for i := range assets {
			names[lifecycle.Holder{Type: lifecycle.HolderAsset, ID: assets[i].ID}.String()] = assetDisplayName(&assets[i])
		}
	}
	if locationIDs := ids[lifecycle.HolderLocation]; len(locationIDs) > 0 {
		var locations []inventoryDatamodel.Location
		if err := db.Select("id", "name").Where("id IN ?", locationIDs).Find(&locations).Error; err != nil {
			return nil, err
		}
		for _, l := range locations {
			names[lifecycle.Holder{Type: lifecycle.HolderLocation, ID: l.ID}.String()] = l.Name
		}
	}
	return names, nil
}

func assetDisplayName(a *inventoryDatamodel.Asset) string {
	if a.AssetTag == "" {
		return a.Name
	}
	return a.Name + " (" + a.AssetTag + ")"
}

func holderColumn(t lifecycle.HolderType) string {
	switch t {
	case lifecycle.HolderAsset:
		return "assigned_asset_id"
	case lifecycle.HolderLocation:
		return "assigned_location_id"
	default:
		return "assigned_user_id"
	}
}

func modelFor(ref lifecycle.ResourceRef) interface{} {
	if ref.Kind == lifecycle.KindCredential {
		return &inventoryDatamodel.Credential{}
	}
	return &inventoryDatamodel.Asset{}
}

func notFoundOr(err error, notFound *internal.AppError) error {
	if database.IsNotFound(err) {
		return notFound
	}
	return err
}

func historyToDataModel(e *lifecycle.HistoryEntry) *inventoryDatamodel.AssignmentHistory {
	row := &inventoryDatamodel.AssignmentHistory{
		ResourceType: string(e.ResourceType),
		ResourceID:   e.ResourceID,
		Action:       string(e.Action),
		ActorID:      e.ActorID,
		TargetID:     e.TargetID,
		Notes:        e.Notes,
	}
	if e.TargetType != nil {
		t := string(*e.TargetType)
		row.TargetType = &t
	}
	return row
}

func historyFromDataModel(row *inventoryDatamodel.AssignmentHistory) *lifecycle.HistoryEntry {
	e := &lifecycle.HistoryEntry{
		ID:           row.ID,
		ResourceType: lifecycle.ResourceKind(row.ResourceType),
		ResourceID:   row.ResourceID,
		Action:       lifecycle.Action(row.Action),
		ActorID:      row.ActorID,
		TargetID:     row.TargetID,
		Notes:        row.Notes,
		CreatedAt:    row.CreatedAt,
	}
	if row.TargetType != nil {
		t := lifecycle.HolderType(*row.TargetType)
		e.TargetType = &t
	}
	return e
}
