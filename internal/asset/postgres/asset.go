package postgres

import (
	"context"
	"strings"

	"github.com/frahmantamala/asset-inventory/internal/asset"
	"github.com/frahmantamala/asset-inventory/internal/core/database"
	inventoryDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/inventory"
	"github.com/frahmantamala/asset-inventory/internal/lifecycle"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) asset.RepositoryAPI {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) List(ctx context.Context, filter asset.Filter) ([]*inventoryDatamodel.Asset, error) {
	q := r.db.WithContext(ctx).Where("is_deleted = ?", false)

	switch {
	case filter.AvailableOnly:
		q = q.Where("status = ?", string(lifecycle.StatusAvailable))
	case filter.Status != "":
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Query != "" {
		like := "%" + strings.ToLower(filter.Query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(asset_tag) LIKE ? OR LOWER(serial_number) LIKE ?", like, like, like)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var assets []*inventoryDatamodel.Asset
	err := q.Order("asset_tag ASC").Find(&assets).Error
	return assets, err
}

func (r *AssetRepository) GetByID(ctx context.Context, id int64) (*inventoryDatamodel.Asset, error) {
	var a inventoryDatamodel.Asset
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, asset.ErrAssetNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AssetRepository) Create(ctx context.Context, row *inventoryDatamodel.Asset, actorID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if row.LocationID != nil {
			if err := locationExists(tx, *row.LocationID); err != nil {
				return err
			}
		}
		if err := tx.Create(row).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return asset.ErrDuplicateTag
			}
			return err
		}
		return appendHistory(tx, row.ID, lifecycle.ActionCreate, actorID, "")
	})
	return err
}

func (r *AssetRepository) Update(ctx context.Context, id, actorID int64, m asset.Mutation) (*inventoryDatamodel.Asset, error) {
	var row inventoryDatamodel.Asset
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&row).Error
		if err != nil {
			if database.IsNotFound(err) {
				return asset.ErrAssetNotFound
			}
			return err
		}
		if row.IsDeleted {
			return lifecycle.ErrResourceDeleted
		}

		changes, err := m(&row)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		if loc, ok := changes["location_id"].(int64); ok {
			if err := locationExists(tx, loc); err != nil {
				return err
			}
		}

		if err := tx.Model(&inventoryDatamodel.Asset{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return err
		}
		return appendHistory(tx, id, lifecycle.ActionUpdate, actorID, asset.ChangedFields(changes))
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func locationExists(tx *gorm.DB, id int64) error {
	var count int64
	if err := tx.Model(&inventoryDatamodel.Location{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return lifecycle.ErrLocationNotFound
	}
	return nil
}

func appendHistory(tx *gorm.DB, assetID int64, action lifecycle.Action, actorID int64, notes string) error {
	return tx.Create(&inventoryDatamodel.AssignmentHistory{
		ResourceType: string(lifecycle.KindAsset),
		ResourceID:   assetID,
		Action:       string(action),
		ActorID:      actorID,
		Notes:        notes,
	}).Error
}
