package postgres

import (
	"context"

	"github.com/frahmantamala/asset-inventory/internal/core/database"
	inventoryDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/inventory"
	"github.com/frahmantamala/asset-inventory/internal/location"
	"gorm.io/gorm"
)

type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) location.RepositoryAPI {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) List(ctx context.Context, limit, offset int) ([]*inventoryDatamodel.Location, error) {
	var locations []*inventoryDatamodel.Location
	err := r.db.WithContext(ctx).Order("name ASC").Limit(limit).Offset(offset).Find(&locations).Error
	return locations, err
}

func (r *LocationRepository) GetByID(ctx context.Context, id int64) (*inventoryDatamodel.Location, error) {
	var loc inventoryDatamodel.Location
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&loc).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, location.ErrLocationNotFound
		}
		return nil, err
	}
	return &loc, nil
}

func (r *LocationRepository) Create(ctx context.Context, loc *inventoryDatamodel.Location) error {
	if err := r.db.WithContext(ctx).Create(loc).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return location.ErrDuplicateName
		}
		return err
	}
	return nil
}
