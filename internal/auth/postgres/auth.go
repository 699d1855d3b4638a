package postgres

import (
	"context"

	"github.com/frahmantamala/asset-inventory/internal/core/database"
	userDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	return r.first(ctx, "LOWER(email) = ?", email)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) first(ctx context.Context, query string, arg interface{}) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
