package postgres

import (
	"context"

	"github.com/frahmantamala/asset-inventory/internal/core/database"
	userDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/user"
	"github.com/frahmantamala/asset-inventory/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// List skips soft-deleted users.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("name ASC").Order("id ASC").
		Limit(limit).Offset(offset).
		Find(&users).Error
	return users, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return user.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.update(ctx, id, map[string]interface{}{"is_active": active})
}

func (r *UserRepository) SoftDelete(ctx context.Context, id int64) error {
	return r.update(ctx, id, map[string]interface{}{"is_deleted": true, "is_active": false})
}

func (r *UserRepository) update(ctx context.Context, id int64, changes map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}
