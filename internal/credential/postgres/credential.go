package postgres

import (
	"context"
	"strings"

	"github.com/frahmantamala/asset-inventory/internal/core/database"
	inventoryDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/inventory"
	"github.com/frahmantamala/asset-inventory/internal/credential"
	"github.com/frahmantamala/asset-inventory/internal/lifecycle"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CredentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) credential.RepositoryAPI {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) List(ctx context.Context, filter credential.Filter) ([]*inventoryDatamodel.Credential, error) {
	q := r.db.WithContext(ctx).Where("is_deleted = ?", false)
	if filter.AvailableOnly {
		q = q.Where("status = ?", string(lifecycle.StatusAvailable))
	}
	if filter.Query != "" {
		like := "%" + strings.ToLower(filter.Query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(username) LIKE ?", like, like)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var creds []*inventoryDatamodel.Credential
	err := q.Order("name ASC").Order("id ASC").Find(&creds).Error
	return creds, err
}

func (r *CredentialRepository) GetByID(ctx context.Context, id int64) (*inventoryDatamodel.Credential, error) {
	var c inventoryDatamodel.Credential
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, credential.ErrCredentialNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CredentialRepository) Create(ctx context.Context, row *inventoryDatamodel.Credential, actorID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return appendHistory(tx, row.ID, lifecycle.ActionCreate, actorID, "")
	})
}

func (r *CredentialRepository) Update(ctx context.Context, id, actorID int64, m credential.Mutation) (*inventoryDatamodel.Credential, error) {
	var row inventoryDatamodel.Credential
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&row).Error
		if err != nil {
			if database.IsNotFound(err) {
				return credential.ErrCredentialNotFound
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
		if err := tx.Model(&inventoryDatamodel.Credential{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return err
		}
		return appendHistory(tx, id, lifecycle.ActionUpdate, actorID, credential.ChangedFields(changes))
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func appendHistory(tx *gorm.DB, credentialID int64, action lifecycle.Action, actorID int64, notes string) error {
	return tx.Create(&inventoryDatamodel.AssignmentHistory{
		ResourceType: string(lifecycle.KindCredential),
		ResourceID:   credentialID,
		Action:       string(action),
		ActorID:      actorID,
		Notes:        notes,
	}).Error
}
