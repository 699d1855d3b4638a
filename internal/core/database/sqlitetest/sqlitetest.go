// Package sqlitetest opens in-memory sqlite databases with the full schema
// migrated. Only test code imports it.
package sqlitetest

import (
	"fmt"
	"sync/atomic"

	inventoryDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/inventory"
	userDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// Open returns a fresh database. Each call gets its own named shared-cache
// database so pooled connections see the same data.
func Open() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:inventory_test_%d?mode=memory&cache=shared", seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&userDatamodel.User{},
		&userDatamodel.Permission{},
		&userDatamodel.Role{},
		&userDatamodel.RolePermission{},
		&userDatamodel.UserRole{},
		&userDatamodel.UserPermission{},
		&inventoryDatamodel.Location{},
		&inventoryDatamodel.Asset{},
		&inventoryDatamodel.Credential{},
		&inventoryDatamodel.CredentialAssignment{},
		&inventoryDatamodel.AssignmentHistory{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// CreateUser inserts an active user and flips the flags afterwards, since
// gorm skips zero values that have a column default.
func CreateUser(db *gorm.DB, email, name string, active, deleted bool) (*userDatamodel.User, error) {
	u := &userDatamodel.User{Email: email, Name: name, PasswordHash: "x", IsActive: true}
	if err := db.Create(u).Error; err != nil {
		return nil, err
	}
	if !active || deleted {
		err := db.Model(u).Updates(map[string]interface{}{"is_active": active, "is_deleted": deleted}).Error
		if err != nil {
			return nil, err
		}
		u.IsActive = active
		u.IsDeleted = deleted
	}
	return u, nil
}
