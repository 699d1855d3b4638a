package postgres

import (
	"context"

	"github.com/frahmantamala/asset-inventory/internal/core/database"
	userDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/user"
	"github.com/frahmantamala/asset-inventory/internal/permission"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

var _ permission.Repository = (*PermissionRepository)(nil)

// Transaction hands fn a repository bound to one database transaction.
func (r *PermissionRepository) Transaction(ctx context.Context, fn func(repo permission.Repository) error) error {
	return database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		return fn(&PermissionRepository{db: tx})
	})
}

// LoadGrants reads the two grant paths as separate key lists; the union is
// computed by the caller.
func (r *PermissionRepository) LoadGrants(ctx context.Context, principalID int64) (*permission.PrincipalGrants, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Select("id", "is_active", "is_deleted").Where("id = ?", principalID).First(&u).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, permission.ErrPrincipalNotFound
		}
		return nil, err
	}

	pg := &permission.PrincipalGrants{
		PrincipalID: u.ID,
		Active:      u.IsActive,
		Deleted:     u.IsDeleted,
	}
	if !u.IsActive || u.IsDeleted {
		return pg, nil
	}

	roleQuery := `SELECT DISTINCT p.key
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = ?`
	if err := r.db.WithContext(ctx).Raw(roleQuery, principalID).Scan(&pg.RoleKeys).Error; err != nil {
		return nil, err
	}

	directQuery := `SELECT p.key
		FROM permissions p
		JOIN user_permissions up ON up.permission_id = p.id
		WHERE up.user_id = ?`
	if err := r.db.WithContext(ctx).Raw(directQuery, principalID).Scan(&pg.DirectKeys).Error; err != nil {
		return nil, err
	}

	return pg, nil
}

func (r *PermissionRepository) ListPermissions(ctx context.Context) ([]*userDatamodel.Permission, error) {
	var perms []*userDatamodel.Permission
	err := r.db.WithContext(ctx).Order("module ASC, key ASC").Find(&perms).Error
	return perms, err
}

func (r *PermissionRepository) GetPermissionByKey(ctx context.Context, key string) (*userDatamodel.Permission, error) {
	var p userDatamodel.Permission
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&p).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, permission.ErrPermissionNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepository) UpsertPermission(ctx context.Context, p *userDatamodel.Permission) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "updated_at"}),
	}).Create(p).Error
}

func (r *PermissionRepository) ListRoles(ctx context.Context) ([]*userDatamodel.Role, error) {
	var roles []*userDatamodel.Role
	err := r.db.WithContext(ctx).Order("name ASC").Find(&roles).Error
	return roles, err
}

func (r *PermissionRepository) GetRole(ctx context.Context, id int64) (*userDatamodel.Role, error) {
	var role userDatamodel.Role
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&role).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, permission.ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *PermissionRepository) GetRoleByName(ctx context.Context, name string) (*userDatamodel.Role, error) {
	var role userDatamodel.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, permission.ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *PermissionRepository) CreateRole(ctx context.Context, role *userDatamodel.Role) error {
	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return permission.ErrDuplicateRole
		}
		return err
	}
	return nil
}

func (r *PermissionRepository) RoleKeys(ctx context.Context, roleID int64) ([]string, error) {
	var keys []string
	query := `SELECT p.key
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = ?
		ORDER BY p.key`
	err := r.db.WithContext(ctx).Raw(query, roleID).Scan(&keys).Error
	return keys, err
}

func (r *PermissionRepository) PrincipalExists(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ? AND is_deleted = ?", userID, false).
		Count(&count).Error
	return count > 0, err
}

func (r *PermissionRepository) GrantRolePermission(ctx context.Context, roleID, permissionID int64) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&userDatamodel.RolePermission{RoleID: roleID, PermissionID: permissionID}).Error
}

func (r *PermissionRepository) RevokeRolePermission(ctx context.Context, roleID, permissionID int64) error {
	return r.db.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&userDatamodel.RolePermission{}).Error
}

func (r *PermissionRepository) AssignRole(ctx context.Context, userID, roleID int64, assignedBy *int64) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&userDatamodel.UserRole{UserID: userID, RoleID: roleID, AssignedBy: assignedBy}).Error
}

func (r *PermissionRepository) UnassignRole(ctx context.Context, userID, roleID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&userDatamodel.UserRole{}).Error
}

func (r *PermissionRepository) GrantUserPermission(ctx context.Context, userID, permissionID int64, grantedBy *int64) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&userDatamodel.UserPermission{UserID: userID, PermissionID: permissionID, GrantedBy: grantedBy}).Error
}

func (r *PermissionRepository) RevokeUserPermission(ctx context.Context, userID, permissionID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND permission_id = ?", userID, permissionID).
		Delete(&userDatamodel.UserPermission{}).Error
}
