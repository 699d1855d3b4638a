package user

import "time"

type User struct {
	ID           int64     `gorm:"primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Department   string    `gorm:"column:department"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true"`
	IsDeleted    bool      `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

type Permission struct {
	ID          int64     `gorm:"primaryKey"`
	Key         string    `gorm:"column:key;uniqueIndex;not null"`
	Module      string    `gorm:"column:module;index;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Permission) TableName() string { return "permissions" }

type Role struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string { return "roles" }

type RolePermission struct {
	ID           int64     `gorm:"primaryKey"`
	RoleID       int64     `gorm:"column:role_id;not null;uniqueIndex:idx_role_permission"`
	PermissionID int64     `gorm:"column:permission_id;not null;uniqueIndex:idx_role_permission"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RolePermission) TableName() string { return "role_permissions" }

type UserRole struct {
	ID         int64     `gorm:"primaryKey"`
	UserID     int64     `gorm:"column:user_id;not null;uniqueIndex:idx_user_role"`
	RoleID     int64     `gorm:"column:role_id;not null;uniqueIndex:idx_user_role"`
	AssignedBy *int64    `gorm:"column:assigned_by"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UserRole) TableName() string { return "user_roles" }

type UserPermission struct {
	ID           int64     `gorm:"primaryKey"`
	UserID       int64     `gorm:"column:user_id;not null;uniqueIndex:idx_user_permission"`
	PermissionID int64     `gorm:"column:permission_id;not null;uniqueIndex:idx_user_permission"`
	GrantedBy    *int64    `gorm:"column:granted_by"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UserPermission) TableName() string { return "user_permissions" }
