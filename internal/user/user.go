package user

import (
	"time"

	"github.com/frahmantamala/asset-inventory/internal"
	userDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/user"
)

// User is a principal as seen by the API. The password hash never leaves
// the repository layer.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Department  string    `json:"department,omitempty"`
	IsActive    bool      `json:"is_active"`
	IsDeleted   bool      `json:"is_deleted"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrNotFound       = internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	ErrDuplicateEmail = internal.NewConflictError("email is already registered", internal.ErrCodeDuplicateName)
	ErrSelfChange     = internal.NewValidationError("you cannot deactivate or delete your own account", internal.ErrCodeInvalidTarget)
)

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Department: u.Department,
		IsActive:   u.IsActive,
		IsDeleted:  u.IsDeleted,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func FromDataModelWithPermissions(u *userDatamodel.User, permissions []string) *User {
	domainUser := FromDataModel(u)
	if permissions == nil {
		permissions = []string{}
	}
	domainUser.Permissions = permissions
	return domainUser
}
