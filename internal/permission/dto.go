package permission

import (
	"github.com/frahmantamala/asset-inventory/internal/core/common/validation"
)

type UpsertPermissionDTO struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

func (d UpsertPermissionDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("key", d.Key).Required().MaxLength(150)
	v.Field("description", d.Description).MaxLength(500)
	if err := v.Validate(); err != nil {
		return err
	}
	if !IsValidKey(d.Key) {
		return ErrInvalidKey
	}
	return nil
}

type CreateRoleDTO struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions,omitempty"`
}

func (d CreateRoleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MinLength(2).MaxLength(100)
	v.Field("description", d.Description).MaxLength(500)
	if err := v.Validate(); err != nil {
		return err
	}
	for _, k := range d.Permissions {
		if !IsValidKey(k) {
			return ErrInvalidKey
		}
	}
	return nil
}

type GrantPermissionDTO struct {
	Key string `json:"key"`
}

func (d GrantPermissionDTO) Validate() error {
	if !IsValidKey(d.Key) {
		return ErrInvalidKey
	}
	return nil
}

type AssignRoleDTO struct {
	RoleID int64 `json:"role_id"`
}

func (d AssignRoleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("role_id", d.RoleID).Required().PositiveID()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type AuthorizeResponse struct {
	PrincipalID int64    `json:"principal_id"`
	Keys        []string `json:"keys"`
	Allowed     bool     `json:"allowed"`
}
