package user

import (
	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/core/common/validation"
)

type CreateUserDTO struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Password   string `json:"password"`
	Department string `json:"department"`
}

func (d CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email().MaxLength(254)
	v.Field("name", d.Name).Required().MaxLength(150)
	v.Field("password", d.Password).Required().MinLength(8).MaxLength(72)
	v.Field("department", d.Department).MaxLength(100)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateStatusDTO struct {
	IsActive *bool `json:"is_active"`
}

func (d UpdateStatusDTO) Validate() error {
	if d.IsActive == nil {
		return internal.NewValidationFieldError("is_active", "is_active is required", internal.ErrCodeValidationFailed)
	}
	return nil
}
