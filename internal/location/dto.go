package location

import "github.com/frahmantamala/asset-inventory/internal/core/common/validation"

type CreateLocationDTO struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

func (d CreateLocationDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(150)
	v.Field("address", d.Address).MaxLength(500)
	v.Field("description", d.Description).MaxLength(1000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
