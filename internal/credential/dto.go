package credential

import (
	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/core/common/validation"
)

type CreateCredentialDTO struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Username string `json:"username"`
	URL      string `json:"url"`
	Secret   string `json:"secret"`
	Notes    string `json:"notes"`
}

func (d CreateCredentialDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(200)
	v.Field("kind", d.Kind).Required().OneOf(Kinds...)
	v.Field("username", d.Username).MaxLength(200)
	v.Field("url", d.URL).MaxLength(500)
	v.Field("secret", d.Secret).MaxLength(4096)
	v.Field("notes", d.Notes).MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateCredentialDTO is a partial update. An empty Secret clears it.
type UpdateCredentialDTO struct {
	Name     *string `json:"name"`
	Kind     *string `json:"kind"`
	Username *string `json:"username"`
	URL      *string `json:"url"`
	Secret   *string `json:"secret"`
	Notes    *string `json:"notes"`
}

func (d UpdateCredentialDTO) IsEmpty() bool {
	return d.Name == nil && d.Kind == nil && d.Username == nil && d.URL == nil && d.Secret == nil && d.Notes == nil
}

func (d UpdateCredentialDTO) Validate() error {
	if d.IsEmpty() {
		return internal.NewValidationError("no fields to update", internal.ErrCodeValidationFailed)
	}

	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", d.Name).Required().MaxLength(200)
	}
	if d.Kind != nil {
		v.Field("kind", d.Kind).Required().OneOf(Kinds...)
	}
	v.Field("username", d.Username).MaxLength(200)
	v.Field("url", d.URL).MaxLength(500)
	v.Field("secret", d.Secret).MaxLength(4096)
	v.Field("notes", d.Notes).MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type CredentialsResponse struct {
	Credentials []*Credential `json:"credentials"`
	Limit       int           `json:"limit"`
	Offset      int           `json:"offset"`
}
