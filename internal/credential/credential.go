package credential

import (
	"time"

	"github.com/frahmantamala/asset-inventory/internal"
	inventoryDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/inventory"
	"github.com/frahmantamala/asset-inventory/internal/lifecycle"
)

// Credential never carries its secret; see Service.Reveal.
type Credential struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Username  string    `json:"username,omitempty"`
	URL       string    `json:"url,omitempty"`
	Status    string    `json:"status"`
	HasSecret bool      `json:"has_secret"`
	Notes     string    `json:"notes,omitempty"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Secret struct {
	CredentialID int64  `json:"credential_id"`
	Username     string `json:"username,omitempty"`
	Secret       string `json:"secret"`
}

type Filter struct {
	AvailableOnly bool
	Query         string
	Limit         int
	Offset        int
}

var Kinds = []string{"account", "api_key", "license", "ssh_key", "certificate", "other"}

var (
	ErrCredentialNotFound = lifecycle.ErrCredentialNotFound
	ErrSecretUnavailable  = internal.NewNotFoundError("credential has no stored secret", internal.ErrCodeSecretUnavailable)
)

func FromDataModel(c *inventoryDatamodel.Credential) *Credential {
	return &Credential{
		ID:        c.ID,
		Name:      c.Name,
		Kind:      c.Kind,
		Username:  c.Username,
		URL:       c.URL,
		Status:    c.Status,
		HasSecret: len(c.SecretCiphertext) > 0,
		Notes:     c.Notes,
		IsDeleted: c.IsDeleted,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
