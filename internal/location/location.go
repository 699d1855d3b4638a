package location

import (
	"time"

	"github.com/frahmantamala/asset-inventory/internal"
	inventoryDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/inventory"
)

type Location struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrLocationNotFound = internal.NewNotFoundError("location not found", internal.ErrCodeLocationNotFound)
	ErrDuplicateName    = internal.NewConflictError("location name already exists", internal.ErrCodeDuplicateName)
)

func ToDataModel(l *Location) *inventoryDatamodel.Location {
	return &inventoryDatamodel.Location{
		ID:          l.ID,
		Name:        l.Name,
		Address:     l.Address,
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func FromDataModel(l *inventoryDatamodel.Location) *Location {
	return &Location{
		ID:          l.ID,
		Name:        l.Name,
		Address:     l.Address,
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}
