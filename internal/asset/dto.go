package asset

import (
	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/core/common/validation"
)

type CreateAssetDTO struct {
	AssetTag     string  `json:"asset_tag"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	SerialNumber *string `json:"serial_number"`
	Condition    string  `json:"condition"`
	LocationID   *int64  `json:"location_id"`
	Notes        string  `json:"notes"`
}

func (d CreateAssetDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("asset_tag", d.AssetTag).Required().MaxLength(64)
	v.Field("name", d.Name).Required().MaxLength(200)
	v.Field("category", d.Category).MaxLength(100)
	v.Field("serial_number", d.SerialNumber).MaxLength(128)
	v.Field("condition", d.Condition).MaxLength(50)
	v.Field("location_id", d.LocationID).PositiveID()
	v.Field("notes", d.Notes).MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateAssetDTO is a partial update; nil fields are left alone.
type UpdateAssetDTO struct {
	Name         *string `json:"name"`
	Category     *string `json:"category"`
	SerialNumber *string `json:"serial_number"`
	Condition    *string `json:"condition"`
	LocationID   *int64  `json:"location_id"`
	Status       *string `json:"status"`
	Notes        *string `json:"notes"`
}

func (d UpdateAssetDTO) IsEmpty() bool {
	return d.Name == nil && d.Category == nil && d.SerialNumber == nil && d.Condition == nil &&
		d.LocationID == nil && d.Status == nil && d.Notes == nil
}

func (d UpdateAssetDTO) Validate() error {
	if d.IsEmpty() {
		return internal.NewValidationError("no fields to update", internal.ErrCodeValidationFailed)
	}
	if d.Status != nil && !contains(manualStatuses, *d.Status) {
		return ErrInvalidStatus
	}

	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", d.Name).Required().MaxLength(200)
	}
	v.Field("category", d.Category).MaxLength(100)
	v.Field("serial_number", d.SerialNumber).MaxLength(128)
	v.Field("condition", d.Condition).MaxLength(50)
	v.Field("location_id", d.LocationID).PositiveID()
	v.Field("notes", d.Notes).MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type AssetsResponse struct {
	Assets []*Asset `json:"assets"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}
