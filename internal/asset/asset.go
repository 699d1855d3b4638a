package asset

import (
	"time"

	"github.com/frahmantamala/asset-inventory/internal"
	inventoryDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/inventory"
	"github.com/frahmantamala/asset-inventory/internal/lifecycle"
)

type Asset struct {
	ID                 int64     `json:"id"`
	AssetTag           string    `json:"asset_tag"`
	Name               string    `json:"name"`
	Category           string    `json:"category,omitempty"`
	SerialNumber       *string   `json:"serial_number,omitempty"`
	Status             string    `json:"status"`
	Condition          string    `json:"condition,omitempty"`
	LocationID         *int64    `json:"location_id,omitempty"`
	AssignedUserID     *int64    `json:"assigned_user_id,omitempty"`
	AssignedAssetID    *int64    `json:"assigned_asset_id,omitempty"`
	AssignedLocationID *int64    `json:"assigned_location_id,omitempty"`
	Notes              string    `json:"notes,omitempty"`
	IsDeleted          bool      `json:"is_deleted"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Held reports whether any holder column is set.
func (a *Asset) Held() bool {
	return a.AssignedUserID != nil || a.AssignedAssetID != nil || a.AssignedLocationID != nil
}

// Filter narrows List. Deleted assets are never listed.
type Filter struct {
	Status        string
	AvailableOnly bool
	Query         string
	Limit         int
	Offset        int
}

// administrative statuses an unheld asset may be moved between
var manualStatuses = []string{
	string(lifecycle.StatusAvailable),
	string(lifecycle.StatusMaintenance),
	string(lifecycle.StatusRetired),
	string(lifecycle.StatusLost),
}

var listableStatuses = append([]string{string(lifecycle.StatusAssigned)}, manualStatuses...)

var (
	ErrAssetNotFound  = lifecycle.ErrAssetNotFound
	ErrDuplicateTag   = internal.NewConflictError("asset tag already exists", internal.ErrCodeDuplicateName)
	ErrStatusWhenHeld = internal.NewConflictError("status cannot change while the asset is checked out", internal.ErrCodeAlreadyAssigned)
	ErrInvalidStatus  = internal.NewValidationFieldError("status", "status must be one of: available, maintenance, retired, lost", internal.ErrCodeInvalidStatus)
)

func FromDataModel(a *inventoryDatamodel.Asset) *Asset {
	return &Asset{
		ID:                 a.ID,
		AssetTag:           a.AssetTag,
		Name:               a.Name,
		Category:           a.Category,
		SerialNumber:       a.SerialNumber,
		Status:             a.Status,
		Condition:          a.Condition,
		LocationID:         a.LocationID,
		AssignedUserID:     a.AssignedUserID,
		AssignedAssetID:    a.AssignedAssetID,
		AssignedLocationID: a.AssignedLocationID,
		Notes:              a.Notes,
		IsDeleted:          a.IsDeleted,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}
