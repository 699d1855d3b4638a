package lifecycle

type CheckoutDTO struct {
	UserID     *int64 `json:"user_id,omitempty"`
	AssetID    *int64 `json:"asset_id,omitempty"`
	LocationID *int64 `json:"location_id,omitempty"`
	Notes      string `json:"notes"`
}

func (d CheckoutDTO) Target() Target {
	return Target{UserID: d.UserID, AssetID: d.AssetID, LocationID: d.LocationID}
}

// CheckinDTO is the check-in body. Holder is only needed when the resource
// has more than one holder.
type CheckinDTO struct {
	Holder     *HolderSelection `json:"holder,omitempty"`
	LocationID *int64           `json:"location_id,omitempty"`
	Condition  *string          `json:"condition,omitempty"`
	Notes      string           `json:"notes"`
}

func (d CheckinDTO) Request() CheckinRequest {
	return CheckinRequest{
		Holder: d.Holder,
		Return: ReturnState{LocationID: d.LocationID, Condition: d.Condition},
		Notes:  d.Notes,
	}
}

type HoldersResponse struct {
	Holders []Holder `json:"holders"`
}
