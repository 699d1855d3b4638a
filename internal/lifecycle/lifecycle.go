// Package lifecycle moves assets and credentials between holders. Every
// state change runs in one store transaction together with the history row
// that records it.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/frahmantamala/asset-inventory/internal"
)

type ResourceKind string

const (
	KindAsset      ResourceKind = "asset"
	KindCredential ResourceKind = "credential"
)

type ResourceRef struct {
	Kind ResourceKind `json:"type"`
	ID   int64        `json:"id"`
}

func AssetRef(id int64) ResourceRef      { return ResourceRef{Kind: KindAsset, ID: id} }
func CredentialRef(id int64) ResourceRef { return ResourceRef{Kind: KindCredential, ID: id} }

func (r ResourceRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

type HolderType string

const (
	HolderUser     HolderType = "user"
	HolderAsset    HolderType = "asset"
	HolderLocation HolderType = "location"
)

func (t HolderType) Valid() bool {
	switch t {
	case HolderUser, HolderAsset, HolderLocation:
		return true
	}
	return false
}

type Holder struct {
	Type        HolderType `json:"type"`
	ID          int64      `json:"id"`
	DisplayName string     `json:"display_name,omitempty"`
}

// Same compares identity only; display names are presentation.
func (h Holder) Same(o Holder) bool {
	return h.Type == o.Type && h.ID == o.ID
}

func (h Holder) String() string {
	return fmt.Sprintf("%s:%d", h.Type, h.ID)
}

// Target names the checkout destination. Exactly one field is set.
type Target struct {
	UserID     *int64 `json:"user_id,omitempty"`
	AssetID    *int64 `json:"asset_id,omitempty"`
	LocationID *int64 `json:"location_id,omitempty"`
}

func (t Target) Holder() (Holder, error) {
	var (
		h   Holder
		set int
	)
	if t.UserID != nil {
		set++
		h = Holder{Type: HolderUser, ID: *t.UserID}
	}
	if t.AssetID != nil {
		set++
		h = Holder{Type: HolderAsset, ID: *t.AssetID}
	}
	if t.LocationID != nil {
		set++
		h = Holder{Type: HolderLocation, ID: *t.LocationID}
	}

	if set != 1 {
		return Holder{}, ErrInvalidTarget
	}
	if h.ID <= 0 {
		return Holder{}, ErrInvalidTarget.WithMessage(fmt.Sprintf("%s id must be positive", h.Type))
	}
	return h, nil
}

type Status string

const (
	StatusAvailable   Status = "available"
	StatusAssigned    Status = "assigned"
	StatusMaintenance Status = "maintenance"
	StatusRetired     Status = "retired"
	StatusLost        Status = "lost"
)

type Action string

const (
	ActionCheckout Action = "checkout"
	ActionCheckin  Action = "checkin"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
)

type HistoryEntry struct {
	ID           int64        `json:"id"`
	ResourceType ResourceKind `json:"resource_type"`
	ResourceID   int64        `json:"resource_id"`
	Action       Action       `json:"action"`
	ActorID      int64        `json:"actor_id"`
	TargetType   *HolderType  `json:"target_type,omitempty"`
	TargetID     *int64       `json:"target_id,omitempty"`
	Notes        string       `json:"notes,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

func NewHistoryEntry(ref ResourceRef, action Action, actorID int64, target *Holder, notes string) *HistoryEntry {
	e := &HistoryEntry{
		ResourceType: ref.Kind,
		ResourceID:   ref.ID,
		Action:       action,
		ActorID:      actorID,
		Notes:        notes,
	}
	if target != nil {
		t, id := target.Type, target.ID
		e.TargetType = &t
		e.TargetID = &id
	}
	return e
}

// Snapshot is the resource state returned to callers after a change.
type Snapshot struct {
	Ref     ResourceRef `json:"resource"`
	Status  Status      `json:"status"`
	Holders []Holder    `json:"holders"`
	Deleted bool        `json:"is_deleted"`
}

func SnapshotOf(a Assignable) Snapshot {
	holders := a.Holders()
	if holders == nil {
		holders = []Holder{}
	}
	return Snapshot{
		Ref:     a.Ref(),
		Status:  a.Status(),
		Holders: holders,
		Deleted: a.Deleted(),
	}
}

// ReturnState carries optional asset attributes applied on check-in.
type ReturnState struct {
	LocationID *int64  `json:"location_id,omitempty"`
	Condition  *string `json:"condition,omitempty"`
}

func (r ReturnState) IsZero() bool {
	return r.LocationID == nil && r.Condition == nil
}

var (
	ErrAssetNotFound      = internal.NewNotFoundError("asset not found", internal.ErrCodeAssetNotFound)
	ErrCredentialNotFound = internal.NewNotFoundError("credential not found", internal.ErrCodeCredentialNotFound)
	ErrHolderNotFound     = internal.NewNotFoundError("checkout target not found", internal.ErrCodeHolderNotFound)
	ErrLocationNotFound   = internal.NewNotFoundError("location not found", internal.ErrCodeLocationNotFound)

	ErrResourceDeleted = internal.NewConflictError("resource is deleted", internal.ErrCodeResourceDeleted)
	ErrAlreadyAssigned = internal.NewConflictError("resource is already checked out", internal.ErrCodeAlreadyAssigned)
	ErrNotAvailable    = internal.NewConflictError("resource is not available for checkout", internal.ErrCodeNotAvailable)
	ErrDuplicateHolder = internal.NewConflictError("holder already has this resource", internal.ErrCodeDuplicateHolder)
	ErrNotCheckedOut   = internal.NewConflictError("resource is not checked out", internal.ErrCodeNotCheckedOut)

	ErrInvalidTarget      = internal.NewValidationError("target must be exactly one of user_id, asset_id or location_id", internal.ErrCodeInvalidTarget)
	ErrSelfAssignment     = internal.NewValidationError("an asset cannot be checked out to itself", internal.ErrCodeInvalidTarget)
	ErrHolderNotAssigned  = internal.NewValidationError("selected holder does not hold this resource", internal.ErrCodeHolderNotAssigned)
	ErrReturnNotSupported = internal.NewValidationError("return attributes only apply to assets", internal.ErrCodeValidationFailed)
	ErrUnknownResource    = internal.NewValidationError("unknown resource type", internal.ErrCodeValidationFailed)
)

// NotFound returns the not-found error for the resource kind.
func NotFound(ref ResourceRef) *internal.AppError {
	if ref.Kind == KindCredential {
		return ErrCredentialNotFound
	}
	return ErrAssetNotFound
}
