package inventory

import "time"

type Location struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Address     string    `gorm:"column:address"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Location) TableName() string { return "locations" }

// Asset holds at most one of AssignedUserID, AssignedAssetID, AssignedLocationID.
type Asset struct {
	ID                 int64     `gorm:"primaryKey"`
	AssetTag           string    `gorm:"column:asset_tag;uniqueIndex;not null"`
	Name               string    `gorm:"column:name;not null"`
	Category           string    `gorm:"column:category"`
	SerialNumber       *string   `gorm:"column:serial_number"`
	Status             string    `gorm:"column:status;not null;default:available;index"`
	Condition          string    `gorm:"column:condition"`
	LocationID         *int64    `gorm:"column:location_id"`
	AssignedUserID     *int64    `gorm:"column:assigned_user_id"`
	AssignedAssetID    *int64    `gorm:"column:assigned_asset_id"`
	AssignedLocationID *int64    `gorm:"column:assigned_location_id"`
	Notes              string    `gorm:"column:notes"`
	IsDeleted          bool      `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Asset) TableName() string { return "assets" }

type Credential struct {
	ID               int64     `gorm:"primaryKey"`
	Name             string    `gorm:"column:name;not null"`
	Kind             string    `gorm:"column:kind;not null"`
	Username         string    `gorm:"column:username"`
	URL              string    `gorm:"column:url"`
	SecretCiphertext []byte    `gorm:"column:secret_ciphertext"`
	Status           string    `gorm:"column:status;not null;default:available;index"`
	Notes            string    `gorm:"column:notes"`
	IsDeleted        bool      `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Credential) TableName() string { return "credentials" }

type CredentialAssignment struct {
	ID           int64     `gorm:"primaryKey"`
	CredentialID int64     `gorm:"column:credential_id;not null;uniqueIndex:idx_credential_holder"`
	HolderType   string    `gorm:"column:holder_type;not null;uniqueIndex:idx_credential_holder"`
	HolderID     int64     `gorm:"column:holder_id;not null;uniqueIndex:idx_credential_holder"`
	AssignedBy   int64     `gorm:"column:assigned_by;not null"`
	AssignedAt   time.Time `gorm:"column:assigned_at;autoCreateTime"`
}

func (CredentialAssignment) TableName() string { return "credential_assignments" }

// AssignmentHistory rows are append-only.
type AssignmentHistory struct {
	ID           int64     `gorm:"primaryKey"`
	ResourceType string    `gorm:"column:resource_type;not null;index:idx_history_resource"`
	ResourceID   int64     `gorm:"column:resource_id;not null;index:idx_history_resource"`
	Action       string    `gorm:"column:action;not null"`
	ActorID      int64     `gorm:"column:actor_id;not null"`
	TargetType   *string   `gorm:"column:target_type"`
	TargetID     *int64    `gorm:"column:target_id"`
	Notes        string    `gorm:"column:notes"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (AssignmentHistory) TableName() string { return "assignment_history" }
