package permission

import (
	"sort"
	"strings"
	"time"

	"github.com/frahmantamala/asset-inventory/internal"
	userDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/user"
)

// Key is a parsed permission key of the form module.resource.action.
type Key struct {
	Module   string
	Resource string
	Action   string
}

func (k Key) String() string {
	return k.Module + "." + k.Resource + "." + k.Action
}

func ParseKey(raw string) (Key, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return Key{}, ErrInvalidKey
	}
	for _, p := range parts {
		if !validSegment(p) {
			return Key{}, ErrInvalidKey
		}
	}
	return Key{Module: parts[0], Resource: parts[1], Action: parts[2]}, nil
}

func IsValidKey(raw string) bool {
	_, err := ParseKey(raw)
	return err == nil
}

func validSegment(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case i > 0 && (r >= '0' && r <= '9' || r == '_'):
		default:
			return false
		}
	}
	return true
}

// KeySet is a set of permission keys.
type KeySet map[string]struct{}

func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

func (s KeySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Union merges role-granted and directly granted keys. Neither path can
// remove a key granted by the other.
func Union(roleKeys, directKeys []string) KeySet {
	s := make(KeySet, len(roleKeys)+len(directKeys))
	for _, k := range roleKeys {
		s[k] = struct{}{}
	}
	for _, k := range directKeys {
		s[k] = struct{}{}
	}
	return s
}

// Grants is the effective permission set of one principal.
type Grants struct {
	PrincipalID int64
	Active      bool
	Keys        KeySet
}

func (g *Grants) Allows(key string) bool {
	if g == nil || !g.Active {
		return false
	}
	return g.Keys.Has(key)
}

func (g *Grants) AllowsAny(keys ...string) bool {
	for _, k := range keys {
		if g.Allows(k) {
			return true
		}
	}
	return false
}

// PrincipalGrants is what the store returns: both grant paths kept apart.
type PrincipalGrants struct {
	PrincipalID int64
	Active      bool
	Deleted     bool
	RoleKeys    []string
	DirectKeys  []string
}

type Permission struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	Module      string    `json:"module"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func PermissionFromDataModel(p *userDatamodel.Permission) *Permission {
	return &Permission{
		ID:          p.ID,
		Key:         p.Key,
		Module:      p.Module,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func RoleFromDataModel(r *userDatamodel.Role, keys []string) *Role {
	if keys == nil {
		keys = []string{}
	}
	return &Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: keys,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

var (
	ErrInvalidKey          = internal.NewValidationError("permission key must look like module.resource.action", internal.ErrCodeInvalidKey)
	ErrPrincipalNotFound   = internal.NewNotFoundError("principal not found", internal.ErrCodeUserNotFound)
	ErrPermissionNotFound  = internal.NewNotFoundError("permission not found", internal.ErrCodePermissionNotFound)
	ErrRoleNotFound        = internal.NewNotFoundError("role not found", internal.ErrCodeRoleNotFound)
	ErrDuplicateRole       = internal.NewConflictError("role name already exists", internal.ErrCodeDuplicateName)
	ErrMissingPrincipalCtx = internal.NewUnauthorizedError("unauthorized", internal.ErrCodeUnauthorizedAccess)
)
