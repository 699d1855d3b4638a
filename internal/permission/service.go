package permission

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/asset-inventory/internal"
	userDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/user"
	"github.com/frahmantamala/asset-inventory/internal/core/events"
)

// Repository is the storage behind both resolution and grant administration.
// Grant and assignment writes are idempotent: repeating one is not an error.
type Repository interface {
	GrantRepository

	ListPermissions(ctx context.Context) ([]*userDatamodel.Permission, error)
	GetPermissionByKey(ctx context.Context, key string) (*userDatamodel.Permission, error)
	UpsertPermission(ctx context.Context, p *userDatamodel.Permission) error

	ListRoles(ctx context.Context) ([]*userDatamodel.Role, error)
	GetRole(ctx context.Context, id int64) (*userDatamodel.Role, error)
	GetRoleByName(ctx context.Context, name string) (*userDatamodel.Role, error)
	CreateRole(ctx context.Context, r *userDatamodel.Role) error
	RoleKeys(ctx context.Context, roleID int64) ([]string, error)

	PrincipalExists(ctx context.Context, userID int64) (bool, error)

	// Transaction runs fn against a repository bound to one transaction.
	Transaction(ctx context.Context, fn func(repo Repository) error) error

	GrantRolePermission(ctx context.Context, roleID, permissionID int64) error
	RevokeRolePermission(ctx context.Context, roleID, permissionID int64) error
	AssignRole(ctx context.Context, userID, roleID int64, assignedBy *int64) error
	UnassignRole(ctx context.Context, userID, roleID int64) error
	GrantUserPermission(ctx context.Context, userID, permissionID int64, grantedBy *int64) error
	RevokeUserPermission(ctx context.Context, userID, permissionID int64) error
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) ListPermissions(ctx context.Context) ([]*Permission, error) {
	rows, err := s.repo.ListPermissions(ctx)
	if err != nil {
		s.logger.Error("failed to list permissions", "error", err)
		return nil, err
	}
	out := make([]*Permission, 0, len(rows))
	for _, p := range rows {
		out = append(out, PermissionFromDataModel(p))
	}
	return out, nil
}

// UpsertPermission creates the key or updates its description. The key itself never changes.
func (s *Service) UpsertPermission(ctx context.Context, actorID int64, dto UpsertPermissionDTO) (*Permission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	key, _ := ParseKey(dto.Key)

	var stored *userDatamodel.Permission
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		p := &userDatamodel.Permission{
			Key:         key.String(),
			Module:      key.Module,
			Description: strings.TrimSpace(dto.Description),
		}
		if err := repo.UpsertPermission(ctx, p); err != nil {
			return err
		}
		var err error
		stored, err = repo.GetPermissionByKey(ctx, p.Key)
		return err
	})
	if err != nil {
		s.logger.Error("failed to upsert permission", "error", err, "key", dto.Key)
		return nil, err
	}

	s.record(ctx, actorID, "permission.upsert", "permission", stored.ID, map[string]interface{}{"key": stored.Key})
	return PermissionFromDataModel(stored), nil
}

func (s *Service) ListRoles(ctx context.Context) ([]*Role, error) {
	rows, err := s.repo.ListRoles(ctx)
	if err != nil {
		s.logger.Error("failed to list roles", "error", err)
		return nil, err
	}
	out := make([]*Role, 0, len(rows))
	for _, r := range rows {
		keys, err := s.repo.RoleKeys(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, RoleFromDataModel(r, keys))
	}
	return out, nil
}

func (s *Service) GetRole(ctx context.Context, id int64) (*Role, error) {
	r, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	keys, err := s.repo.RoleKeys(ctx, id)
	if err != nil {
		return nil, err
	}
	return RoleFromDataModel(r, keys), nil
}

// CreateRole inserts the role and its grants in one transaction. Every key
// is resolved before anything is written.
func (s *Service) CreateRole(ctx context.Context, actorID int64, dto CreateRoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var roleID int64
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		permIDs, err := resolveKeys(ctx, repo, dto.Permissions)
		if err != nil {
			return err
		}
		r := &userDatamodel.Role{
			Name:        strings.TrimSpace(dto.Name),
			Description: strings.TrimSpace(dto.Description),
		}
		if err := repo.CreateRole(ctx, r); err != nil {
			return err
		}
		for _, pid := range permIDs {
			if err := repo.GrantRolePermission(ctx, r.ID, pid); err != nil {
				return err
			}
		}
		roleID = r.ID
		return nil
	})
	if err != nil {
		s.logFailure("failed to create role", err, "name", dto.Name)
		return nil, err
	}

	s.logger.Info("role created", "role_id", roleID, "name", dto.Name, "permissions", len(dto.Permissions))
	s.record(ctx, actorID, "role.create", "role", roleID, map[string]interface{}{"name": strings.TrimSpace(dto.Name)})
	return s.GetRole(ctx, roleID)
}

// EnsureRegistry upserts every key in Registry. Used by seeding; no
// activity is recorded.
func (s *Service) EnsureRegistry(ctx context.Context) error {
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		for _, d := range Registry {
			key, err := ParseKey(d.Key)
			if err != nil {
				return err
			}
			p := &userDatamodel.Permission{Key: key.String(), Module: key.Module, Description: d.Description}
			if err := repo.UpsertPermission(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to seed permission registry", "error", err)
	}
	return err
}

// EnsureRole creates the role when missing and grants every key in def.
// Running it twice leaves the same state.
func (s *Service) EnsureRole(ctx context.Context, def RoleDefinition) (*Role, error) {
	var roleID int64
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		permIDs, err := resolveKeys(ctx, repo, def.Keys)
		if err != nil {
			return err
		}
		r, err := repo.GetRoleByName(ctx, def.Name)
		if err != nil && !errors.Is(err, ErrRoleNotFound) {
			return err
		}
		if r == nil {
			r = &userDatamodel.Role{Name: def.Name, Description: def.Description}
			if err := repo.CreateRole(ctx, r); err != nil {
				return err
			}
		}
		for _, pid := range permIDs {
			if err := repo.GrantRolePermission(ctx, r.ID, pid); err != nil {
				return err
			}
		}
		roleID = r.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetRole(ctx, roleID)
}

func (s *Service) GrantRolePermission(ctx context.Context, actorID, roleID int64, key string) error {
	if !IsValidKey(key) {
		return ErrInvalidKey
	}
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		if _, err := repo.GetRole(ctx, roleID); err != nil {
			return err
		}
		p, err := repo.GetPermissionByKey(ctx, key)
		if err != nil {
			return err
		}
		return repo.GrantRolePermission(ctx, roleID, p.ID)
	})
	if err != nil {
		s.logFailure("failed to grant role permission", err, "role_id", roleID, "key", key)
		return err
	}
	s.record(ctx, actorID, "role.grant", "role", roleID, map[string]interface{}{"key": key})
	return nil
}

func (s *Service) RevokeRolePermission(ctx context.Context, actorID, roleID int64, key string) error {
	if !IsValidKey(key) {
		return ErrInvalidKey
	}
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		if _, err := repo.GetRole(ctx, roleID); err != nil {
			return err
		}
		p, err := repo.GetPermissionByKey(ctx, key)
		if err != nil {
			return err
		}
		return repo.RevokeRolePermission(ctx, roleID, p.ID)
	})
	if err != nil {
		s.logFailure("failed to revoke role permission", err, "role_id", roleID, "key", key)
		return err
	}
	s.record(ctx, actorID, "role.revoke", "role", roleID, map[string]interface{}{"key": key})
	return nil
}

func (s *Service) AssignRole(ctx context.Context, actorID, userID, roleID int64) error {
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		if err := requirePrincipal(ctx, repo, userID); err != nil {
			return err
		}
		if _, err := repo.GetRole(ctx, roleID); err != nil {
			return err
		}
		return repo.AssignRole(ctx, userID, roleID, actorRef(actorID))
	})
	if err != nil {
		s.logFailure("failed to assign role", err, "user_id", userID, "role_id", roleID)
		return err
	}
	s.record(ctx, actorID, "user.role.assign", "user", userID, map[string]interface{}{"role_id": roleID})
	return nil
}

func (s *Service) UnassignRole(ctx context.Context, actorID, userID, roleID int64) error {
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		if err := requirePrincipal(ctx, repo, userID); err != nil {
			return err
		}
		return repo.UnassignRole(ctx, userID, roleID)
	})
	if err != nil {
		s.logFailure("failed to unassign role", err, "user_id", userID, "role_id", roleID)
		return err
	}
	s.record(ctx, actorID, "user.role.unassign", "user", userID, map[string]interface{}{"role_id": roleID})
	return nil
}

func (s *Service) GrantUserPermission(ctx context.Context, actorID, userID int64, key string) error {
	if !IsValidKey(key) {
		return ErrInvalidKey
	}
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		if err := requirePrincipal(ctx, repo, userID); err != nil {
			return err
		}
		p, err := repo.GetPermissionByKey(ctx, key)
		if err != nil {
			return err
		}
		return repo.GrantUserPermission(ctx, userID, p.ID, actorRef(actorID))
	})
	if err != nil {
		s.logFailure("failed to grant user permission", err, "user_id", userID, "key", key)
		return err
	}
	s.record(ctx, actorID, "user.permission.grant", "user", userID, map[string]interface{}{"key": key})
	return nil
}

// RevokeUserPermission removes the direct grant only; the same key held
// through a role stays in effect.
func (s *Service) RevokeUserPermission(ctx context.Context, actorID, userID int64, key string) error {
	if !IsValidKey(key) {
		return ErrInvalidKey
	}
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		if err := requirePrincipal(ctx, repo, userID); err != nil {
			return err
		}
		p, err := repo.GetPermissionByKey(ctx, key)
		if err != nil {
			return err
		}
		return repo.RevokeUserPermission(ctx, userID, p.ID)
	})
	if err != nil {
		s.logFailure("failed to revoke user permission", err, "user_id", userID, "key", key)
		return err
	}
	s.record(ctx, actorID, "user.permission.revoke", "user", userID, map[string]interface{}{"key": key})
	return nil
}

// resolveKeys maps keys to permission ids, failing on the first unknown key.
func resolveKeys(ctx context.Context, repo Repository, keys []string) ([]int64, error) {
	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		p, err := repo.GetPermissionByKey(ctx, k)
		if err != nil {
			return nil, err
		}
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func requirePrincipal(ctx context.Context, repo Repository, userID int64) error {
	ok, err := repo.PrincipalExists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPrincipalNotFound
	}
	return nil
}

// logFailure keeps expected domain errors out of the error log.
func (s *Service) logFailure(msg string, err error, args ...any) {
	if _, ok := internal.IsAppError(err); ok {
		return
	}
	s.logger.Error(msg, append([]any{"error", err}, args...)...)
}

func (s *Service) record(ctx context.Context, actorID int64, action, entityType string, entityID int64, details map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	ev := events.NewActivityEvent(actorID, action, "admin", entityType, entityID, details)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish activity", "error", err, "action", action)
	}
}

func actorRef(actorID int64) *int64 {
	if actorID <= 0 {
		return nil
	}
	return &actorID
}
