package user

import (
	"context"
	"log/slog"
	"strings"

	userDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/user"
	"github.com/frahmantamala/asset-inventory/internal/core/events"
)

type Repository interface {
	List(ctx context.Context, limit, offset int) ([]*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	SetActive(ctx context.Context, id int64, active bool) error
	SoftDelete(ctx context.Context, id int64) error
}

// PermissionLister returns the effective permission keys of a principal.
type PermissionLister interface {
	EffectivePermissions(ctx context.Context, principalID int64) ([]string, error)
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service struct {
	repo        Repository
	permissions PermissionLister
	hasher      PasswordHasher
	publisher   events.Publisher
	logger      *slog.Logger
}

func NewService(repo Repository, permissions PermissionLister, hasher PasswordHasher, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		permissions: permissions,
		hasher:      hasher,
		publisher:   publisher,
		logger:      logger,
	}
}

// Me returns the caller's profile with the union of role and direct grants.
func (s *Service) Me(ctx context.Context, principalID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if u.IsDeleted {
		return nil, ErrNotFound
	}

	perms, err := s.permissions.EffectivePermissions(ctx, principalID)
	if err != nil {
		s.logger.Error("failed to resolve permissions", "error", err, "user_id", principalID)
		return nil, err
	}
	return FromDataModelWithPermissions(u, perms), nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, error) {
	rows, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, err
	}
	out := make([]*User, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, actorID int64, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, err
	}

	row := &userDatamodel.User{
		Email:        strings.ToLower(strings.TrimSpace(dto.Email)),
		Name:         strings.TrimSpace(dto.Name),
		Department:   strings.TrimSpace(dto.Department),
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", row.ID, "actor_id", actorID)
	s.publish(ctx, actorID, "user.create", row.ID, map[string]interface{}{"email": row.Email})
	return FromDataModel(row), nil
}

func (s *Service) SetStatus(ctx context.Context, actorID, id int64, dto UpdateStatusDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if id == actorID && !*dto.IsActive {
		return nil, ErrSelfChange
	}

	if err := s.repo.SetActive(ctx, id, *dto.IsActive); err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user status changed", "user_id", id, "is_active", u.IsActive, "actor_id", actorID)
	s.publish(ctx, actorID, "user.status", id, map[string]interface{}{"is_active": u.IsActive})
	return FromDataModel(u), nil
}

// Delete soft-deletes the user. Grants and assignment history stay in place
// but the principal can no longer authenticate or be authorized.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if id == actorID {
		return ErrSelfChange
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", "user_id", id, "actor_id", actorID)
	s.publish(ctx, actorID, "user.delete", id, nil)
	return nil
}

func (s *Service) publish(ctx context.Context, actorID int64, action string, id int64, details map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	ev := events.NewActivityEvent(actorID, action, "admin", "user", id, details)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish activity", "error", err, "user_id", id)
	}
}
