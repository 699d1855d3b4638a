package permission

import (
	"context"
	"errors"
	"log/slog"
)

// GrantRepository loads both grant paths of a principal. It returns
// ErrPrincipalNotFound when no such principal exists.
type GrantRepository interface {
	LoadGrants(ctx context.Context, principalID int64) (*PrincipalGrants, error)
}

// Authorizer is what HTTP middleware and other packages depend on.
type Authorizer interface {
	Authorize(ctx context.Context, principalID int64, key string) (bool, error)
	AuthorizeAny(ctx context.Context, principalID int64, keys []string) (bool, error)
}

type Resolver struct {
	repo   GrantRepository
	logger *slog.Logger
}

func NewResolver(repo GrantRepository, logger *slog.Logger) *Resolver {
	return &Resolver{
		repo:   repo,
		logger: logger,
	}
}

// Authorize reports whether key is in the union of the principal's role and
// direct grants. Missing, inactive or deleted principals and malformed keys
// are denied without error.
func (r *Resolver) Authorize(ctx context.Context, principalID int64, key string) (bool, error) {
	return r.AuthorizeAny(ctx, principalID, []string{key})
}

func (r *Resolver) AuthorizeAny(ctx context.Context, principalID int64, keys []string) (bool, error) {
	valid := make([]string, 0, len(keys))
	for _, k := range keys {
		if IsValidKey(k) {
			valid = append(valid, k)
		}
	}
	if len(valid) == 0 {
		r.logger.Debug("authorize: no well-formed keys", "principal_id", principalID, "keys", keys)
		return false, nil
	}

	grants, err := r.Resolve(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return false, nil
		}
		r.logger.Error("authorize: failed to load grants", "principal_id", principalID, "error", err)
		return false, err
	}

	return grants.AllowsAny(valid...), nil
}

// Resolve returns the effective grants. Unlike Authorize it surfaces
// ErrPrincipalNotFound, for callers that need to tell "no such user" from "denied".
// An inactive or deleted principal resolves with Active=false and no keys.
func (r *Resolver) Resolve(ctx context.Context, principalID int64) (*Grants, error) {
	if principalID <= 0 {
		return nil, ErrPrincipalNotFound
	}

	pg, err := r.repo.LoadGrants(ctx, principalID)
	if err != nil {
		return nil, err
	}

	if !pg.Active || pg.Deleted {
		return &Grants{PrincipalID: principalID, Active: false, Keys: KeySet{}}, nil
	}

	return &Grants{
		PrincipalID: principalID,
		Active:      true,
		Keys:        Union(pg.RoleKeys, pg.DirectKeys),
	}, nil
}

// EffectivePermissions lists the principal's keys in sorted order.
func (r *Resolver) EffectivePermissions(ctx context.Context, principalID int64) ([]string, error) {
	grants, err := r.Resolve(ctx, principalID)
	if err != nil {
		return nil, err
	}
	return grants.Keys.Sorted(), nil
}
