package activity

import (
	"context"
	"log/slog"

	activityDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/activity"
)

type Repository interface {
	Writer
	List(ctx context.Context, filter Filter) ([]*activityDatamodel.ActivityLog, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// List returns entries newest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Entry, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list activity", "error", err)
		return nil, err
	}

	out := make([]*Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	return out, nil
}
