package location

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	inventoryDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/inventory"
	"github.com/frahmantamala/asset-inventory/internal/core/events"
)

type RepositoryAPI interface {
	List(ctx context.Context, limit, offset int) ([]*inventoryDatamodel.Location, error)
	GetByID(ctx context.Context, id int64) (*inventoryDatamodel.Location, error)
	Create(ctx context.Context, l *inventoryDatamodel.Location) error
}

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Location, error) {
	rows, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list locations", "error", err)
		return nil, err
	}
	out := make([]*Location, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Location, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, actorID int64, dto CreateLocationDTO) (*Location, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := &inventoryDatamodel.Location{
		Name:        strings.TrimSpace(dto.Name),
		Address:     strings.TrimSpace(dto.Address),
		Description: strings.TrimSpace(dto.Description),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if !errors.Is(err, ErrDuplicateName) {
			s.logger.Error("failed to create location", "error", err, "name", row.Name)
		}
		return nil, err
	}

	s.logger.Info("location created", "location_id", row.ID, "name", row.Name)
	if s.publisher != nil {
		ev := events.NewActivityEvent(actorID, "location.create", "inventory", "location", row.ID, map[string]interface{}{"name": row.Name})
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.Warn("failed to publish activity", "error", err)
		}
	}
	return FromDataModel(row), nil
}
