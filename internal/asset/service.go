package asset

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/frahmantamala/asset-inventory/internal"
	inventoryDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/inventory"
	"github.com/frahmantamala/asset-inventory/internal/core/events"
	"github.com/frahmantamala/asset-inventory/internal/lifecycle"
)

// Mutation applies an edit to a locked row and returns the changed columns.
type Mutation func(row *inventoryDatamodel.Asset) (map[string]interface{}, error)

type RepositoryAPI interface {
	List(ctx context.Context, filter Filter) ([]*inventoryDatamodel.Asset, error)
	GetByID(ctx context.Context, id int64) (*inventoryDatamodel.Asset, error)
	// Create inserts the asset together with its "create" history entry.
	Create(ctx context.Context, row *inventoryDatamodel.Asset, actorID int64) error
	// Update locks the row, applies m and writes an "update" history entry
	// when anything changed.
	Update(ctx context.Context, id, actorID int64, m Mutation) (*inventoryDatamodel.Asset, error)
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

func (s *Service) List(ctx context.Context, filter Filter) ([]*Asset, error) {
	if filter.Status != "" && !contains(listableStatuses, filter.Status) {
		return nil, internal.NewValidationFieldError("status", "unknown status filter", internal.ErrCodeInvalidStatus)
	}
	filter.Query = strings.TrimSpace(filter.Query)

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list assets", "error", err)
		return nil, err
	}
	out := make([]*Asset, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	return out, nil
}

// GetByID returns the asset even when it is soft-deleted.
func (s *Service) GetByID(ctx context.Context, id int64) (*Asset, error) {
	if id <= 0 {
		return nil, ErrAssetNotFound
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, actorID int64, dto CreateAssetDTO) (*Asset, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := &inventoryDatamodel.Asset{
		AssetTag:     strings.TrimSpace(dto.AssetTag),
		Name:         strings.TrimSpace(dto.Name),
		Category:     strings.TrimSpace(dto.Category),
		SerialNumber: trimmedOrNil(dto.SerialNumber),
		Status:       string(lifecycle.StatusAvailable),
		Condition:    strings.TrimSpace(dto.Condition),
		LocationID:   dto.LocationID,
		Notes:        strings.TrimSpace(dto.Notes),
	}
	if err := s.repo.Create(ctx, row, actorID); err != nil {
		if !isClientError(err) {
			s.logger.Error("failed to create asset", "error", err, "asset_tag", row.AssetTag)
		}
		return nil, err
	}

	s.logger.Info("asset created", "asset_id", row.ID, "asset_tag", row.AssetTag, "actor_id", actorID)
	s.publish(ctx, actorID, "asset.create", row.ID, map[string]interface{}{"asset_tag": row.AssetTag})
	return FromDataModel(row), nil
}

// Update edits attributes. Status may only move between the administrative
// statuses, and only while nobody holds the asset.
func (s *Service) Update(ctx context.Context, actorID, id int64, dto UpdateAssetDTO) (*Asset, error) {
	if id <= 0 {
		return nil, ErrAssetNotFound
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.Update(ctx, id, actorID, func(row *inventoryDatamodel.Asset) (map[string]interface{}, error) {
		return applyUpdate(row, dto)
	})
	if err != nil {
		if !isClientError(err) {
			s.logger.Error("failed to update asset", "error", err, "asset_id", id)
		}
		return nil, err
	}

	s.logger.Info("asset updated", "asset_id", id, "actor_id", actorID)
	s.publish(ctx, actorID, "asset.update", id, nil)
	return FromDataModel(row), nil
}

func applyUpdate(row *inventoryDatamodel.Asset, dto UpdateAssetDTO) (map[string]interface{}, error) {
	changes := map[string]interface{}{}

	if dto.Status != nil && *dto.Status != row.Status {
		held := FromDataModel(row).Held() || row.Status == string(lifecycle.StatusAssigned)
		if held {
			return nil, ErrStatusWhenHeld.WithDetails(map[string]interface{}{"status": row.Status})
		}
		row.Status = *dto.Status
		changes["status"] = row.Status
	}
	if dto.Name != nil {
		row.Name = strings.TrimSpace(*dto.Name)
		changes["name"] = row.Name
	}
	if dto.Category != nil {
		row.Category = strings.TrimSpace(*dto.Category)
		changes["category"] = row.Category
	}
	if dto.SerialNumber != nil {
		row.SerialNumber = trimmedOrNil(dto.SerialNumber)
		changes["serial_number"] = row.SerialNumber
	}
	if dto.Condition != nil {
		row.Condition = strings.TrimSpace(*dto.Condition)
		changes["condition"] = row.Condition
	}
	if dto.LocationID != nil {
		loc := *dto.LocationID
		row.LocationID = &loc
		changes["location_id"] = loc
	}
	if dto.Notes != nil {
		row.Notes = strings.TrimSpace(*dto.Notes)
		changes["notes"] = row.Notes
	}
	return changes, nil
}

// ChangedFields lists the changed column names in a stable order, used as
// history notes.
func ChangedFields(changes map[string]interface{}) string {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "changed: " + strings.Join(keys, ", ")
}

func (s *Service) publish(ctx context.Context, actorID int64, action string, id int64, details map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	ev := events.NewActivityEvent(actorID, action, "inventory", string(lifecycle.KindAsset), id, details)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish activity", "error", err, "asset_id", id)
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func isClientError(err error) bool {
	var appErr *internal.AppError
	return errors.As(err, &appErr) && appErr.StatusCode < 500
}
