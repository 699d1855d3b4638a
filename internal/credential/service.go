package credential

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

type Mutation func(row *inventoryDatamodel.Credential) (map[string]interface{}, error)

type RepositoryAPI interface {
	List(ctx context.Context, filter Filter) ([]*inventoryDatamodel.Credential, error)
	GetByID(ctx context.Context, id int64) (*inventoryDatamodel.Credential, error)
	Create(ctx context.Context, row *inventoryDatamodel.Credential, actorID int64) error
	Update(ctx context.Context, id, actorID int64, m Mutation) (*inventoryDatamodel.Credential, error)
}

type SealerAPI interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

type Service struct {
	repo      RepositoryAPI
	sealer    SealerAPI
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, sealer SealerAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		sealer:    sealer,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context, filter Filter) ([]*Credential, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list credentials", "error", err)
		return nil, err
	}
	out := make([]*Credential, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Credential, error) {
	if id <= 0 {
		return nil, ErrCredentialNotFound
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, actorID int64, dto CreateCredentialDTO) (*Credential, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := &inventoryDatamodel.Credential{
		Name:     strings.TrimSpace(dto.Name),
		Kind:     dto.Kind,
		Username: strings.TrimSpace(dto.Username),
		URL:      strings.TrimSpace(dto.URL),
		Status:   string(lifecycle.StatusAvailable),
		Notes:    strings.TrimSpace(dto.Notes),
	}
	if dto.Secret != "" {
		sealed, err := s.sealer.Seal([]byte(dto.Secret))
		if err != nil {
			s.logger.Error("failed to seal credential secret", "error", err)
			return nil, internal.NewInternalError("failed to store secret", err)
		}
		row.SecretCiphertext = sealed
	}

	if err := s.repo.Create(ctx, row, actorID); err != nil {
		s.logger.Error("failed to create credential", "error", err, "name", row.Name)
		return nil, err
	}

	s.logger.Info("credential created", "credential_id", row.ID, "kind", row.Kind, "actor_id", actorID)
	s.publish(ctx, actorID, "credential.create", row.ID, map[string]interface{}{"name": row.Name, "kind": row.Kind})
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, actorID, id int64, dto UpdateCredentialDTO) (*Credential, error) {
	if id <= 0 {
		return nil, ErrCredentialNotFound
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var sealed []byte
	if dto.Secret != nil && *dto.Secret != "" {
		var err error
		sealed, err = s.sealer.Seal([]byte(*dto.Secret))
		if err != nil {
			s.logger.Error("failed to seal credential secret", "error", err)
			return nil, internal.NewInternalError("failed to store secret", err)
		}
	}

	row, err := s.repo.Update(ctx, id, actorID, func(row *inventoryDatamodel.Credential) (map[string]interface{}, error) {
		changes := map[string]interface{}{}
		if dto.Name != nil {
			row.Name = strings.TrimSpace(*dto.Name)
			changes["name"] = row.Name
		}
		if dto.Kind != nil {
			row.Kind = *dto.Kind
			changes["kind"] = row.Kind
		}
		if dto.Username != nil {
			row.Username = strings.TrimSpace(*dto.Username)
			changes["username"] = row.Username
		}
		if dto.URL != nil {
			row.URL = strings.TrimSpace(*dto.URL)
			changes["url"] = row.URL
		}
		if dto.Secret != nil {
			row.SecretCiphertext = sealed
			changes["secret_ciphertext"] = sealed
		}
		if dto.Notes != nil {
			row.Notes = strings.TrimSpace(*dto.Notes)
			changes["notes"] = row.Notes
		}
		return changes, nil
	})
	if err != nil {
		if appErr, ok := internal.IsAppError(err); !ok || appErr.StatusCode >= 500 {
			s.logger.Error("failed to update credential", "error", err, "credential_id", id)
		}
		return nil, err
	}

	s.logger.Info("credential updated", "credential_id", id, "actor_id", actorID)
	s.publish(ctx, actorID, "credential.update", id, nil)
	return FromDataModel(row), nil
}

// Reveal opens the stored secret. Every reveal is recorded in the activity log.
func (s *Service) Reveal(ctx context.Context, actorID, id int64) (*Secret, error) {
	if id <= 0 {
		return nil, ErrCredentialNotFound
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.IsDeleted {
		return nil, lifecycle.ErrResourceDeleted
	}
	if len(row.SecretCiphertext) == 0 {
		return nil, ErrSecretUnavailable
	}

	plain, err := s.sealer.Open(row.SecretCiphertext)
	if err != nil {
		s.logger.Error("failed to open credential secret", "error", err, "credential_id", id)
		return nil, internal.NewInternalError("failed to read secret", err)
	}

	s.logger.Info("credential secret revealed", "credential_id", id, "actor_id", actorID)
	s.publish(ctx, actorID, "credential.reveal", id, nil)
	return &Secret{CredentialID: row.ID, Username: row.Username, Secret: string(plain)}, nil
}

func ChangedFields(changes map[string]interface{}) string {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		if k == "secret_ciphertext" {
			k = "secret"
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "changed: " + strings.Join(keys, ", ")
}

func (s *Service) publish(ctx context.Context, actorID int64, action string, id int64, details map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	ev := events.NewActivityEvent(actorID, action, "inventory", string(lifecycle.KindCredential), id, details)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("failed to publish activity", "error", err, "credential_id", id)
		}
	}
}
