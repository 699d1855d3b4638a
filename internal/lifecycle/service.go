package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/core/events"
)

type Outcome string

const (
	OutcomeCompleted            Outcome = "completed"
	OutcomeNeedsHolderSelection Outcome = "needs_holder_selection"
)

type CheckoutResult struct {
	Entry    *HistoryEntry `json:"history"`
	Resource Snapshot      `json:"resource"`
}

type CheckinRequest struct {
	Holder *HolderSelection
	Return ReturnState
	Notes  string
}

// CheckinResult is either a completed check-in, or a request for the caller
// to pick one of Holders and retry. Nothing is written in the second case.
type CheckinResult struct {
	Outcome  Outcome       `json:"outcome"`
	Entry    *HistoryEntry `json:"history,omitempty"`
	Resource Snapshot      `json:"resource"`
	Holders  []Holder      `json:"holders,omitempty"`
}

func (r *CheckinResult) NeedsSelection() bool {
	return r.Outcome == OutcomeNeedsHolderSelection
}

type Service struct {
	store     Store
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(store Store, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) Checkout(ctx context.Context, actorID int64, ref ResourceRef, target Target, notes string) (*CheckoutResult, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	holder, err := target.Holder()
	if err != nil {
		return nil, err
	}
	if ref.Kind == KindAsset && holder.Type == HolderAsset && holder.ID == ref.ID {
		return nil, ErrSelfAssignment
	}
	notes = strings.TrimSpace(notes)

	var result *CheckoutResult
	err = s.store.InTx(ctx, func(tx Tx) error {
		a, err := tx.Lock(ref)
		if err != nil {
			return err
		}
		if a.Deleted() {
			return ErrResourceDeleted
		}
		if !a.Accepts(holder.Type) {
			return ErrInvalidTarget.WithMessage(string(holder.Type) + " cannot hold a " + string(ref.Kind))
		}

		described, err := tx.DescribeHolder(holder)
		if err != nil {
			return err
		}
		if err := a.Assign(described); err != nil {
			return err
		}
		if err := tx.SaveHolders(a, HolderChange{Added: &described, ActorID: actorID}); err != nil {
			return err
		}

		entry := NewHistoryEntry(ref, ActionCheckout, actorID, &described, notes)
		if err := tx.AppendHistory(entry); err != nil {
			return err
		}

		result = &CheckoutResult{Entry: entry, Resource: SnapshotOf(a)}
		return nil
	})
	if err != nil {
		s.logFailure("checkout failed", err, ref, actorID)
		return nil, err
	}

	s.logger.InfoContext(ctx, "resource checked out",
		"resource", ref.String(),
		"holder", holder.String(),
		"actor_id", actorID)
	s.record(ctx, actorID, ref, ActionCheckout, map[string]interface{}{
		"target_type": holder.Type,
		"target_id":   holder.ID,
	})
	return result, nil
}

func (s *Service) Checkin(ctx context.Context, actorID int64, ref ResourceRef, req CheckinRequest) (*CheckinResult, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	if ref.Kind == KindCredential && !req.Return.IsZero() {
		return nil, ErrReturnNotSupported
	}
	if req.Holder != nil {
		if err := req.Holder.Validate(); err != nil {
			return nil, err
		}
	}
	notes := strings.TrimSpace(req.Notes)

	var result *CheckinResult
	err := s.store.InTx(ctx, func(tx Tx) error {
		a, err := tx.Lock(ref)
		if err != nil {
			return err
		}
		if a.Deleted() {
			return ErrResourceDeleted
		}

		chosen, candidates, err := SelectHolder(a.Holders(), req.Holder)
		if err != nil {
			return err
		}
		if chosen == nil {
			result = &CheckinResult{
				Outcome:  OutcomeNeedsHolderSelection,
				Resource: SnapshotOf(a),
				Holders:  candidates,
			}
			return nil
		}

		if err := a.Release(*chosen); err != nil {
			return err
		}
		if err := tx.SaveHolders(a, HolderChange{Removed: chosen, ActorID: actorID}); err != nil {
			return err
		}

		if !req.Return.IsZero() {
			if req.Return.LocationID != nil {
				if _, err := tx.DescribeHolder(Holder{Type: HolderLocation, ID: *req.Return.LocationID}); err != nil {
					if errors.Is(err, ErrHolderNotFound) {
						return ErrLocationNotFound
					}
					return err
				}
			}
			if err := tx.ApplyReturn(ref, req.Return); err != nil {
				return err
			}
		}

		entry := NewHistoryEntry(ref, ActionCheckin, actorID, chosen, notes)
		if err := tx.AppendHistory(entry); err != nil {
			return err
		}

		result = &CheckinResult{
			Outcome:  OutcomeCompleted,
			Entry:    entry,
			Resource: SnapshotOf(a),
		}
		return nil
	})
	if err != nil {
		s.logFailure("checkin failed", err, ref, actorID)
		return nil, err
	}

	if result.NeedsSelection() {
		s.logger.InfoContext(ctx, "checkin needs holder selection",
			"resource", ref.String(),
			"holders", len(result.Holders),
			"actor_id", actorID)
		return result, nil
	}

	released := result.Entry
	s.logger.InfoContext(ctx, "resource checked in",
		"resource", ref.String(),
		"actor_id", actorID,
		"status", result.Resource.Status)
	s.record(ctx, actorID, ref, ActionCheckin, map[string]interface{}{
		"target_type": released.TargetType,
		"target_id":   released.TargetID,
	})
	return result, nil
}

// SoftDelete flags the resource as deleted. Status, holders and history are
// left as they are; deleting twice is a no-op.
func (s *Service) SoftDelete(ctx context.Context, actorID int64, ref ResourceRef) (*Snapshot, error) {
	return s.setDeleted(ctx, actorID, ref, true)
}

// Restore reverses SoftDelete.
func (s *Service) Restore(ctx context.Context, actorID int64, ref ResourceRef) (*Snapshot, error) {
	return s.setDeleted(ctx, actorID, ref, false)
}

func (s *Service) setDeleted(ctx context.Context, actorID int64, ref ResourceRef, deleted bool) (*Snapshot, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}

	var (
		snap    Snapshot
		changed bool
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		a, err := tx.Lock(ref)
		if err != nil {
			return err
		}
		snap = SnapshotOf(a)
		if a.Deleted() == deleted {
			changed = false
			return nil
		}
		if err := tx.SetDeleted(ref, deleted); err != nil {
			return err
		}
		snap.Deleted = deleted
		changed = true
		return nil
	})
	if err != nil {
		s.logFailure("set deleted failed", err, ref, actorID)
		return nil, err
	}

	if changed {
		action := "delete"
		if !deleted {
			action = "restore"
		}
		s.logger.InfoContext(ctx, "resource "+action+"d", "resource", ref.String(), "actor_id", actorID)
		s.publish(ctx, actorID, ref, action, nil)
	}
	return &snap, nil
}

// History returns the entries for ref oldest first, soft-deleted or not.
func (s *Service) History(ctx context.Context, ref ResourceRef) ([]*HistoryEntry, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	return s.store.History(ctx, ref)
}

// Snapshot reads the current state without locking.
func (s *Service) Snapshot(ctx context.Context, ref ResourceRef) (*Snapshot, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	a, err := s.store.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	snap := SnapshotOf(a)
	return &snap, nil
}

func (s *Service) logFailure(msg string, err error, ref ResourceRef, actorID int64) {
	if appErr, ok := internal.IsAppError(err); ok && appErr.StatusCode < http.StatusInternalServerError {
		s.logger.Debug(msg, "error", err, "resource", ref.String(), "actor_id", actorID)
		return
	}
	s.logger.Error(msg, "error", err, "resource", ref.String(), "actor_id", actorID)
}

func (s *Service) record(ctx context.Context, actorID int64, ref ResourceRef, action Action, details map[string]interface{}) {
	s.publish(ctx, actorID, ref, string(action), details)
}

func (s *Service) publish(ctx context.Context, actorID int64, ref ResourceRef, action string, details map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	ev := events.NewActivityEvent(actorID, string(ref.Kind)+"."+action, "inventory", string(ref.Kind), ref.ID, details)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish activity", "error", err, "resource", ref.String())
	}
}

func validateRef(ref ResourceRef) error {
	if ref.Kind != KindAsset && ref.Kind != KindCredential {
		return ErrUnknownResource
	}
	if ref.ID <= 0 {
		return NotFound(ref)
	}
	return nil
}
