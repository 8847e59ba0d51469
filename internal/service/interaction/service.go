package interaction

import (
	"context"
	"log/slog"

	apperr "matcha/backend/internal/errors"
	"matcha/backend/internal/models"
	"matcha/backend/internal/storage"
)

const defaultLikersLimit = 50

// Notifier is the slice of the dispatcher this service needs. Calls are
// fire-and-forget and never fail the surrounding operation.
type Notifier interface {
	Notify(targetUserID uint64, n models.Notification)
}

// Service records like/dislike decisions, detects matches and removes them.
type Service struct {
	store    storage.Storage
	notifier Notifier
	log      *slog.Logger
}

func New(store storage.Storage, notifier Notifier, log *slog.Logger) *Service {
	return &Service{store: store, notifier: notifier, log: log}
}

// Result is the outcome of recording an interaction.
type Result struct {
	Matched        bool   `json:"matched"`
	ConversationID uint64 `json:"conversation_id,omitempty"`
}

// Record upserts the directed interaction actor -> target. For likes it then
// checks the reverse edge; a mutual like resolves to the pair's single
// conversation through an insert-or-fetch on the unique pair constraint, so
// two concurrent mutual likes cannot create duplicates. Dislikes never touch
// match state.
func (s *Service) Record(ctx context.Context, actorID, targetID uint64, kind models.InteractionKind) (*Result, error) {
	if actorID == targetID {
		return nil, apperr.ErrSelfInteraction
	}

	if err := s.store.UpsertInteraction(ctx, actorID, targetID, kind); err != nil {
		return nil, err
	}

	s.adjustLikeCounter(ctx, targetID, kind)

	if kind != models.InteractionLike {
		return &Result{}, nil
	}

	mutual, err := s.store.MutualLikeExists(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if !mutual {
		s.notifier.Notify(targetID, models.Notification{
			Kind:     models.NotificationNewLike,
			SenderID: actorID,
		})
		return &Result{}, nil
	}

	conv, err := s.store.CreateConversationIfAbsent(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}

	s.log.Info("match created",
		"actor", actorID, "target", targetID, "conversation", conv.ID)

	s.notifier.Notify(targetID, models.Notification{
		Kind:           models.NotificationNewMatch,
		SenderID:       actorID,
		ConversationID: conv.ID,
	})

	return &Result{Matched: true, ConversationID: conv.ID}, nil
}

// Unmatch deletes the match between the two users: both interaction rows,
// the conversation and its messages go in one transaction. Only the other
// party is notified; the actor already knows.
func (s *Service) Unmatch(ctx context.Context, actorID, targetID uint64) error {
	if actorID == targetID {
		return apperr.ErrSelfInteraction
	}

	conv, err := s.store.DeleteMatch(ctx, actorID, targetID)
	if err != nil {
		return err
	}

	s.log.Info("match removed",
		"actor", actorID, "target", targetID, "conversation", conv.ID)

	s.notifier.Notify(targetID, models.Notification{
		Kind:           models.NotificationUnmatch,
		SenderID:       actorID,
		ConversationID: conv.ID,
	})
	return nil
}

// Likers lists users who liked userID and were not dismissed, newest first.
func (s *Service) Likers(ctx context.Context, userID uint64, limit int) ([]models.Interaction, error) {
	if limit <= 0 {
		limit = defaultLikersLimit
	}
	return s.store.ListLikers(ctx, userID, limit)
}

// CountLikers returns the liker count, cache first with a DB fallback that
// re-primes the cache.
func (s *Service) CountLikers(ctx context.Context, userID uint64) (int64, error) {
	if n, hit, err := s.store.GetLikeCount(ctx, userID); err == nil && hit {
		return n, nil
	}

	n, err := s.store.CountLikers(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.store.SetLikeCount(ctx, userID, n); err != nil {
		s.log.Warn("failed to prime like counter", "user", userID, "err", err)
	}
	return n, nil
}

// Report files a report against another profile.
func (s *Service) Report(ctx context.Context, reporterID, targetID uint64, reason string) (*models.Report, error) {
	if reporterID == targetID {
		return nil, apperr.ErrSelfInteraction
	}
	r := &models.Report{ReporterID: reporterID, TargetID: targetID, Reason: reason}
	if err := s.store.SaveReport(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// UndoReport withdraws a report previously filed by the same user.
func (s *Service) UndoReport(ctx context.Context, reportID, reporterID uint64) error {
	return s.store.DeleteReport(ctx, reportID, reporterID)
}

// adjustLikeCounter keeps the cached liker counter roughly in step with the
// decision stream. The counter is a cache with a TTL; the DB stays the
// source of truth.
func (s *Service) adjustLikeCounter(ctx context.Context, targetID uint64, kind models.InteractionKind) {
	var err error
	if kind == models.InteractionLike {
		err = s.store.IncrLikeCount(ctx, targetID)
	} else {
		err = s.store.DecrLikeCount(ctx, targetID)
	}
	if err != nil {
		s.log.Warn("failed to adjust like counter", "user", targetID, "err", err)
	}
}
