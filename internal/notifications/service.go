package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rookery/internal/database"
	"rookery/internal/metrics"
	"rookery/internal/models"
	"rookery/internal/moderation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service resolves recipients for an interaction on a post and records the
// surviving deliveries. It is the in-process caller of the moderation
// recipient filter; the actual sending belongs to the external delivery
// worker, which drains the log.
type Service struct {
	store database.Store
	mod   *moderation.Service
	log   *Log
}

// NewService creates a notification fan-out service.
func NewService(store database.Store, mod *moderation.Service, deliveryLog *Log) *Service {
	return &Service{store: store, mod: mod, log: deliveryLog}
}

// RecordInteraction fans out one interaction (like, repost or reply) on a
// post. Candidate recipients are the post's author, the interacting
// account's internal followers, and the interacting account itself when it
// is internal; the moderation filter then decides who actually receives a
// delivery. Returns the number of deliveries written.
func (s *Service) RecordInteraction(ctx context.Context, post *models.Post, typ Type, actorID int64) (int, error) {
	recipients, err := s.candidateRecipients(ctx, post, actorID)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	filtered, err := s.mod.FilterRecipientsForPost(ctx, recipients, post, actorID)
	if err != nil {
		return 0, fmt.Errorf("notifications: filter recipients: %w", err)
	}
	if dropped := len(recipients) - len(filtered); dropped > 0 {
		metrics.RecipientsFilteredTotal.Add(float64(dropped))
	}

	now := time.Now()
	written := 0
	for _, recipientID := range filtered {
		ok, err := s.log.Append(Delivery{
			ID:          uuid.NewString(),
			RecipientID: recipientID,
			Type:        typ,
			ActorID:     actorID,
			PostApID:    post.ApID,
			CreatedAt:   now,
		})
		if err != nil {
			return written, err
		}
		if ok {
			written++
		}
	}

	metrics.DeliveriesRecordedTotal.WithLabelValues(string(typ)).Add(float64(written))
	log.Debug().
		Str("type", string(typ)).
		Int64("actor_id", actorID).
		Str("post_ap_id", post.ApID).
		Int("candidates", len(recipients)).
		Int("written", written).
		Msg("notifications: interaction recorded")

	return written, nil
}

// Drain removes and returns up to max pending deliveries for the external
// delivery worker.
func (s *Service) Drain(max int) ([]Delivery, error) {
	return s.log.Drain(max)
}

// Pending reports the number of deliveries waiting to be drained.
func (s *Service) Pending() (int, error) {
	return s.log.Pending()
}

// ListPending returns a viewer's undelivered notifications without
// consuming them.
func (s *Service) ListPending(recipientID int64, max int) ([]Delivery, error) {
	return s.log.ListPending(recipientID, max)
}

func (s *Service) candidateRecipients(ctx context.Context, post *models.Post, actorID int64) ([]int64, error) {
	seen := make(map[int64]struct{})
	var recipients []int64
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}

	// The author hears about interactions on their post, except their own.
	author, err := s.store.GetAccountByID(ctx, post.AuthorID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("notifications: resolve author: %w", err)
	}
	if author != nil && author.Internal && author.ID != actorID {
		add(author.ID)
	}

	// The actor's internal followers see the interaction in their inboxes,
	// and so does the actor's own inbox.
	followerIDs, err := s.store.ListInternalFollowerIDs(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("notifications: list followers: %w", err)
	}
	for _, id := range followerIDs {
		add(id)
	}

	actor, err := s.store.GetAccountByID(ctx, actorID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("notifications: resolve actor: %w", err)
	}
	if actor != nil && actor.Internal {
		add(actor.ID)
	}

	return recipients, nil
}
