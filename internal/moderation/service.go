// Package moderation implements viewer-scoped visibility filtering over the
// block and domain-block graph. Block sets are loaded per call and never
// cached across requests: visibility is per-viewer and blocks change.
package moderation

import (
	"context"

	"rookery/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence slice the moderation service needs.
type Store interface {
	ListBlockedAccountIDs(ctx context.Context, blockerID int64) ([]int64, error)
	ListBlockedDomainHashes(ctx context.Context, blockerID int64) ([]string, error)
	ListBlockerIDs(ctx context.Context, accountID int64) ([]int64, error)
}

// Service answers visibility questions for a viewer.
type Service struct {
	store Store
}

// NewService creates a moderation service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// BlockSets holds one viewer's block and domain-block sets as hash sets,
// giving O(1) membership checks per post.
type BlockSets struct {
	Accounts map[int64]struct{}
	Domains  map[string]struct{}
}

// BlocksAccount reports whether the viewer blocks the given account.
func (b *BlockSets) BlocksAccount(id int64) bool {
	_, ok := b.Accounts[id]
	return ok
}

// BlocksDomain reports whether the viewer blocks the given domain hash.
func (b *BlockSets) BlocksDomain(hash string) bool {
	_, ok := b.Domains[hash]
	return ok
}

// AccountIDs returns the blocked account ids as a slice, for use as a query
// exclusion list.
func (b *BlockSets) AccountIDs() []int64 {
	ids := make([]int64, 0, len(b.Accounts))
	for id := range b.Accounts {
		ids = append(ids, id)
	}
	return ids
}

// DomainHashes returns the blocked domain hashes as a slice.
func (b *BlockSets) DomainHashes() []string {
	hashes := make([]string, 0, len(b.Domains))
	for h := range b.Domains {
		hashes = append(hashes, h)
	}
	return hashes
}

// BlockSets loads the viewer's block and domain-block sets. The two reads
// are independent, so they are issued concurrently and awaited together.
func (s *Service) BlockSets(ctx context.Context, viewerID int64) (*BlockSets, error) {
	sets := &BlockSets{
		Accounts: make(map[int64]struct{}),
		Domains:  make(map[string]struct{}),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := s.store.ListBlockedAccountIDs(ctx, viewerID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			sets.Accounts[id] = struct{}{}
		}
		return nil
	})
	g.Go(func() error {
		hashes, err := s.store.ListBlockedDomainHashes(ctx, viewerID)
		if err != nil {
			return err
		}
		for _, h := range hashes {
			sets.Domains[h] = struct{}{}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sets, nil
}

// FilterPostsForViewer drops any row whose author or reposter is in the
// viewer's block set, or whose domain is in the viewer's domain-block set.
// It is a pure function of the precomputed sets.
func (s *Service) FilterPostsForViewer(sets *BlockSets, rows []*models.FeedRow) []*models.FeedRow {
	if len(sets.Accounts) == 0 && len(sets.Domains) == 0 {
		return rows
	}

	filtered := rows[:0]
	for _, row := range rows {
		if sets.BlocksAccount(row.Author.ID) || sets.BlocksDomain(row.Author.DomainHash()) {
			continue
		}
		if row.RepostedBy != nil &&
			(sets.BlocksAccount(row.RepostedBy.ID) || sets.BlocksDomain(row.RepostedBy.DomainHash())) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

// FilterRecipientsForPost filters notification recipients for an
// interaction on a post. interactorID is the account that liked, reposted
// or replied; zero means the event has no interacting account.
//
// The author-blocks-interactor check runs first and short-circuits: when
// the post's author has blocked the interactor, the interaction stays
// visible only to the interactor themselves, so they cannot infer the block
// from other people's missing notifications. Only then does the general
// rule apply: drop recipients who block the author or the interactor.
func (s *Service) FilterRecipientsForPost(ctx context.Context, recipientIDs []int64, post *models.Post, interactorID int64) ([]int64, error) {
	if len(recipientIDs) == 0 {
		return nil, nil
	}

	if interactorID != 0 {
		authorBlocks, err := s.store.ListBlockedAccountIDs(ctx, post.AuthorID)
		if err != nil {
			return nil, err
		}
		for _, blocked := range authorBlocks {
			if blocked == interactorID {
				log.Debug().
					Int64("author_id", post.AuthorID).
					Int64("interactor_id", interactorID).
					Msg("moderation: author blocks interactor, restricting recipients")
				var only []int64
				for _, id := range recipientIDs {
					if id == interactorID {
						only = append(only, id)
					}
				}
				return only, nil
			}
		}
	}

	var blockersOfAuthor, blockersOfInteractor []int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		blockersOfAuthor, err = s.store.ListBlockerIDs(gctx, post.AuthorID)
		return err
	})
	if interactorID != 0 {
		g.Go(func() error {
			var err error
			blockersOfInteractor, err = s.store.ListBlockerIDs(gctx, interactorID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	excluded := make(map[int64]struct{}, len(blockersOfAuthor)+len(blockersOfInteractor))
	for _, id := range blockersOfAuthor {
		excluded[id] = struct{}{}
	}
	for _, id := range blockersOfInteractor {
		excluded[id] = struct{}{}
	}

	var filtered []int64
	for _, id := range recipientIDs {
		if _, drop := excluded[id]; drop {
			continue
		}
		filtered = append(filtered, id)
	}
	return filtered, nil
}
