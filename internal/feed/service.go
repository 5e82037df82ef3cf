// Package feed materializes per-viewer timelines: original and reposted
// posts from followed accounts, merge-sorted and cursor-paginated.
package feed

import (
	"context"
	"errors"
	"fmt"

	"rookery/internal/database"
	"rookery/internal/metrics"
	"rookery/internal/models"
	"rookery/internal/moderation"
	"rookery/internal/tracing"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidCursor is returned when a cursor string did not come from this
// component's own encoding.
var ErrInvalidCursor = errors.New("feed: invalid cursor")

// ErrNotInternalAccount is returned when the viewer resolves to a remote
// account; timelines are only materialized for locally hosted viewers.
var ErrNotInternalAccount = errors.New("feed: account is not locally hosted")

const (
	// DefaultLimit is used when the caller passes no limit.
	DefaultLimit = 20

	// MaxLimit caps a page. Upstream validates, but the service clamps
	// defensively rather than erroring.
	MaxLimit = 100
)

// Service materializes feeds from the relational store. It performs reads
// only and holds no state across requests.
type Service struct {
	store    database.Store
	mod      *moderation.Service
	sanitize models.SanitizeFunc
}

// NewService creates a feed service.
func NewService(store database.Store, mod *moderation.Service, sanitize models.SanitizeFunc) *Service {
	return &Service{store: store, mod: mod, sanitize: sanitize}
}

// Result is one feed page. NextCursor is non-nil iff more rows exist.
type Result struct {
	Results    []models.PostDTO `json:"results"`
	NextCursor *string          `json:"nextCursor"`
}

// GetFeedData returns one page of the viewer's timeline. The candidate set
// is posts authored by the viewer and the accounts they follow, unioned
// with reposts by the same set; replies are always excluded. The reader
// feed restricts candidates to articles; an explicit typeFilter narrows
// either feed and is applied before the pagination window is computed, so
// page boundaries are stable regardless of filter.
func (s *Service) GetFeedData(ctx context.Context, viewerID int64, feedType models.FeedType, limit int, cursor string, typeFilter *models.PostType) (*Result, error) {
	ctx, span := tracing.FeedSpan(ctx, string(feedType), viewerID)
	defer span.End()

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if feedType == models.FeedTypeReader && typeFilter == nil {
		article := models.PostTypeArticle
		typeFilter = &article
	}

	viewer, err := s.store.GetAccountByID(ctx, viewerID)
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, fmt.Errorf("feed: resolve viewer: %w", err)
	}
	if !viewer.Internal {
		return nil, ErrNotInternalAccount
	}

	var before *database.Position
	if cursor != "" {
		c, err := DecodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		before = &database.Position{SortKey: c.SortKey, ID: c.ID}
	}

	// The follow set and the block sets are independent reads.
	var followingIDs []int64
	var sets *moderation.BlockSets
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		followingIDs, err = s.store.ListFollowingIDs(gctx, viewerID)
		return err
	})
	g.Go(func() error {
		var err error
		sets, err = s.mod.BlockSets(gctx, viewerID)
		return err
	})
	if err := g.Wait(); err != nil {
		tracing.EndWithError(span, err)
		return nil, fmt.Errorf("feed: load viewer context: %w", err)
	}

	sources := append([]int64{viewerID}, followingIDs...)

	// Fetch limit+1: the extra row proves more exist without a count query.
	rows, err := s.store.ListFeedRows(ctx, database.FeedQuery{
		SourceIDs:           sources,
		Type:                typeFilter,
		Before:              before,
		Limit:               limit + 1,
		ExcludeAccountIDs:   sets.AccountIDs(),
		ExcludeDomainHashes: sets.DomainHashes(),
	})
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, fmt.Errorf("feed: list candidates: %w", err)
	}

	// The query already excludes blocked sources; the pure filter is kept
	// as a second line so a row can never slip past moderation.
	rows = s.mod.FilterPostsForViewer(sets, rows)

	var nextCursor *string
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		enc := Cursor{SortKey: last.SortKey(), ID: last.Post.ID}.Encode()
		nextCursor = &enc
	}

	dtos, err := s.projectRows(ctx, viewerID, rows)
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, err
	}

	metrics.FeedRequestsTotal.WithLabelValues(string(feedType)).Inc()
	log.Debug().
		Int64("viewer_id", viewerID).
		Str("feed_type", string(feedType)).
		Int("results", len(dtos)).
		Bool("has_more", nextCursor != nil).
		Msg("feed: page materialized")

	return &Result{Results: dtos, NextCursor: nextCursor}, nil
}

// projectRows computes the viewer flags for a page and maps it to DTOs.
// The three flag sets are viewer-specific and loaded fresh per call.
func (s *Service) projectRows(ctx context.Context, viewerID int64, rows []*models.FeedRow) ([]models.PostDTO, error) {
	// Always return a non-nil slice: an empty candidate set is a normal
	// outcome, not an error.
	dtos := make([]models.PostDTO, 0, len(rows))
	if len(rows) == 0 {
		return dtos, nil
	}

	postIDs := make([]int64, 0, len(rows))
	accountIDSet := make(map[int64]struct{})
	for _, row := range rows {
		postIDs = append(postIDs, row.Post.ID)
		accountIDSet[row.Author.ID] = struct{}{}
		if row.RepostedBy != nil {
			accountIDSet[row.RepostedBy.ID] = struct{}{}
		}
	}
	accountIDs := make([]int64, 0, len(accountIDSet))
	for id := range accountIDSet {
		accountIDs = append(accountIDs, id)
	}

	flags, err := loadViewerSets(ctx, s.store, viewerID, postIDs, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("feed: load viewer flags: %w", err)
	}

	for _, row := range rows {
		dtos = append(dtos, models.NewPostDTO(row, viewerID, models.ViewerFlags{
			Liked:           flags.liked[row.Post.ID],
			Reposted:        flags.reposted[row.Post.ID],
			FollowsAuthor:   flags.followed[row.Author.ID],
			FollowsReposter: row.RepostedBy != nil && flags.followed[row.RepostedBy.ID],
		}, s.sanitize))
	}
	return dtos, nil
}

// viewerSets are the per-call like/repost/follow membership sets used to
// compute the *ByMe flags.
type viewerSets struct {
	liked    map[int64]bool
	reposted map[int64]bool
	followed map[int64]bool
}

func loadViewerSets(ctx context.Context, store database.Store, viewerID int64, postIDs, accountIDs []int64) (*viewerSets, error) {
	sets := &viewerSets{
		liked:    make(map[int64]bool),
		reposted: make(map[int64]bool),
		followed: make(map[int64]bool),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := store.FilterLikedPostIDs(gctx, viewerID, postIDs)
		if err != nil {
			return err
		}
		for _, id := range ids {
			sets.liked[id] = true
		}
		return nil
	})
	g.Go(func() error {
		ids, err := store.FilterRepostedPostIDs(gctx, viewerID, postIDs)
		if err != nil {
			return err
		}
		for _, id := range ids {
			sets.reposted[id] = true
		}
		return nil
	})
	g.Go(func() error {
		ids, err := store.FilterFollowedAccountIDs(gctx, viewerID, accountIDs)
		if err != nil {
			return err
		}
		for _, id := range ids {
			sets.followed[id] = true
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sets, nil
}
