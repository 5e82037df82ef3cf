// Package thread reconstructs bounded reply trees: an ancestor chain above
// the target post and collapsed linear chains below it.
package thread

import (
	"context"
	"errors"
	"fmt"

	"rookery/internal/database"
	"rookery/internal/metrics"
	"rookery/internal/models"
	"rookery/internal/tracing"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// maxAncestorDepth bounds the upward walk from the target post.
	maxAncestorDepth = 10

	// maxChildrenCount bounds the top-level replies shown under the target.
	maxChildrenCount = 10

	// maxChildrenDepth bounds each collapsed linear chain. The walk goes
	// chainProbeHops past the cap so truncation can be reported.
	maxChildrenDepth = 5
	chainProbeHops   = 2
)

// Service reconstructs reply chains from the relational store. Read-only;
// traversal is an explicit iterative walk with repeated bounded queries, so
// cost stays capped regardless of thread size.
type Service struct {
	store    database.Store
	sanitize models.SanitizeFunc
}

// NewService creates a thread service.
func NewService(store database.Store, sanitize models.SanitizeFunc) *Service {
	return &Service{store: store, sanitize: sanitize}
}

// GetReplyChain reconstructs the thread around the post with the given
// federated id. A missing target yields database.ErrNotFound; there is no
// other error surface at this layer.
//
// Replies from accounts the viewer has blocked are currently not filtered
// out of the chains; the target existence check is the only
// moderation-relevant gate. See DESIGN.md before changing that.
func (s *Service) GetReplyChain(ctx context.Context, viewerID int64, postApID string) (*models.ReplyChain, error) {
	ctx, span := tracing.ThreadSpan(ctx, postApID, viewerID)
	defer span.End()

	target, err := s.store.GetPostByApID(ctx, postApID)
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, err
	}

	ancestors, ancestorsHaveMore, err := s.walkAncestors(ctx, target)
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, err
	}

	children, chains, childrenHaveMore, err := s.walkChildren(ctx, target)
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, err
	}

	chain, err := s.project(ctx, viewerID, target, ancestors, ancestorsHaveMore, children, chains, childrenHaveMore)
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, err
	}

	metrics.ThreadRequestsTotal.Inc()
	log.Debug().
		Int64("viewer_id", viewerID).
		Str("post_ap_id", postApID).
		Int("ancestors", len(chain.Ancestors.Chain)).
		Int("children", len(chain.Children)).
		Msg("thread: reconstructed")

	return chain, nil
}

// walkAncestors follows inReplyTo upward from the target, collecting at
// most maxAncestorDepth posts, returned root-first. hasMore reports that
// the oldest collected ancestor is itself still a reply.
func (s *Service) walkAncestors(ctx context.Context, target *models.Post) ([]*models.Post, bool, error) {
	var chain []*models.Post
	cur := target
	for len(chain) < maxAncestorDepth && cur.InReplyTo != nil {
		parent, err := s.store.GetPostByID(ctx, *cur.InReplyTo)
		if errors.Is(err, database.ErrNotFound) {
			// Federated threads can have gaps; a missing parent ends the
			// walk rather than failing the whole reconstruction.
			log.Warn().Int64("post_id", cur.ID).Int64("parent_id", *cur.InReplyTo).
				Msg("thread: parent missing, truncating ancestor walk")
			return reverse(chain), false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("thread: walk ancestors: %w", err)
		}
		chain = append(chain, parent)
		cur = parent
	}
	return reverse(chain), cur.InReplyTo != nil, nil
}

// walkChildren selects the top-level replies and extends each one's linear
// chain. A chain descends only while the current node has exactly one
// reply; zero replies ends the chain, more than one means it branched.
// Replies of a branching chain node are promoted into the top-level list
// (after the direct children, in creation order) rather than being buried
// in someone else's chain, still subject to the top-level cap. This is
// what collapses a back-and-forth two-party exchange into a single flat
// chain while keeping side conversations visible.
func (s *Service) walkChildren(ctx context.Context, target *models.Post) ([]*models.Post, [][]*models.Post, bool, error) {
	kids, err := s.store.ListChildren(ctx, target.ID, maxChildrenCount+1)
	if err != nil {
		return nil, nil, false, fmt.Errorf("thread: list children: %w", err)
	}
	hasMore := len(kids) > maxChildrenCount
	if hasMore {
		kids = kids[:maxChildrenCount]
	}

	var children []*models.Post
	var chains [][]*models.Post
	queue := kids
	for len(queue) > 0 {
		if len(children) == maxChildrenCount {
			hasMore = true
			break
		}
		kid := queue[0]
		queue = queue[1:]

		walked, branched, err := s.walkLinearChain(ctx, kid)
		if err != nil {
			return nil, nil, false, err
		}
		children = append(children, kid)
		chains = append(chains, walked)

		if branched != nil {
			promoted, err := s.store.ListChildren(ctx, branched.ID, maxChildrenCount+1)
			if err != nil {
				return nil, nil, false, fmt.Errorf("thread: list branch replies: %w", err)
			}
			queue = append(queue, promoted...)
		}
	}
	return children, chains, hasMore, nil
}

// walkLinearChain descends from a top-level child while each node has
// exactly one reply, up to maxChildrenDepth+chainProbeHops nodes. The
// caller trims to maxChildrenDepth and reports truncation. When the walk
// stops at a node with several replies and that node falls inside the
// displayed chain, it is returned as the branch point so its replies can
// be promoted.
func (s *Service) walkLinearChain(ctx context.Context, from *models.Post) ([]*models.Post, *models.Post, error) {
	var walked []*models.Post
	cur := from
	for cur.ReplyCount == 1 && len(walked) < maxChildrenDepth+chainProbeHops {
		next, err := s.store.ListChildren(ctx, cur.ID, 1)
		if err != nil {
			return nil, nil, fmt.Errorf("thread: walk chain: %w", err)
		}
		if len(next) == 0 {
			// Counter said one reply but none exists; counters are
			// eventually consistent with federation, stop here.
			break
		}
		walked = append(walked, next[0])
		cur = next[0]
	}
	if cur.ReplyCount > 1 && len(walked) <= maxChildrenDepth {
		return walked, cur, nil
	}
	return walked, nil, nil
}

// project maps the collected posts into the ReplyChain DTO shape, computing
// viewer flags for every post in one pass.
func (s *Service) project(ctx context.Context, viewerID int64, target *models.Post,
	ancestors []*models.Post, ancestorsHaveMore bool,
	children []*models.Post, chains [][]*models.Post, childrenHaveMore bool) (*models.ReplyChain, error) {

	all := make([]*models.Post, 0, 1+len(ancestors)+len(children)*maxChildrenDepth)
	all = append(all, target)
	all = append(all, ancestors...)
	all = append(all, children...)
	for _, c := range chains {
		all = append(all, c...)
	}

	postIDs := make([]int64, 0, len(all))
	authorIDSet := make(map[int64]struct{})
	for _, p := range all {
		postIDs = append(postIDs, p.ID)
		authorIDSet[p.AuthorID] = struct{}{}
	}
	authorIDs := make([]int64, 0, len(authorIDSet))
	for id := range authorIDSet {
		authorIDs = append(authorIDs, id)
	}

	var accounts map[int64]*models.Account
	var liked, reposted, followed map[int64]bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.store.GetAccountsByIDs(gctx, authorIDs)
		return err
	})
	g.Go(func() error {
		ids, err := s.store.FilterLikedPostIDs(gctx, viewerID, postIDs)
		liked = toSet(ids)
		return err
	})
	g.Go(func() error {
		ids, err := s.store.FilterRepostedPostIDs(gctx, viewerID, postIDs)
		reposted = toSet(ids)
		return err
	})
	g.Go(func() error {
		ids, err := s.store.FilterFollowedAccountIDs(gctx, viewerID, authorIDs)
		followed = toSet(ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("thread: load viewer context: %w", err)
	}

	toDTO := func(p *models.Post) (models.PostDTO, error) {
		author, ok := accounts[p.AuthorID]
		if !ok {
			return models.PostDTO{}, fmt.Errorf("thread: author %d of post %d missing", p.AuthorID, p.ID)
		}
		row := &models.FeedRow{Kind: models.FeedRowOriginal, Post: p, Author: author}
		return models.NewPostDTO(row, viewerID, models.ViewerFlags{
			Liked:         liked[p.ID],
			Reposted:      reposted[p.ID],
			FollowsAuthor: followed[p.AuthorID],
		}, s.sanitize), nil
	}

	out := &models.ReplyChain{HasMore: childrenHaveMore}
	out.Ancestors.HasMore = ancestorsHaveMore
	out.Ancestors.Chain = make([]models.PostDTO, 0, len(ancestors))
	for _, p := range ancestors {
		dto, err := toDTO(p)
		if err != nil {
			return nil, err
		}
		out.Ancestors.Chain = append(out.Ancestors.Chain, dto)
	}

	var err error
	out.Post, err = toDTO(target)
	if err != nil {
		return nil, err
	}

	out.Children = make([]models.ChildThread, 0, len(children))
	for i, kid := range children {
		entry := models.ChildThread{}
		entry.Post, err = toDTO(kid)
		if err != nil {
			return nil, err
		}
		walked := chains[i]
		entry.HasMore = len(walked) > maxChildrenDepth
		if entry.HasMore {
			walked = walked[:maxChildrenDepth]
		}
		entry.Chain = make([]models.PostDTO, 0, len(walked))
		for _, p := range walked {
			dto, err := toDTO(p)
			if err != nil {
				return nil, err
			}
			entry.Chain = append(entry.Chain, dto)
		}
		out.Children = append(out.Children, entry)
	}

	return out, nil
}

func reverse(posts []*models.Post) []*models.Post {
	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}
	return posts
}

func toSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
